package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/vantage/internal/domain/speech"
)

const defaultContentType = "audio/mpeg"

// Store keeps synthesised audio in an S3-compatible bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return NewWithClient(ctx, cli, region, bucket)
}

// NewWithClient wraps an existing client and makes sure the bucket exists.
func NewWithClient(ctx context.Context, cli *minio.Client, region, bucket string) (*Store, error) {
	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Get returns the cached audio under key, or (nil, nil) when there is none.
func (s *Store) Get(ctx context.Context, key string) (*speech.Audio, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	ct := info.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	return &speech.Audio{Data: data, ContentType: ct}, nil
}

// Put stores audio under key.
func (s *Store) Put(ctx context.Context, key string, a *speech.Audio) error {
	ct := a.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(a.Data), int64(len(a.Data)), minio.PutObjectOptions{
		ContentType: ct,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the bucket is reachable; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
