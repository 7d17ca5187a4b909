package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vantage/internal/domain/speech"
)

// fakeS3 answers the handful of path-style S3 calls the cache makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    map[string]string // path -> content type
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if len(parts) == 1 || parts[1] == "" {
		// bucket level: HEAD for BucketExists
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>`+parts[1]+`</Key><BucketName>`+parts[0]+`</BucketName><Resource>`+r.URL.Path+`</Resource><RequestId>1</RequestId><HostId>1</HostId></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.puts[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, fake *fakeS3) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	cli, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	require.NoError(t, err)

	s, err := NewWithClient(context.Background(), cli, "us-east-1", "tts-cache")
	require.NoError(t, err)
	return s
}

func TestGetMissReturnsNil(t *testing.T) {
	s := newTestStore(t, &fakeS3{objects: map[string][]byte{}, puts: map[string]string{}})

	a, err := s.Get(context.Background(), "tts/voice/abc.mp3")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestGetHit(t *testing.T) {
	fake := &fakeS3{
		objects: map[string][]byte{"/tts-cache/tts/voice/abc.mp3": []byte("mp3")},
		puts:    map[string]string{},
	}
	s := newTestStore(t, fake)

	a, err := s.Get(context.Background(), "tts/voice/abc.mp3")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, []byte("mp3"), a.Data)
	assert.Equal(t, "audio/mpeg", a.ContentType)
}

func TestPutWritesObject(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, puts: map[string]string{}}
	s := newTestStore(t, fake)

	err := s.Put(context.Background(), "tts/voice/def.mp3", &speech.Audio{Data: []byte("abc")})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "audio/mpeg", fake.puts["/tts-cache/tts/voice/def.mp3"])
}
