package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/vantage/internal/application"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/users"
)

const bcryptCost = 10

// Claims is the payload of an issued bearer token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service registers and authenticates users and issues bearer tokens.
type Service struct {
	repo     users.Repository
	secret   []byte
	tokenTTL time.Duration
	clock    application.Clock
	log      zerolog.Logger
}

// NewService builds the auth use-cases. An empty secret or nil repo is allowed;
// the operations that need them fail with a configuration error.
func NewService(repo users.Repository, secret string, tokenTTL time.Duration, clock application.Clock, log zerolog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Service{repo: repo, secret: []byte(secret), tokenTTL: tokenTTL, clock: clock, log: log}
}

// Result is returned by Signup and Login.
type Result struct {
	Token string
	User  *users.User
}

func (s *Service) ready() error {
	if s.repo == nil {
		return apperr.Configuration("database is not configured")
	}
	if len(s.secret) == 0 {
		return apperr.Configuration("token signing secret is not configured")
	}
	return nil
}

// Emails are stored as submitted and matched exactly, surrounding blanks aside.
func normalizeEmail(email string) string { return strings.TrimSpace(email) }

// Signup creates an account. name defaults to the email.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*Result, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	// cek dulu supaya tidak perlu hash kalau email sudah dipakai
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	now := s.clock.Now()
	u := &users.User{
		ID:           users.ID(uuid.New().String()),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Analyses:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// the unique index still guards against a concurrent signup with the same email
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", string(u.ID)).Msg("user signed up")
	return &Result{Token: token, User: u}, nil
}

// Login verifies credentials and issues a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Invalid password")
	}

	token, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: u}, nil
}

// Me returns the account behind a verified token.
func (s *Service) Me(ctx context.Context, id users.ID) (*users.User, error) {
	if s.repo == nil {
		return nil, apperr.Configuration("database is not configured")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) issue(u *users.User) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID: string(u.ID),
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and checks signature and expiry.
func (s *Service) Verify(token string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, apperr.Configuration("token signing secret is not configured")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token")
	}
	if claims.UserID == "" {
		return nil, apperr.Unauthorized("invalid token")
	}
	return &claims, nil
}

// TokenTTL reports the configured token lifetime.
func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }
