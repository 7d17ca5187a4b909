package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/bryanwahyu/vantage/internal/application/auth"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
)

const (
	claimsKey  contextKey = "claims"
	authErrKey contextKey = "auth_error"
)

// TokenVerifier checks a bearer token; implemented by the auth service.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate validates an optional bearer token. Requests without a usable
// token continue anonymously; the verification error is kept on the context
// for RequireAuth.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("bearer token ignored")
				ctx := context.WithValue(r.Context(), authErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that Authenticate left anonymous.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			err, _ := r.Context().Value(authErrKey).(error)
			switch {
			case errors.Is(err, apperr.ErrConfiguration):
				writeError(w, http.StatusInternalServerError, err.Error())
			case err != nil:
				writeError(w, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, http.StatusUnauthorized, "unauthorized")
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}

// WithClaims stores claims on ctx. Used by tests and internal callers.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
