package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appai "github.com/bryanwahyu/vantage/internal/application/ai"
	"github.com/bryanwahyu/vantage/internal/application/analyses"
	"github.com/bryanwahyu/vantage/internal/application/auth"
	appspeech "github.com/bryanwahyu/vantage/internal/application/speech"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/middleware"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Services are the use cases the router dispatches to.
type Services struct {
	AI       *appai.Service
	Analyses *analyses.Service
	Auth     *auth.Service
	Speech   *appspeech.Service
}

// Options tune the HTTP surface.
type Options struct {
	Logger         zerolog.Logger
	CORSOrigins    []string
	RateLimiter    *middleware.RateLimiter
	HealthCheckers map[string]middleware.HealthChecker
	Draining       func() bool
}

type Router struct {
	svc Services
}

func NewRouter(svc Services, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(
		middleware.Logger(opts.Logger),
		middleware.Recoverer,
		middleware.InstrumentHandler,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}),
	)

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(opts.Draining))
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.Authenticate(svc.Auth))

		// provider-backed routes are rate limited
		limited := rt
		if opts.RateLimiter != nil {
			limited = rt.With(opts.RateLimiter.Middleware)
		}
		limited.Post("/analyze", r.wrap("Failed to analyze text. Please try again.", r.handleAnalyze))
		limited.Post("/tts", r.wrap("Failed to generate speech", r.handleTTS))

		rt.Route("/analyses", func(rt chi.Router) {
			rt.Post("/", r.wrap("Failed to save analysis", r.handleCreateAnalysis))
			rt.Get("/", r.wrap("Failed to retrieve analyses", r.handleListAnalyses))
			rt.Get("/{id}", r.wrap("Failed to retrieve analysis", r.handleGetAnalysis))
			rt.Put("/{id}", r.wrap("Failed to update analysis", r.handleUpdateAnalysis))
			rt.Delete("/{id}", r.wrap("Failed to delete analysis", r.handleDeleteAnalysis))
		})

		rt.Route("/auth", func(rt chi.Router) {
			rt.Post("/signup", r.wrap("Failed to create user", r.handleSignup))
			rt.Post("/login", r.wrap("Failed to log in", r.handleLogin))
			rt.With(middleware.RequireAuth).Get("/me", r.wrap("Failed to load profile", r.handleMe))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps a handler error to its status and {"error": msg} body. Errors
// outside the apperr taxonomy answer 500 with fallback and are logged with their cause.
func (r *Router) wrap(fallback string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		status := apperr.HTTPStatus(err)
		msg := fallback
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}

		log := hlog.FromRequest(req)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("kind", string(apperr.KindOf(err))).Int("status", status).Msg(fallback)
		} else {
			log.Debug().Err(err).Int("status", status).Msg("request rejected")
		}
		WriteError(w, status, msg)
	}
}
