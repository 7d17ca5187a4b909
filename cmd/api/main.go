package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vantage/internal/application"
	appai "github.com/bryanwahyu/vantage/internal/application/ai"
	"github.com/bryanwahyu/vantage/internal/application/analyses"
	"github.com/bryanwahyu/vantage/internal/application/auth"
	appspeech "github.com/bryanwahyu/vantage/internal/application/speech"
	"github.com/bryanwahyu/vantage/internal/config"
	"github.com/bryanwahyu/vantage/internal/domain/ai"
	"github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/speech"
	"github.com/bryanwahyu/vantage/internal/domain/users"
	"github.com/bryanwahyu/vantage/internal/infra/ai/openai"
	"github.com/bryanwahyu/vantage/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/vantage/internal/infra/db/mysql"
	"github.com/bryanwahyu/vantage/internal/infra/db/postgres"
	"github.com/bryanwahyu/vantage/internal/infra/httpserver"
	"github.com/bryanwahyu/vantage/internal/infra/speech/azure"
	minioStore "github.com/bryanwahyu/vantage/internal/infra/storage"
	"github.com/bryanwahyu/vantage/internal/middleware"
)

const shutdownGrace = 10 * time.Second

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	var o config.Overrides
	flag.StringVar(&path, "config", path, "path to the YAML config file")
	flag.StringVar(&o.EnvFile, "env-file", "", "dotenv file to load (default .env)")
	flag.StringVar(&o.Addr, "addr", "", "listen address, overrides HTTP_ADDR")
	flag.StringVar(&o.LogLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	flag.Parse()

	// load config
	cfg, err := config.Load(path, o)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// storage
	db, analysisRepo, userRepo := openRepositories(ctx, cfg, log)
	if db != nil {
		defer db.Close()
	}

	// text generation provider
	var aiClient ai.Client
	if cfg.AI.APIKey != "" {
		aiClient = openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, /analyze will fail")
	}

	// speech provider
	var synth speech.Synthesizer
	az, err := azure.NewClient(azure.Options{
		Key:          cfg.Speech.Key,
		Region:       cfg.Speech.Region,
		Endpoint:     cfg.Speech.Endpoint,
		OutputFormat: cfg.Speech.OutputFormat,
		Timeout:      cfg.Speech.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("speech synthesis disabled")
	} else {
		synth = az
	}

	checkers := map[string]middleware.HealthChecker{}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// init minio
	var cache speech.AudioCache
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", cfg.Minio.Endpoint).Msg("audio cache disabled")
		} else {
			cache = store
			checkers["storage"] = middleware.CheckFunc(store.Ping)
		}
	}

	clock := application.SystemClock{}
	svc := httpserver.Services{
		AI: appai.NewService(aiClient, appai.Options{
			Timeout:      cfg.AI.Timeout,
			MaxAttempts:  cfg.AI.MaxAttempts,
			RetryBackoff: cfg.AI.RetryBackoff,
		}, log.With().Str("component", "ai").Logger()),
		Analyses: &analyses.Service{
			Repo:  analysisRepo,
			Users: userRepo,
			Clock: clock,
			Log:   log.With().Str("component", "analyses").Logger(),
		},
		Auth: auth.NewService(userRepo, cfg.Auth.Secret, cfg.Auth.TokenTTL, clock, log.With().Str("component", "auth").Logger()),
		Speech: appspeech.NewService(synth, cache, appspeech.Options{
			Voices: map[speech.Language]speech.Voice{
				speech.LanguageUrdu:    cfg.VoiceFor(speech.LanguageUrdu),
				speech.LanguageEnglish: cfg.VoiceFor(speech.LanguageEnglish),
			},
			Timeout: cfg.Speech.Timeout,
		}, log.With().Str("component", "speech").Logger()),
	}
	if cfg.Auth.Secret == "" {
		log.Warn().Msg("JWT_SECRET not set, signup and login will fail")
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.Server.RateLimit, cfg.Server.RateLimitRefill)
	}

	var draining atomic.Bool
	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:         log,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimiter:    limiter,
		HealthCheckers: checkers,
		Draining:       draining.Load,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Error().Err(err).Msg("server error")
	}

	// graceful shutdown
	draining.Store(true)
	log.Info().Msg("shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var log zerolog.Logger
	if cfg.Log.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Str("service", "vantage").Logger()
}

// openRepositories picks the persistence backend. Without a DSN, or when the
// database cannot be reached or migrated, the repositories stay nil and only
// the persistence endpoints answer with a configuration error.
func openRepositories(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, analysis.Repository, users.Repository) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return nil, memory.NewAnalysisRepository(), memory.NewUserRepository()
	}

	dsn := cfg.DatabaseDSN()
	if dsn == "" {
		log.Warn().Str("driver", cfg.Database.Driver).Msg("database not configured")
		return nil, nil, nil
	}

	var (
		db      *sql.DB
		err     error
		migrate func(context.Context, *sql.DB) error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgres.Connect(ctx, dsn)
		migrate = postgres.Migrate
	default:
		db, err = mysqlp.Connect(ctx, dsn)
		migrate = mysqlp.Migrate
	}
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("database connect error, persistence disabled")
		return nil, nil, nil
	}

	if cfg.Database.Migrate {
		if err := migrate(ctx, db); err != nil {
			log.Error().Err(err).Msg("database migrate error, persistence disabled")
			_ = db.Close()
			return nil, nil, nil
		}
	}

	if cfg.Database.Driver == "postgres" {
		return db, postgres.NewAnalysisRepository(db), postgres.NewUserRepository(db)
	}
	return db, mysqlp.NewAnalysisRepository(db), mysqlp.NewUserRepository(db)
}
