package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/vantage/internal/domain/speech"
)

type Config struct {
	Server struct {
		Addr         string        `yaml:"addr" env:"HTTP_ADDR"`
		ReadTimeout  time.Duration `yaml:"readTimeout" env:"HTTP_READ_TIMEOUT"`
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"HTTP_WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `yaml:"idleTimeout" env:"HTTP_IDLE_TIMEOUT"`
		CORSOrigins  []string      `yaml:"corsOrigins" env:"CORS_ORIGINS" envSeparator:","`

		// RateLimit is the bucket size per client on /analyze and /tts; 0 disables it.
		RateLimit       int `yaml:"rateLimit" env:"RATE_LIMIT"`
		RateLimitRefill int `yaml:"rateLimitRefill" env:"RATE_LIMIT_REFILL"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver" env:"DB_DRIVER"`
		DSN      string `yaml:"dsn" env:"DATABASE_URL"`
		Host     string `yaml:"host" env:"DB_HOST"`
		Port     int    `yaml:"port" env:"DB_PORT"`
		User     string `yaml:"user" env:"DB_USER"`
		Password string `yaml:"password" env:"DB_PASSWORD"`
		Name     string `yaml:"name" env:"DB_NAME"`
		Migrate  bool   `yaml:"migrate" env:"DB_MIGRATE"`
	} `yaml:"database"`

	AI struct {
		APIKey       string        `yaml:"apiKey" env:"OPENAI_API_KEY"`
		Model        string        `yaml:"model" env:"OPENAI_MODEL"`
		BaseURL      string        `yaml:"baseURL" env:"OPENAI_BASE_URL"`
		Timeout      time.Duration `yaml:"timeout" env:"OPENAI_TIMEOUT"`
		MaxAttempts  int           `yaml:"maxAttempts" env:"OPENAI_MAX_ATTEMPTS"`
		RetryBackoff time.Duration `yaml:"retryBackoff" env:"OPENAI_RETRY_BACKOFF"`
	} `yaml:"ai"`

	Speech struct {
		Key          string        `yaml:"key" env:"AZURE_TTS_KEY"`
		Region       string        `yaml:"region" env:"AZURE_TTS_REGION"`
		Endpoint     string        `yaml:"endpoint" env:"AZURE_TTS_ENDPOINT"`
		OutputFormat string        `yaml:"outputFormat" env:"AZURE_TTS_OUTPUT_FORMAT"`
		Timeout      time.Duration `yaml:"timeout" env:"AZURE_TTS_TIMEOUT"`
		UrduVoice    speech.Voice  `yaml:"urduVoice"`
		EnglishVoice speech.Voice  `yaml:"englishVoice"`
	} `yaml:"speech"`

	Auth struct {
		Secret   string        `yaml:"secret" env:"JWT_SECRET"`
		TokenTTL time.Duration `yaml:"tokenTTL" env:"TOKEN_TTL"`
	} `yaml:"auth"`

	Minio struct {
		Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey  string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
		SecretKey  string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
		BucketName string `yaml:"bucketName" env:"MINIO_BUCKET"`
		Region     string `yaml:"region" env:"MINIO_REGION"`
		UseSSL     bool   `yaml:"useSSL" env:"MINIO_USE_SSL"`
	} `yaml:"minio"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"log"`
}

// Overrides holds CLI flag values that take priority over everything else.
type Overrides struct {
	EnvFile  string
	Addr     string
	LogLevel string
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 90 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.RateLimit = 20
	c.Server.RateLimitRefill = 1

	c.Database.Driver = "mysql"
	c.Database.Port = 3306
	c.Database.Migrate = true

	c.AI.Model = "gpt-4o-mini"
	c.AI.Timeout = 60 * time.Second
	c.AI.MaxAttempts = 1
	c.AI.RetryBackoff = 2 * time.Second

	c.Speech.OutputFormat = "audio-16khz-32kbitrate-mono-mp3"
	c.Speech.Timeout = 30 * time.Second
	c.Speech.UrduVoice = speech.Voice{Name: "ur-PK-AsadNeural", Lang: "ur-PK"}
	c.Speech.EnglishVoice = speech.Voice{Name: "en-US-AriaNeural", Lang: "en-US"}

	c.Auth.TokenTTL = 7 * 24 * time.Hour

	c.Minio.BucketName = "vantage-tts"

	c.Log.Level = "info"
	c.Log.Format = "json"
	return &c
}

// Load builds the config: defaults, then the YAML file at path (skipped if
// missing), then the .env file, then the environment, then CLI overrides.
func Load(path string, o Overrides) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if o.Addr != "" {
		cfg.Server.Addr = o.Addr
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.AI.MaxAttempts < 1 {
		cfg.AI.MaxAttempts = 1
	}
	return cfg, nil
}

// DatabaseDSN returns the configured DSN, or one built from the discrete
// fields for the selected driver. Empty means no database is configured.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Host == "" {
		return ""
	}
	switch c.Database.Driver {
	case "postgres":
		return c.PostgresDSN()
	default:
		return c.MySQLDSN()
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// VoiceFor returns the voice configured for a language.
func (c *Config) VoiceFor(l speech.Language) speech.Voice {
	if l == speech.LanguageUrdu {
		return c.Speech.UrduVoice
	}
	return c.Speech.EnglishVoice
}
