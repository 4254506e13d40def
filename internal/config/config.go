package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the creation service.
type Config struct {
	// Service Configuration
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"creation-api"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"creatorhub"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort         int           `env:"CREATION_API_PORT" envDefault:"8290"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseURL    string        `env:"DATABASE_URL,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"true"`

	// Authentication
	AuthEnabled         bool          `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer          string        `env:"AUTH_ISSUER"`
	AuthAudience        string        `env:"AUTH_AUDIENCE"`
	AuthJWKSURL         string        `env:"AUTH_JWKS_URL"`
	JWKSRefreshInterval time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"5m"`

	// Text generation backend (OpenAI-compatible)
	TextAPIKey      string        `env:"TEXT_API_KEY"`
	TextBaseURL     string        `env:"TEXT_BASE_URL"`
	TextModel       string        `env:"TEXT_MODEL" envDefault:"gpt-4o-mini"`
	SafetyModel     string        `env:"SAFETY_MODEL"`
	TextTimeout     time.Duration `env:"TEXT_TIMEOUT" envDefault:"60s"`
	TextMaxTokens   int           `env:"TEXT_MAX_TOKENS" envDefault:"2048"`
	TextTemperature float32       `env:"TEXT_TEMPERATURE" envDefault:"0.7"`

	// Image synthesis backend
	ImageEndpoint string        `env:"IMAGE_ENDPOINT" envDefault:"https://image.pollinations.ai"`
	ImageModel    string        `env:"IMAGE_MODEL" envDefault:"flux"`
	ImageWidth    int           `env:"IMAGE_WIDTH" envDefault:"1024"`
	ImageHeight   int           `env:"IMAGE_HEIGHT" envDefault:"1024"`
	ImageTimeout  time.Duration `env:"IMAGE_TIMEOUT" envDefault:"60s"`

	// Image transform backend (background / object removal)
	TransformEndpoint string        `env:"TRANSFORM_ENDPOINT"`
	TransformAPIKey   string        `env:"TRANSFORM_API_KEY"`
	TransformTimeout  time.Duration `env:"TRANSFORM_TIMEOUT" envDefault:"60s"`

	// Object storage
	S3Endpoint       string        `env:"S3_ENDPOINT"`
	S3PublicEndpoint string        `env:"S3_PUBLIC_ENDPOINT"`
	S3Region         string        `env:"S3_REGION" envDefault:"us-west-2"`
	S3Bucket         string        `env:"S3_BUCKET"`
	S3AccessKeyID    string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string        `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
	S3PresignTTL     time.Duration `env:"S3_PRESIGN_TTL" envDefault:"720h"`

	// Upload limits
	MaxImageBytes  int64 `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	MaxResumeBytes int64 `env:"MAX_RESUME_BYTES" envDefault:"5242880"`

	// Feature limit overrides (YAML file, optional)
	FeatureLimitsFile string `env:"FEATURE_LIMITS_FILE"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicEndpoint = strings.TrimSpace(cfg.S3PublicEndpoint)
	if cfg.SafetyModel == "" {
		cfg.SafetyModel = cfg.TextModel
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
