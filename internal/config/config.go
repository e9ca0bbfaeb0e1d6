// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvDevelopment is the APP_ENV value that relaxes secret requirements and enables console logging.
const EnvDevelopment = "development"

// devLinkSigningSecret is used only when APP_ENV=development and LINK_SIGNING_SECRET is unset.
const devLinkSigningSecret = "dev-link-signing-secret"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server (link pages, health) listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health server; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// BaseURL is the externally visible URL used to build absolute linking URLs.
	BaseURL string `mapstructure:"BASE_URL"`
	// LinkSigningSecret is the HMAC key for signed link tokens.
	LinkSigningSecret string `mapstructure:"LINK_SIGNING_SECRET"`
	// LinkTokenTTL is how long a linking URL stays valid (e.g. "48h").
	LinkTokenTTL string `mapstructure:"LINK_TOKEN_TTL"`
	// JWTPublicKey is the PEM-encoded public key (or path) used to verify access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTPrivateKey is the PEM-encoded private key (or path); only the seed command uses it to mint a dev token.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTIssuer is the expected iss claim of access tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim of access tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// SlackNotifyTimeout bounds the ephemeral acknowledgment POST (e.g. "10s").
	SlackNotifyTimeout string `mapstructure:"SLACK_NOTIFY_TIMEOUT"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty means no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	// TelemetryKafkaBrokers is a comma-separated list of Kafka brokers; when set, link events go to Kafka.
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for link events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("LINK_SIGNING_SECRET", "")
	v.SetDefault("LINK_TOKEN_TTL", "48h")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_ISSUER", "slack-linker-auth")
	v.SetDefault("JWT_AUDIENCE", "slack-linker")
	v.SetDefault("SLACK_NOTIFY_TIMEOUT", "10s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "slack-identity-linker")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "slack-linker-telemetry")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("config: BASE_URL must be set")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.LinkSigningSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("config: LINK_SIGNING_SECRET must be set unless APP_ENV=development")
		}
		cfg.LinkSigningSecret = devLinkSigningSecret
	}

	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c != nil && strings.EqualFold(c.Env, EnvDevelopment)
}

// LinkTTL parses LinkTokenTTL as a time.Duration. Returns 48h if unset or invalid.
func (c *Config) LinkTTL() time.Duration {
	d, err := time.ParseDuration(c.LinkTokenTTL)
	if err != nil || d <= 0 {
		return 48 * time.Hour
	}
	return d
}

// NotifyTimeout parses SlackNotifyTimeout as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) NotifyTimeout() time.Duration {
	d, err := time.ParseDuration(c.SlackNotifyTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka emission is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
