// Package config loads service configuration: built-in defaults, then an
// optional TOML file named by STUDYSYNC_CONFIG, then STUDYSYNC_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// FileEnv names the environment variable holding the config file path.
const FileEnv = "STUDYSYNC_CONFIG"

type Config struct {
	LogLevel  string `toml:"log_level" env:"STUDYSYNC_LOG_LEVEL"`
	Source    string `toml:"source" env:"STUDYSYNC_SOURCE"`
	AuthToken string `toml:"auth_token" env:"STUDYSYNC_AUTH_TOKEN"` // empty = auth disabled

	Database   DatabaseConfig   `toml:"database"`
	GRPC       GRPCConfig       `toml:"grpc"`
	HTTP       HTTPConfig       `toml:"http"`
	Kafka      KafkaConfig      `toml:"kafka"`
	Queue      QueueConfig      `toml:"queue"`
	Redis      RedisConfig      `toml:"redis"`
	DeadLetter DeadLetterConfig `toml:"deadletter"`
	OTel       OTelConfig       `toml:"otel"`
}

type DatabaseConfig struct {
	URL             string        `toml:"url" env:"STUDYSYNC_DATABASE_URL"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"STUDYSYNC_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"STUDYSYNC_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"STUDYSYNC_DATABASE_CONN_MAX_LIFETIME"`
	Migrate         bool          `toml:"migrate" env:"STUDYSYNC_DATABASE_MIGRATE"`
}

type GRPCConfig struct {
	Host           string `toml:"host" env:"STUDYSYNC_GRPC_HOST"`
	Port           int    `toml:"port" env:"STUDYSYNC_GRPC_PORT"`
	MaxMessageSize int    `toml:"max_message_size" env:"STUDYSYNC_GRPC_MAX_MESSAGE_SIZE"`
	TLSEnabled     bool   `toml:"tls_enabled" env:"STUDYSYNC_GRPC_TLS_ENABLED"`
	TLSCert        string `toml:"tls_cert" env:"STUDYSYNC_GRPC_TLS_CERT"`
	TLSKey         string `toml:"tls_key" env:"STUDYSYNC_GRPC_TLS_KEY"`
}

// Addr returns host:port for net.Listen.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, strconv.Itoa(g.Port))
}

type HTTPConfig struct {
	Addr string `toml:"addr" env:"STUDYSYNC_HTTP_ADDR"`
}

type KafkaConfig struct {
	Brokers              []string      `toml:"brokers" env:"STUDYSYNC_KAFKA_BROKERS" envSeparator:","` // empty = noop producer
	TopicUserInteraction string        `toml:"topic_user_interaction" env:"STUDYSYNC_KAFKA_TOPIC_USER_INTERACTION"`
	TopicPostLifecycle   string        `toml:"topic_post_lifecycle" env:"STUDYSYNC_KAFKA_TOPIC_POST_LIFECYCLE"`
	Acks                 string        `toml:"acks" env:"STUDYSYNC_KAFKA_ACKS"`
	Compression          string        `toml:"compression" env:"STUDYSYNC_KAFKA_COMPRESSION"`
	Idempotent           bool          `toml:"idempotent" env:"STUDYSYNC_KAFKA_IDEMPOTENT"`
	Retries              int           `toml:"retries" env:"STUDYSYNC_KAFKA_RETRIES"`
	RetryBackoff         time.Duration `toml:"retry_backoff" env:"STUDYSYNC_KAFKA_RETRY_BACKOFF"`
	WriteTimeout         time.Duration `toml:"write_timeout" env:"STUDYSYNC_KAFKA_WRITE_TIMEOUT"`
}

type QueueConfig struct {
	NATSURL      string        `toml:"nats_url" env:"STUDYSYNC_NATS_URL"` // empty = in-memory queue
	Tries        int           `toml:"tries" env:"STUDYSYNC_QUEUE_TRIES"`
	// Backoff is the delay before a failed job is delivered again.
	Backoff      time.Duration `toml:"backoff" env:"STUDYSYNC_QUEUE_BACKOFF"`
	Workers      int           `toml:"workers" env:"STUDYSYNC_QUEUE_WORKERS"`
	// DrainTimeout bounds how long in-flight jobs may finish on shutdown.
	DrainTimeout time.Duration `toml:"drain_timeout" env:"STUDYSYNC_QUEUE_DRAIN_TIMEOUT"`
}

type RedisConfig struct {
	URL      string        `toml:"url" env:"STUDYSYNC_REDIS_URL"` // empty = no cache
	CacheTTL time.Duration `toml:"cache_ttl" env:"STUDYSYNC_CACHE_TTL"`
}

type DeadLetterConfig struct {
	S3Bucket   string `toml:"s3_bucket" env:"STUDYSYNC_DEADLETTER_S3_BUCKET"` // empty = log only
	S3Prefix   string `toml:"s3_prefix" env:"STUDYSYNC_DEADLETTER_S3_PREFIX"`
	S3Region   string `toml:"s3_region" env:"STUDYSYNC_DEADLETTER_S3_REGION"`
	S3Endpoint string `toml:"s3_endpoint" env:"STUDYSYNC_DEADLETTER_S3_ENDPOINT"` // custom endpoint for MinIO
}

type OTelConfig struct {
	Endpoint    string `toml:"endpoint" env:"STUDYSYNC_OTEL_ENDPOINT"` // empty = tracing disabled
	ServiceName string `toml:"service_name" env:"STUDYSYNC_OTEL_SERVICE_NAME"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Source:   "study-sync-backend",
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			Migrate:         true,
		},
		GRPC: GRPCConfig{
			Host:           "0.0.0.0",
			Port:           6001,
			MaxMessageSize: 4 * 1024 * 1024,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Kafka: KafkaConfig{
			Brokers:              []string{"localhost:9092"},
			TopicUserInteraction: "user-interaction-events",
			TopicPostLifecycle:   "post-lifecycle-events",
			Acks:                 "all",
			Compression:          "snappy",
			Idempotent:           true,
			Retries:              3,
			RetryBackoff:         100 * time.Millisecond,
			WriteTimeout:         10 * time.Second,
		},
		Queue: QueueConfig{
			Tries:        3,
			Backoff:      10 * time.Second,
			Workers:      4,
			DrainTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{CacheTTL: 5 * time.Minute},
		DeadLetter: DeadLetterConfig{
			S3Prefix: "deadletter/",
			S3Region: "us-east-1",
		},
		OTel: OTelConfig{ServiceName: "study-sync-backend"},
	}
}

// Load builds the configuration and validates it. It does not require a
// database URL; commands that need one call RequireDatabase.
func Load() (*Config, error) {
	c := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("%s: %w", FileEnv, err)
		}
	}

	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	// An explicitly empty broker list selects the noop producer.
	if v, ok := os.LookupEnv("STUDYSYNC_KAFKA_BROKERS"); ok && strings.TrimSpace(v) == "" {
		c.Kafka.Brokers = nil
	}
	c.Kafka.Brokers = compact(c.Kafka.Brokers)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges. Each error names the variable at fault.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, name, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s: "+format, append([]any{name}, args...)...))
		}
	}

	var level slog.Level
	check(level.UnmarshalText([]byte(c.LogLevel)) == nil, "STUDYSYNC_LOG_LEVEL", "unknown level %q", c.LogLevel)
	check(c.Source != "", "STUDYSYNC_SOURCE", "must not be empty")

	check(c.GRPC.Port > 0 && c.GRPC.Port < 65536, "STUDYSYNC_GRPC_PORT", "must be between 1 and 65535, got %d", c.GRPC.Port)
	check(c.GRPC.MaxMessageSize > 0, "STUDYSYNC_GRPC_MAX_MESSAGE_SIZE", "must be positive, got %d", c.GRPC.MaxMessageSize)
	if c.GRPC.TLSEnabled {
		check(c.GRPC.TLSCert != "", "STUDYSYNC_GRPC_TLS_CERT", "required when TLS is enabled")
		check(c.GRPC.TLSKey != "", "STUDYSYNC_GRPC_TLS_KEY", "required when TLS is enabled")
	}
	check(c.HTTP.Addr != "", "STUDYSYNC_HTTP_ADDR", "must not be empty")

	check(c.Kafka.TopicUserInteraction != "", "STUDYSYNC_KAFKA_TOPIC_USER_INTERACTION", "must not be empty")
	check(c.Kafka.TopicPostLifecycle != "", "STUDYSYNC_KAFKA_TOPIC_POST_LIFECYCLE", "must not be empty")
	switch strings.ToLower(c.Kafka.Acks) {
	case "all", "one", "none", "-1", "1", "0":
	default:
		check(false, "STUDYSYNC_KAFKA_ACKS", "must be all, one or none, got %q", c.Kafka.Acks)
	}
	switch strings.ToLower(c.Kafka.Compression) {
	case "", "none", "gzip", "snappy", "lz4", "zstd":
	default:
		check(false, "STUDYSYNC_KAFKA_COMPRESSION", "unsupported codec %q", c.Kafka.Compression)
	}
	check(c.Kafka.Retries >= 1, "STUDYSYNC_KAFKA_RETRIES", "must be at least 1, got %d", c.Kafka.Retries)
	check(c.Kafka.RetryBackoff >= 0, "STUDYSYNC_KAFKA_RETRY_BACKOFF", "must not be negative")

	check(c.Queue.Tries >= 1, "STUDYSYNC_QUEUE_TRIES", "must be at least 1, got %d", c.Queue.Tries)
	check(c.Queue.Backoff > 0, "STUDYSYNC_QUEUE_BACKOFF", "must be positive, got %s", c.Queue.Backoff)
	check(c.Queue.DrainTimeout > 0, "STUDYSYNC_QUEUE_DRAIN_TIMEOUT", "must be positive, got %s", c.Queue.DrainTimeout)
	check(c.Queue.Workers >= 1, "STUDYSYNC_QUEUE_WORKERS", "must be at least 1, got %d", c.Queue.Workers)

	check(c.Redis.CacheTTL > 0, "STUDYSYNC_CACHE_TTL", "must be positive")
	if c.DeadLetter.S3Bucket != "" {
		check(c.DeadLetter.S3Region != "", "STUDYSYNC_DEADLETTER_S3_REGION", "required when a bucket is set")
	}

	return errors.Join(errs...)
}

// RequireDatabase reports an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("STUDYSYNC_DATABASE_URL is required")
	}
	return nil
}

func compact(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
