package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// SyncMode selects how subtype aggregates are written: "atomic" or "best_effort".
	SyncMode string
}

// DatabaseConfig selects the store. An empty URL runs on the in-memory client.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ApplySchema  bool
}

// RedisConfig configures the dispatch queue and ledger. An empty URL keeps
// both in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	QueuePrefix  string
	LedgerTTL    time.Duration
}

// KafkaConfig configures the status event publisher. No brokers disables it.
type KafkaConfig struct {
	Brokers     []string
	ClientID    string
	Topic       string
	DialTimeout time.Duration
}

// DispatchConfig bounds the notification dispatcher.
type DispatchConfig struct {
	GracePeriod  time.Duration
	RetryBackoff time.Duration
	MaxAttempts  int
	Workers      int
	QueueSize    int
	JobTimeout   time.Duration
}

// QRConfig locates the GCash payment QR asset. A bucket selects S3
// presigning; otherwise StaticURL is used as is.
type QRConfig struct {
	StaticURL       string
	Bucket          string
	Key             string
	KeyPrefix       string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	URLExpiry       time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Dispatch DispatchConfig
	QR       QRConfig
	Log      LogConfig
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	p := parser{errs: &errs}

	cfg := Config{
		Server: Server{
			Addr:            getEnv("PERMITFLOW_ADDR", ":8080"),
			JWTSigningKey:   getEnv("JWT_SIGNING_KEY", devSigningKey),
			ReadTimeout:     p.duration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    p.duration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: p.duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			SyncMode:        getEnv("SYNC_MODE", "atomic"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: p.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns: p.int("DATABASE_MAX_IDLE_CONNS", 5),
			ApplySchema:  p.bool("DATABASE_APPLY_SCHEMA", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			QueuePrefix:  getEnv("REDIS_QUEUE_PREFIX", "permitflow:dispatch"),
			LedgerTTL:    p.duration("REDIS_LEDGER_TTL", 7*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			ClientID:    getEnv("KAFKA_CLIENT_ID", "permitflow"),
			Topic:       getEnv("KAFKA_STATUS_TOPIC", "permit.status"),
			DialTimeout: p.duration("KAFKA_DIAL_TIMEOUT", 5*time.Second),
		},
		Dispatch: DispatchConfig{
			GracePeriod:  p.duration("DISPATCH_GRACE_PERIOD", time.Second),
			RetryBackoff: p.duration("DISPATCH_RETRY_BACKOFF", time.Second),
			MaxAttempts:  p.int("DISPATCH_MAX_ATTEMPTS", 3),
			Workers:      p.int("DISPATCH_WORKERS", 2),
			QueueSize:    p.int("DISPATCH_QUEUE_SIZE", 256),
			JobTimeout:   p.duration("DISPATCH_JOB_TIMEOUT", time.Minute),
		},
		QR: QRConfig{
			StaticURL:       os.Getenv("GCASH_QR_URL"),
			Bucket:          os.Getenv("QR_S3_BUCKET"),
			Key:             os.Getenv("QR_S3_KEY"),
			KeyPrefix:       getEnv("QR_S3_KEY_PREFIX", "qr"),
			Region:          getEnv("QR_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("QR_S3_ENDPOINT"),
			PathStyle:       p.bool("QR_S3_PATH_STYLE", false),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			URLExpiry:       p.duration("QR_URL_EXPIRY", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	switch cfg.Server.SyncMode {
	case "atomic", "best_effort":
	default:
		errs = append(errs, fmt.Errorf("SYNC_MODE must be atomic or best_effort, got %q", cfg.Server.SyncMode))
	}
	if cfg.Dispatch.MaxAttempts < 1 {
		errs = append(errs, errors.New("DISPATCH_MAX_ATTEMPTS must be at least 1"))
	}
	if cfg.Dispatch.Workers < 1 {
		errs = append(errs, errors.New("DISPATCH_WORKERS must be at least 1"))
	}
	return cfg, errors.Join(errs...)
}

// DevSigningKey reports whether the server runs with the built-in key.
func (s Server) DevSigningKey() bool {
	return s.JWTSigningKey == devSigningKey
}

type parser struct {
	errs *[]error
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Accept whole seconds without a unit.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		*p.errs = append(*p.errs, fmt.Errorf("%s: invalid duration %q", key, val))
		return fallback
	}
	return d
}

func (p parser) int(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: invalid integer %q", key, val))
		return fallback
	}
	return n
}

func (p parser) bool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: invalid boolean %q", key, val))
		return fallback
	}
	return b
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
