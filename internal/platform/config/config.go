package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	ObjectStore ObjectStore
	Redis       Redis
	Database    Database
	Kafka       Kafka
	Provider    Provider
}

// ObjectStore selects and configures the document storage backend.
type ObjectStore struct {
	// Mode is "memory" or "s3".
	Mode          string
	Bucket        string
	Region        string
	PublicBaseURL string
	// Static credentials are optional; when empty the SDK's default chain
	// (env, shared config, IAM role) applies.
	AccessKeyID     string
	SecretAccessKey string
}

// Redis configures the optional Redis-backed attempt store.
// An empty URL means in-memory attempts.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Database configures the optional PostgreSQL profile store.
// An empty URL means in-memory profiles.
type Database struct {
	URL string
}

// Kafka configures the optional audit event publisher.
// Empty brokers disable publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Provider configures the verification provider.
type Provider struct {
	// Mode is "simulated" or "vendor".
	Mode      string
	VendorURL string
	// Simulated provider knobs; the defaults mirror the demo vendor.
	SimulatedLatency  time.Duration
	SimulatedVerdict  bool
	SimulatedAge      int
	SimulatedDocument string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("IDPROOF_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ObjectStore: ObjectStore{
			Mode:            envOr("OBJECT_STORE", "memory"),
			Bucket:          envOr("OBJECT_STORE_BUCKET", "identity-verification"),
			Region:          envOr("OBJECT_STORE_REGION", "eu-west-1"),
			PublicBaseURL:   os.Getenv("OBJECT_STORE_PUBLIC_URL"),
			AccessKeyID:     os.Getenv("OBJECT_STORE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("OBJECT_STORE_SECRET_ACCESS_KEY"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "idproof.audit"),
		},
		Provider: Provider{
			Mode:              envOr("PROVIDER_MODE", "simulated"),
			VendorURL:         os.Getenv("PROVIDER_VENDOR_URL"),
			SimulatedLatency:  envDuration("PROVIDER_SIMULATED_LATENCY", 2*time.Second),
			SimulatedVerdict:  envOr("PROVIDER_SIMULATED_VERDICT", "true") == "true",
			SimulatedAge:      envInt("PROVIDER_SIMULATED_AGE", 25),
			SimulatedDocument: envOr("PROVIDER_SIMULATED_DOCUMENT", "passport"),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
