package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the process needs at startup. Built once in main
// and injected everywhere; no package reads the environment after this.
type Config struct {
	Addr          string
	JWTSigningKey string

	// EncryptionKey seals credential blobs at rest.
	EncryptionKey string

	// CORSOrigins is the allow-list echoed on responses.
	CORSOrigins []string

	// TargetDomain/TargetPath are forced onto every uploaded cookie so a blob
	// can only ever be replayed against the scraping target.
	TargetDomain string
	TargetPath   string

	// RootURI is the resource recorded on anonymous consent checks during
	// owner matching.
	RootURI string

	Postgres   PostgresConfig
	Redis      RedisConfig
	Registry   RegistryConfig
	Kafka      KafkaConfig
	Matchmaker MatchmakerConfig

	// ConsentBypass disables consent checks for local development only. It is
	// logged at startup and on every bypassed check; never enable in production.
	ConsentBypass bool
}

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig points at the external append-only consent registry. An empty
// BaseURL selects the in-memory registry (dev mode).
type RegistryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MatchmakerConfig points at the optional external matchmaker consulted
// during owner resolution. An empty BaseURL skips the matchmaking stage.
type MatchmakerConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KafkaConfig configures the audit publisher. Empty brokers disable Kafka and
// audit events stay on the local store only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds the Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("RECPROXY_ADDR", ":8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		EncryptionKey: getenv("RECPROXY_ENCRYPTION_KEY", "dev-encryption-key-change-in-production"),
		TargetDomain:  getenv("RECPROXY_TARGET_DOMAIN", ".youtube.com"),
		TargetPath:    getenv("RECPROXY_TARGET_PATH", "/"),
		RootURI:       getenv("RECPROXY_ROOT_URI", "https://www.youtube.com/"),
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Registry: RegistryConfig{
			BaseURL: os.Getenv("CONSENT_REGISTRY_URL"),
			Timeout: 10 * time.Second,
		},
		Matchmaker: MatchmakerConfig{
			BaseURL: os.Getenv("RECPROXY_MATCHMAKER_URL"),
			Timeout: 5 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: getenv("AUDIT_KAFKA_TOPIC", "recproxy.audit"),
		},
		ConsentBypass: os.Getenv("RECPROXY_CONSENT_BYPASS") == "true",
	}
	if origins := os.Getenv("RECPROXY_CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
