// Package config builds runtime configuration from environment variables so
// main stays lean. Absent optional backends (Postgres, Redis, Kafka) leave
// their URL empty and the wiring falls back to in-process substitutes.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the whole deployment configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// RegistrarRole is the role claim granting land-authority operations.
	RegistrarRole string
	// UnfreezePolicy selects the dispute unfreeze rule: strict or
	// dispute_only.
	UnfreezePolicy string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig configures the optional read cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the optional event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:           envOr("BHOOMI_ADDR", ":8080"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RegistrarRole:  envOr("REGISTRAR_ROLE", "land_authority"),
		UnfreezePolicy: envOr("UNFREEZE_POLICY", "strict"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("RECORD_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("KAFKA_TOPIC", "bhoomi.registry.events"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
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
