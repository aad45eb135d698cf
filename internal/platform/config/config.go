package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the Postgres-backed stores when set; the service
	// runs entirely on memory stores otherwise.
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	// PaymentProviderURL is the external authorize/charge endpoint for
	// money donations. Empty disables money donations.
	PaymentProviderURL string
	PaymentTimeout     time.Duration

	// Per-user request budgets, counted over a one-minute sliding window.
	APIRateLimit     int
	MessageRateLimit int
}

// RedisConfig configures the cross-node fan-out bridge.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the lifecycle audit publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FOODBRIDGE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "foodbridge.donation.lifecycle"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	return Server{
		Addr:               addr,
		JWTSigningKey:      jwtSigningKey,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		PaymentProviderURL: os.Getenv("PAYMENT_PROVIDER_URL"),
		PaymentTimeout:     envDuration("PAYMENT_TIMEOUT_SECONDS", 10*time.Second),
		APIRateLimit:       envInt("API_RATE_LIMIT_PER_MINUTE", 300),
		MessageRateLimit:   envInt("MESSAGE_RATE_LIMIT_PER_MINUTE", 60),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT_SECONDS", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT_SECONDS", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT_SECONDS", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
