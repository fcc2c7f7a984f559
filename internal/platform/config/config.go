package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	id "synapse/pkg/domain"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Environment    string
	AdminAPIToken  string
	JWT            JWTConfig
	DatabaseURL    string
	Redis          RedisConfig
	Kafka          KafkaConfig
	Marketplace    MarketplaceConfig
	ShutdownPeriod time.Duration
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// RedisConfig configures the plan cache and the shared revocation list.
// An empty URL disables both.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
	// ConsumerGroup enables the plan event subscriber when set.
	ConsumerGroup string
}

// MarketplaceConfig seeds the marketplace at startup when Admin is set.
type MarketplaceConfig struct {
	Admin        id.AccountID
	Operator     id.AccountID
	SharePct     uint32
	PaymentAsset id.AssetRef
}

// Enabled reports whether startup initialization was requested.
func (m MarketplaceConfig) Enabled() bool {
	return !m.Admin.IsNil()
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("SYNAPSE_ADDR", ":8080"),
		Environment:   getEnv("SYNAPSE_ENV", "local"),
		AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", devSigningKey),
			Issuer:     getEnv("JWT_ISSUER", "synapse"),
			Audience:   getEnv("JWT_AUDIENCE", "synapse-api"),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:         getEnv("KAFKA_TOPIC", "synapse.plan-events"),
			ConsumerGroup: os.Getenv("KAFKA_CONSUMER_GROUP"),
		},
		Marketplace: MarketplaceConfig{
			Admin:        id.AccountID(strings.TrimSpace(os.Getenv("SYNAPSE_ADMIN"))),
			Operator:     id.AccountID(strings.TrimSpace(os.Getenv("SYNAPSE_OPERATOR"))),
			PaymentAsset: id.AssetRef(strings.TrimSpace(os.Getenv("SYNAPSE_PAYMENT_ASSET"))),
		},
	}

	var err error
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.RelayInterval, err = getDuration("RELAY_INTERVAL", time.Second); err != nil {
		return Server{}, err
	}
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	share, err := getInt("SYNAPSE_SHARE_PCT", 70)
	if err != nil {
		return Server{}, err
	}
	if share < 0 || share > 100 {
		return Server{}, fmt.Errorf("SYNAPSE_SHARE_PCT must be between 0 and 100, got %d", share)
	}
	cfg.Marketplace.SharePct = uint32(share)

	if cfg.Environment != "local" && cfg.JWT.SigningKey == devSigningKey {
		return Server{}, fmt.Errorf("JWT_SIGNING_KEY must be set outside the local environment")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
