package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

// Config holds all configuration for the storefront service. Everything comes
// from the environment; a .env file is loaded first when present.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DBShards []DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Gateway  GatewayConfig
	Reward   RewardConfig

	JWTSecret        string
	FeaturedCacheTTL time.Duration
	RateLimit        float64
	RateBurst        int
}

type DBConfig struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a go-sql-driver/mysql data source name.
func (c DBConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Pass
	cfg.Net = "tcp"
	cfg.Addr = c.Host + ":" + c.Port
	cfg.DBName = c.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers     []string
	OrderTopic  string
	RewardTopic string
	RewardGroup string
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type GatewayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
	Timeout   time.Duration
}

type RewardConfig struct {
	Threshold       entity.Money
	DiscountPercent int
	CouponValidity  time.Duration
	ReissueInactive bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	threshold, err := getEnvAsMoney("REWARD_THRESHOLD", "3000")
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: REWARD_THRESHOLD: %w", err)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8082"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DBShards: loadShards(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvAsSlice("KAFKA_BROKERS", nil),
			OrderTopic:  getEnv("KAFKA_ORDER_TOPIC", "order-topic"),
			RewardTopic: getEnv("KAFKA_REWARD_TOPIC", "checkout-reward-topic"),
			RewardGroup: getEnv("KAFKA_REWARD_GROUP", "coupon-issuer-group"),
		},
		Gateway: GatewayConfig{
			BaseURL:   getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:     os.Getenv("GATEWAY_KEY_ID"),
			KeySecret: os.Getenv("GATEWAY_KEY_SECRET"),
			Currency:  getEnv("GATEWAY_CURRENCY", "INR"),
			Timeout:   getEnvAsDuration("GATEWAY_TIMEOUT", 5*time.Second),
		},
		Reward: RewardConfig{
			Threshold:       threshold,
			DiscountPercent: getEnvAsInt("REWARD_DISCOUNT_PERCENT", 10),
			CouponValidity:  getEnvAsDuration("COUPON_VALIDITY", 30*24*time.Hour),
			ReissueInactive: getEnvAsBool("COUPON_REISSUE_INACTIVE", true),
		},
		JWTSecret:        os.Getenv("JWT_SECRET"),
		FeaturedCacheTTL: getEnvAsDuration("FEATURED_CACHE_TTL", 0),
		RateLimit:        getEnvAsFloat("RATE_LIMIT", 10),
		RateBurst:        getEnvAsInt("RATE_BURST", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.DBShards) == 0 {
		return fmt.Errorf("at least one database shard must be configured")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Gateway.KeyID == "" || c.Gateway.KeySecret == "" {
		return fmt.Errorf("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.Reward.DiscountPercent < 0 || c.Reward.DiscountPercent > 100 {
		return fmt.Errorf("REWARD_DISCOUNT_PERCENT must be between 0 and 100")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// loadShards reads DB1_*, DB2_*, ... until a shard has no host. With no
// DB1_HOST set a single local shard is assumed.
func loadShards() []DBConfig {
	var shards []DBConfig
	for i := 1; ; i++ {
		prefix := fmt.Sprintf("DB%d_", i)
		host := os.Getenv(prefix + "HOST")
		if host == "" {
			break
		}
		shards = append(shards, DBConfig{
			Host: host,
			Port: getEnv(prefix+"PORT", "3306"),
			User: getEnv(prefix+"USER", "root"),
			Pass: os.Getenv(prefix + "PASS"),
			Name: getEnv(prefix+"NAME", "storefront"),
		})
	}
	if len(shards) == 0 {
		shards = append(shards, DBConfig{Host: "127.0.0.1", Port: "3306", User: "root", Name: "storefront"})
	}
	return shards
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvAsMoney(key, defaultValue string) (entity.Money, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return 0, err
	}
	return entity.MoneyFromMajor(d)
}
