package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries everything the service reads from the environment. Absent
// or malformed values fall back to safe defaults; nothing here is allowed to
// stop the pipeline from starting.
type Config struct {
	HTTPPort        string
	Environment     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	RedisAddr    string
	KafkaBrokers []string
	NotifyTopic  string
	GeocoderURL  string

	SquareEnv           string
	SquareAccessToken   string
	SquareLocationID    string
	WebhookSignatureKey string

	StoreZip              string
	DeliveryFeeTiers      string
	FreeDeliveryThreshold decimal.Decimal
	OrderNotifyEmail      string
	SyncDefaultStock      int
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "auntiejummys"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		NotifyTopic:  getEnv("NOTIFY_TOPIC", "shop-notifications"),
		GeocoderURL:  getEnv("GEOCODER_URL", "https://api.zippopotam.us"),

		SquareEnv:           getEnv("SQUARE_ENV", "sandbox"),
		SquareAccessToken:   getEnv("SQUARE_ACCESS_TOKEN", ""),
		SquareLocationID:    getEnv("SQUARE_LOCATION_ID", ""),
		WebhookSignatureKey: getEnv("SQUARE_WEBHOOK_SIGNATURE_KEY", ""),

		StoreZip:              getEnv("STORE_ZIP", "46112"),
		DeliveryFeeTiers:      getEnv("DELIVERY_FEE_TIERS", "5:3,10:5,999:8"),
		FreeDeliveryThreshold: getEnvDecimal("FREE_DELIVERY_THRESHOLD", decimal.Zero),
		OrderNotifyEmail:      getEnv("ORDER_NOTIFY_EMAIL", "orders@auntiejummys.com"),
		SyncDefaultStock:      getEnvInt("SYNC_DEFAULT_STOCK", 50),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
