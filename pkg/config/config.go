package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Courses    CoursesConfig
	Bookings   BookingsConfig
	Orders     OrdersConfig
	Payments   PaymentsConfig
	GiftCards  GiftCardsConfig
	Statements StatementsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CoursesConfig gates the course/drip-content endpoints.
type CoursesConfig struct {
	Enabled          bool
	ScheduleCacheTTL time.Duration
}

// BookingsConfig governs recurring pattern expansion batches.
type BookingsConfig struct {
	Enabled          bool
	MaxBatchSize     int
	DefaultBatchSize int
}

// OrdersConfig carries the marketplace commission policy.
// CommissionBase selects what the platform cut is computed on: "total"
// charges commission on the full order total even when only a deposit is
// collected, "collected" charges it on the amount actually paid now.
type OrdersConfig struct {
	Enabled        bool
	CommissionRate float64
	CommissionBase string
}

// PaymentsConfig points at the external payment gateway.
type PaymentsConfig struct {
	GatewayURL    string
	APIKey        string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// GiftCardsConfig tunes best-effort gift-card debits at checkout.
type GiftCardsConfig struct {
	Enabled      bool
	DebitWorkers int
	DebitRetries int
	RetryDelay   time.Duration
}

// StatementsConfig gates seller revenue statement exports.
type StatementsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Courses = CoursesConfig{
		Enabled:          v.GetBool("ENABLE_COURSES"),
		ScheduleCacheTTL: parseDuration(v.GetString("COURSE_SCHEDULE_CACHE_TTL"), 10*time.Minute),
	}

	maxBatch := v.GetInt("BOOKING_MAX_BATCH_SIZE")
	if maxBatch <= 0 {
		maxBatch = 100
	}
	cfg.Bookings = BookingsConfig{
		Enabled:          v.GetBool("ENABLE_BOOKINGS"),
		MaxBatchSize:     maxBatch,
		DefaultBatchSize: v.GetInt("BOOKING_DEFAULT_BATCH_SIZE"),
	}

	base := strings.ToLower(v.GetString("COMMISSION_BASE"))
	if base != "collected" {
		base = "total"
	}
	cfg.Orders = OrdersConfig{
		Enabled:        v.GetBool("ENABLE_ORDERS"),
		CommissionRate: v.GetFloat64("COMMISSION_RATE"),
		CommissionBase: base,
	}

	cfg.Payments = PaymentsConfig{
		GatewayURL:    v.GetString("PAYMENT_GATEWAY_URL"),
		APIKey:        v.GetString("PAYMENT_GATEWAY_API_KEY"),
		WebhookSecret: v.GetString("PAYMENT_WEBHOOK_SECRET"),
		Currency:      v.GetString("PAYMENT_CURRENCY"),
		Timeout:       parseDuration(v.GetString("PAYMENT_GATEWAY_TIMEOUT"), 10*time.Second),
	}

	cfg.GiftCards = GiftCardsConfig{
		Enabled:      v.GetBool("ENABLE_GIFT_CARDS"),
		DebitWorkers: v.GetInt("GIFT_CARD_DEBIT_WORKERS"),
		DebitRetries: v.GetInt("GIFT_CARD_DEBIT_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("GIFT_CARD_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Statements = StatementsConfig{
		Enabled: v.GetBool("ENABLE_STATEMENTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "marketplace")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_COURSES", true)
	v.SetDefault("COURSE_SCHEDULE_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_BOOKINGS", true)
	v.SetDefault("BOOKING_MAX_BATCH_SIZE", 100)
	v.SetDefault("BOOKING_DEFAULT_BATCH_SIZE", 20)

	v.SetDefault("ENABLE_ORDERS", true)
	v.SetDefault("COMMISSION_RATE", 0.10)
	v.SetDefault("COMMISSION_BASE", "total")

	v.SetDefault("PAYMENT_GATEWAY_URL", "http://localhost:9090")
	v.SetDefault("PAYMENT_GATEWAY_API_KEY", "dev_gateway_key")
	v.SetDefault("PAYMENT_WEBHOOK_SECRET", "dev_webhook_secret")
	v.SetDefault("PAYMENT_CURRENCY", "USD")
	v.SetDefault("PAYMENT_GATEWAY_TIMEOUT", "10s")

	v.SetDefault("ENABLE_GIFT_CARDS", true)
	v.SetDefault("GIFT_CARD_DEBIT_WORKERS", 1)
	v.SetDefault("GIFT_CARD_DEBIT_RETRIES", 3)
	v.SetDefault("GIFT_CARD_RETRY_DELAY", "5s")

	v.SetDefault("ENABLE_STATEMENTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
