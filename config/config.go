package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Log        LogConfig
	Queue      QueueConfig
	Worker     WorkerConfig
	Settlement SettlementConfig
	Webhook    WebhookConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port             string
	Env              string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	WorkersInProcess bool
}

type DatabaseConfig struct {
	Driver          string // mysql or sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

type LogConfig struct {
	Level  string
	Format string // text or json
}

type QueueConfig struct {
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
}

type WorkerConfig struct {
	Concurrency int
}

// SettlementConfig drives the simulated payment network.
type SettlementConfig struct {
	TestMode        bool
	ProcessingDelay time.Duration
	// ForcedOutcome is "true", "false" or empty. Only honoured in test mode.
	ForcedOutcome   string
	UPISuccessRate  float64
	CardSuccessRate float64
	RefundDelay     time.Duration
}

type WebhookConfig struct {
	Timeout       time.Duration
	TestIntervals bool
	MaxAttempts   int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("WORKERS_IN_PROCESS", false)

	v.SetDefault("DATABASE_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "payflow:payflow@tcp(localhost:3306)/payflow?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 50)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", time.Hour)

	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY", 12*time.Hour)
	v.SetDefault("JWT_ISSUER", "payflow")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("QUEUE_POLL_INTERVAL", 500*time.Millisecond)
	v.SetDefault("QUEUE_VISIBILITY_TIMEOUT", 2*time.Minute)
	v.SetDefault("QUEUE_MAX_ATTEMPTS", 3)
	v.SetDefault("QUEUE_RETRY_DELAY", 5*time.Second)

	v.SetDefault("WORKER_CONCURRENCY", 2)

	v.SetDefault("TEST_MODE", false)
	v.SetDefault("TEST_PROCESSING_DELAY", 1000) // milliseconds
	v.SetDefault("TEST_PAYMENT_SUCCESS", "")
	v.SetDefault("UPI_SUCCESS_RATE", 0.95)
	v.SetDefault("CARD_SUCCESS_RATE", 0.90)
	v.SetDefault("REFUND_PROCESSING_DELAY", 2*time.Second)

	v.SetDefault("WEBHOOK_TIMEOUT", 5*time.Second)
	v.SetDefault("WEBHOOK_RETRY_INTERVALS_TEST", false)
	v.SetDefault("WEBHOOK_MAX_ATTEMPTS", 5)

	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
}

// Load reads an optional .env file, then the environment. Missing keys fall back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:             v.GetString("PORT"),
			Env:              v.GetString("APP_ENV"),
			ReadTimeout:      v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:     v.GetDuration("SERVER_WRITE_TIMEOUT"),
			WorkersInProcess: v.GetBool("WORKERS_IN_PROCESS"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DATABASE_DRIVER"),
			DSN:             v.GetString("DATABASE_DSN"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetDuration("JWT_EXPIRY"),
			Issuer:       v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Queue: QueueConfig{
			PollInterval:      v.GetDuration("QUEUE_POLL_INTERVAL"),
			VisibilityTimeout: v.GetDuration("QUEUE_VISIBILITY_TIMEOUT"),
			MaxAttempts:       v.GetInt("QUEUE_MAX_ATTEMPTS"),
			RetryDelay:        v.GetDuration("QUEUE_RETRY_DELAY"),
		},
		Worker: WorkerConfig{
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
		Settlement: SettlementConfig{
			TestMode:        v.GetBool("TEST_MODE"),
			ProcessingDelay: time.Duration(v.GetInt("TEST_PROCESSING_DELAY")) * time.Millisecond,
			ForcedOutcome:   v.GetString("TEST_PAYMENT_SUCCESS"),
			UPISuccessRate:  v.GetFloat64("UPI_SUCCESS_RATE"),
			CardSuccessRate: v.GetFloat64("CARD_SUCCESS_RATE"),
			RefundDelay:     v.GetDuration("REFUND_PROCESSING_DELAY"),
		},
		Webhook: WebhookConfig{
			Timeout:       v.GetDuration("WEBHOOK_TIMEOUT"),
			TestIntervals: v.GetBool("WEBHOOK_RETRY_INTERVALS_TEST"),
			MaxAttempts:   v.GetInt("WEBHOOK_MAX_ATTEMPTS"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}
}
