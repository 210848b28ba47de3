package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Cors CORS `validate:"required"`

	Postgres Postgres `validate:"required"`

	Redis Redis `validate:"required"`

	Kafka Kafka `validate:"required"`

	Gateway Gateway `validate:"required"`

	Orders Orders `validate:"required"`

	Cache Cache `validate:"required"`
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,gt=0,lte=65535"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type Redis struct {
	Addr     string        `validate:"required,hostname_port"`
	DedupTTL time.Duration `validate:"gt=0"`
}

type Kafka struct {
	Brokers      []string      `validate:"required,min=1,dive,hostname_port"`
	OrdersTopic  string        `validate:"required"`
	BatchTimeout time.Duration `validate:"gte=0"`
}

type Gateway struct {
	BaseURL       string        `validate:"required,url"`
	SecretKey     string        `validate:"required"`
	WebhookSecret string        `validate:"required"`
	Timeout       time.Duration `validate:"gt=0"`
	SuccessURL    string        `validate:"required,url"`
	CancelURL     string        `validate:"required,url"`
}

type Orders struct {
	NumberPrefix string `validate:"required,alphanum"`
	// TaxRate is parsed into a decimal at wiring time, e.g. "0.08".
	TaxRate         string `validate:"required"`
	CreateAttempts  int    `validate:"gte=1"`
	DefaultPageSize int    `validate:"gte=1"`
}

type Cache struct {
	Capacity int           `validate:"gte=1"`
	TTL      time.Duration `validate:"gt=0"`
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Postgres: Postgres{
			Port:     envInt("POSTGRES_PORT", 5432),
			Host:     env("POSTGRES_HOST", "localhost"),
			DBName:   env("POSTGRES_DB", "storefront"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: Redis{
			Addr:     env("REDIS_ADDR", "localhost:6379"),
			DedupTTL: envDuration("REDIS_DEDUP_TTL", 48*time.Hour),
		},

		Kafka: Kafka{
			Brokers:      strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
			OrdersTopic:  env("KAFKA_ORDERS_TOPIC", "order-created"),
			BatchTimeout: envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},

		Gateway: Gateway{
			BaseURL:       env("GATEWAY_BASE_URL", "https://api.gateway.local"),
			SecretKey:     env("GATEWAY_SECRET_KEY", ""),
			WebhookSecret: env("GATEWAY_WEBHOOK_SECRET", ""),
			Timeout:       envDuration("GATEWAY_TIMEOUT", 5*time.Second),
			SuccessURL:    env("GATEWAY_SUCCESS_URL", "http://localhost:3000/order-confirmation"),
			CancelURL:     env("GATEWAY_CANCEL_URL", "http://localhost:3000/checkout?cancelled=true"),
		},

		Orders: Orders{
			NumberPrefix:    env("ORDER_NUMBER_PREFIX", "ATW"),
			TaxRate:         env("ORDER_TAX_RATE", "0.08"),
			CreateAttempts:  envInt("ORDER_CREATE_ATTEMPTS", 3),
			DefaultPageSize: envInt("ORDER_PAGE_SIZE", 10),
		},

		Cache: Cache{
			Capacity: envInt("CACHE_CAPACITY", 1000),
			TTL:      envDuration("CACHE_TTL", 1*time.Minute),
		},
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if len(fallback) == 0 {
		return ""
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
