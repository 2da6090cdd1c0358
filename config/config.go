package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisQuoteDB  int    `mapstructure:"REDIS_QUOTE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Supplier protocol client.
	SupplierBaseURL   string        `mapstructure:"SUPPLIER_BASE_URL"`
	SupplierAPIKey    string        `mapstructure:"SUPPLIER_API_KEY"`
	SupplierTimeout   time.Duration `mapstructure:"SUPPLIER_TIMEOUT"`
	SupplierRetries   int           `mapstructure:"SUPPLIER_RETRIES"`
	PriceTolerancePct float64       `mapstructure:"PRICE_TOLERANCE_PCT"`
	QuoteTTL          time.Duration `mapstructure:"QUOTE_TTL"`

	// Poll loop policy for asynchronous booking completion.
	PollAttempts int           `mapstructure:"POLL_ATTEMPTS"`
	PollInterval time.Duration `mapstructure:"POLL_INTERVAL"`
}

var AppConfig Config

// LoadConfig initializes viper to load config values from env, file, or
// defaults, and unmarshals them into AppConfig.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "staygate")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_QUOTE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SUPPLIER_BASE_URL", "https://api.supplier.test/v1")
	viper.SetDefault("SUPPLIER_API_KEY", "")
	viper.SetDefault("SUPPLIER_TIMEOUT", "15s")
	viper.SetDefault("SUPPLIER_RETRIES", 3)
	viper.SetDefault("PRICE_TOLERANCE_PCT", 0.5)
	viper.SetDefault("QUOTE_TTL", "30m")
	viper.SetDefault("POLL_ATTEMPTS", 10)
	viper.SetDefault("POLL_INTERVAL", "2s")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// GetEnv returns the application environment.
func GetEnv() string {
	return AppConfig.Env
}

// IsProduction checks if the environment is production.
func IsProduction() bool {
	return GetEnv() == "production"
}
