package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config holds the service settings read from the environment
type Config struct {
	Port            string
	MongoURI        string
	MongoDatabase   string
	StoreDriver     string
	RedisAddr       string
	ProductCacheTTL time.Duration
	LogLevel        string
	LogFormat       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	OTLPEndpoint    string
}

// LoadEnv loads a .env file into the environment if one exists.
// It reports whether a file was loaded.
func LoadEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// LoadConfig reads the configuration from environment variables
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8000"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "ecommerce"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMongo)),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "json")),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.ProductCacheTTL, err = getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}
