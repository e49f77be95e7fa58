package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

type ServerConfig struct {
	Port        string
	CORSOrigins string
}

type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	DSN             string
	AutoMigrate     bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
}

type ClientConfig struct {
	BaseURL         string
	RefreshInterval time.Duration
	Timeout         time.Duration
}

type Config struct {
	Production bool
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Client     ClientConfig
}

// Load builds the application configuration from the environment.
func Load() (*Config, error) {
	dsn, err := databaseDSN()
	if err != nil {
		return nil, err
	}

	driver := GetEnv("DB_DRIVER", "postgres")
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if driver == "sqlite" && os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_DSN") == "" {
		dsn = GetEnv("SQLITE_PATH", "history.db")
	}

	return &Config{
		Production: IsProduction(),
		Server: ServerConfig{
			Port:        GetEnv("PORT", "3000"),
			CORSOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             dsn,
			AutoMigrate:     GetBoolEnv("DB_AUTO_MIGRATE", false),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", ""),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Max:        GetIntEnv("RATE_LIMIT_MAX", 60),
			Expiration: GetDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		},
		Client: ClientConfig{
			BaseURL:         strings.TrimRight(GetEnv("HISTORY_BASE_URL", "http://localhost:3000"), "/"),
			RefreshInterval: GetDurationEnv("HISTORY_REFRESH_INTERVAL", 15*time.Second),
			Timeout:         GetDurationEnv("HISTORY_CLIENT_TIMEOUT", 10*time.Second),
		},
	}, nil
}

// databaseDSN prefers DATABASE_URL, then DB_DSN, then the discrete DB_* variables.
func databaseDSN() (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		dsn, err := pq.ParseURL(url)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		return dsn, nil
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn, nil
	}

	return "host=" + GetEnv("DB_HOST", "localhost") +
		" user=" + GetEnv("DB_USER", "postgres") +
		" password=" + GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + GetEnv("DB_NAME", "finhistory") +
		" port=" + GetEnv("DB_PORT", "5432") +
		" sslmode=" + GetEnv("DB_SSLMODE", "disable"), nil
}
