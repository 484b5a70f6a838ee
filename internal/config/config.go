package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	ServiceName string
	Env         string
	Addr        string

	// AdminUserID is the recipient of administrative order notifications.
	AdminUserID string

	// Storage selects the backing store: "postgres" or "memory".
	Storage string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	GatewayLatency     time.Duration
	GatewayDeclineRate float64
}

func Load() Config {
	return Config{
		ServiceName: getenv("SERVICE_NAME", "shopcore"),
		Env:         getenv("ENV", "dev"),
		Addr:        getenv("HTTP_ADDR", ":8080"),
		AdminUserID: getenv("ADMIN_USER_ID", "admin"),
		Storage:     getenv("STORAGE", "postgres"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USERNAME", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_DATABASE", "shopcore"),

		GatewayLatency:     getenvDuration("GATEWAY_LATENCY", time.Second),
		GatewayDeclineRate: getenvFloat("GATEWAY_DECLINE_RATE", 0.05),
	}
}

// DSN builds the postgres connection string for the pgx stdlib driver.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
