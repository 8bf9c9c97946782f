package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Env           string
	Port          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	BcryptCost    int
	CORSOrigins   []string
}

// Production reports whether the service runs in production mode.
// It controls the Secure attribute on session cookies and the log format.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func Load() *Config {
	// Local development keeps settings in a .env file; a missing file is fine.
	_ = godotenv.Load()

	return &Config{
		Env:           getenv("APP_ENV", "development"),
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		SessionTTL:    getduration("SESSION_TTL", 30*24*time.Hour),
		BcryptCost:    getint("BCRYPT_COST", bcrypt.DefaultCost),
		CORSOrigins:   getlist("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getlist(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
