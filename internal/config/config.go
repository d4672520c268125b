package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAllowedOrigins are the frontends allowed to call the API.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://flowerama226.netlify.app",
}

// Config holds application runtime configuration.
type Config struct {
	Env             string
	HTTPPort        string
	PlannedXLSX     string
	OverridesFile   string
	DatabaseURL     string
	AllowedOrigins  []string
	RateLimit       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("PORT", "3001"),
		PlannedXLSX:     getEnv("PLANNED_XLSX", "VD2026.xlsx"),
		OverridesFile:   getEnv("OVERRIDES_FILE", "planned-overrides.json"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AllowedOrigins:  getList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),
		RateLimit:       getInt("RATE_LIMIT_PER_MINUTE", 200),
		ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if port, err := strconv.Atoi(cfg.HTTPPort); err != nil || port <= 0 || port > 65535 {
		return cfg, fmt.Errorf("PORT must be a TCP port number, got %q", cfg.HTTPPort)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
