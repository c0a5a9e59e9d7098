package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIURL = "http://localhost:3001/api"

type Config struct {
	// Backend
	APIURL         string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	// Session
	SessionBackend string
	SessionDBPath  string

	// Pipeline
	DebounceWindow       time.Duration
	AlertDuration        time.Duration
	DashboardPageSize    int
	TransactionsPageSize int
	ExportDir            string

	LogLevel string
}

func Load() *Config {
	return &Config{
		APIURL:         strings.TrimRight(getEnv("API_URL", DefaultAPIURL), "/"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		SessionBackend: getEnv("SESSION_BACKEND", "sqlite"),
		SessionDBPath:  getEnv("SESSION_DB_PATH", "./data/findash.db"),

		DebounceWindow:       getEnvDuration("DEBOUNCE_WINDOW", 300*time.Millisecond),
		AlertDuration:        getEnvDuration("ALERT_DURATION", 6*time.Second),
		DashboardPageSize:    getEnvInt("DASHBOARD_PAGE_SIZE", 10),
		TransactionsPageSize: getEnvInt("TRANSACTIONS_PAGE_SIZE", 20),
		ExportDir:            getEnv("EXPORT_DIR", "."),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate backend URL
	if c.APIURL == "" {
		errors = append(errors, "API URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
	}

	if c.RequestTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 100ms", c.RequestTimeout))
	}

	if c.RateLimitRPS < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must not be negative", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	// Validate session backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.SessionBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validBackends))
	}
	if c.SessionBackend == "sqlite" && c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty when using sqlite backend")
	}

	if c.DebounceWindow < 0 || c.DebounceWindow > 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid debounce window %v: must be between 0 and 10s", c.DebounceWindow))
	}
	if c.AlertDuration < time.Second {
		errors = append(errors, fmt.Sprintf("invalid alert duration %v: must be at least 1 second", c.AlertDuration))
	}

	for name, size := range map[string]int{"dashboard": c.DashboardPageSize, "transactions": c.TransactionsPageSize} {
		if size < 1 || size > 100 {
			errors = append(errors, fmt.Sprintf("invalid %s page size %d: must be between 1 and 100", name, size))
		}
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
