// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port        int
	BaseURL     string
	ReadTimeout time.Duration
	// WriteTimeout must stay 0 by default: the stream proxy relays
	// long-lived transfers that a write deadline would cut short.
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Fetch settings
	FetchTimeout time.Duration
	MaxRedirects int
	UserAgent    string

	// Upstream proxy routing (http, https, socks5)
	GlobalProxy string

	// Domains that need a browser-like TLS fingerprint
	UTLSDomains []string

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads configuration from environment variables with sensible defaults.
// A local .env file is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnvInt("PORT", 10000)
	return &Config{
		Port:         port,
		BaseURL:      getEnvString("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 0),
		IdleTimeout:  getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 25*time.Second),
		MaxRedirects: getEnvInt("MAX_REDIRECTS", 10),
		UserAgent:    getEnvString("USER_AGENT", ""),
		GlobalProxy:  os.Getenv("GLOBAL_PROXY"),
		UTLSDomains:  getEnvStringSlice("UTLS_DOMAINS", nil),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),
		LogJSON:      getEnvBool("LOG_JSON", false),
	}
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Try parsing as seconds first
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}
