package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/devasign/devasign/internal/api/provider"
	"github.com/devasign/devasign/pkg/jwtx"
)

type Config struct {
	Issuer   string   // Issuer claim stamped on access tokens (default: devasign-api)
	Audience []string // Optional: audience claim, comma separated in AUTH_AUDIENCE

	Algorithm      string // JWT signing algorithm (RS256, ES256, EdDSA) (default: RS256)
	KeyMode        string // static or ephemeral (default: static)
	PrivateKey     string // Optional: PEM, "\n" escapes allowed
	PrivateKeyFile string // Optional: path to a PEM file, used when PrivateKey is empty
	PublicKey      string // Optional: PEM, derived from the private key when absent
	PublicKeyFile  string // Optional: path to a PEM file, used when PublicKey is empty
	AccessTTL      time.Duration
	RefreshTTL     time.Duration

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	GitHubScopes       []string
	GitHubOAuthURL     string // Optional: GitHub Enterprise base URL for the OAuth pages
	GitHubAPIURL       string // Optional: REST API base URL (default: https://api.github.com)

	DatabaseFile         string        // Path to SQLite database file (default: devasign.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired refresh token sweep (default: 1h)
}

// Production reports whether the instance runs with production settings,
// which currently means Secure cookies.
func (c Config) Production() bool { return c.Env == "prod" }

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "devasign-api"),
		Audience:       splitList(os.Getenv("AUTH_AUDIENCE")),
		Algorithm:      getEnvOrDefault("AUTH_ALGORITHM", jwtx.AlgorithmRS256),
		KeyMode:        getEnvOrDefault("AUTH_KEY_MODE", KeyModeStatic),
		PrivateKey:     os.Getenv("AUTH_PRIVATE_KEY"),
		PrivateKeyFile: os.Getenv("AUTH_PRIVATE_KEY_FILE"),
		PublicKey:      os.Getenv("AUTH_PUBLIC_KEY"),
		PublicKeyFile:  os.Getenv("AUTH_PUBLIC_KEY_FILE"),
		AccessTTL:      getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:     getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
		GitHubScopes:       getEnvListOrDefault("GITHUB_SCOPES", provider.DefaultGitHubScopes),
		GitHubOAuthURL:     os.Getenv("GITHUB_OAUTH_URL"),
		GitHubAPIURL:       os.Getenv("GITHUB_API_URL"),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "devasign.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	if list := splitList(os.Getenv(key)); len(list) > 0 {
		return list
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
