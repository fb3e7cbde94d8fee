package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/accountd/pkg/httpx"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	GRPCPort            int           // gRPC server port, 0 disables it (default: 9090)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite database file (default: ./accountd.db)
	DatabaseURL    string // Postgres connection string, required for the postgres driver

	ActivationLinkBase string // Page the activation parameters are appended to
	MobileRegion       string // Default region for mobile numbers without a country code (default: CN)

	// AdminAccounts lists the account ids holding the account:admin power.
	AdminAccounts []string

	SMTPAddr     string // host:port of the mail relay; empty logs mails instead of sending
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string // Sender address (default: no-reply@localhost)

	SMTPRequireTLS bool // Refuse relays that do not offer STARTTLS (default: false)
}

func LoadConfig() Config {
	return Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		GRPCPort:            getEnvIntOrDefault("GRPC_PORT", 9090),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "accountd.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		ActivationLinkBase: os.Getenv("ACTIVATION_LINK_BASE"), // Empty uses the service default
		MobileRegion:       getEnvOrDefault("MOBILE_REGION", "CN"),
		AdminAccounts:      httpx.ParseListField(os.Getenv("ADMIN_ACCOUNTS")),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),

		SMTPRequireTLS: getEnvBoolOrDefault("SMTP_REQUIRE_TLS", false),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
