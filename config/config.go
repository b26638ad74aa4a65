package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config carries everything the gateway needs at startup. Signing material is
// validated here: a process without a usable signing key must not start.
type Config struct {
	Port        string
	MetricsPort string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Token signing. RSA is preferred when a private key is configured;
	// the HMAC secret serves the legacy/internal flow.
	JWTSecret        string
	RSAPrivateKeyPEM string
	RSAKeyID         string

	TokenIssuer   string
	TokenAudience []string

	AdminEmails []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	QQClientID     string
	QQClientSecret string
	QQRedirectURL  string

	// Hostnames the post-login redirect target may point at.
	RedirectAllowlist []string
}

func LoadConfig() (*Config, error) {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		JWTSecret:        os.Getenv("JWT_SECRET"),
		RSAPrivateKeyPEM: os.Getenv("JWT_RSA_PRIVATE_KEY"),
		RSAKeyID:         getEnv("JWT_RSA_KEY_ID", "portal-1"),

		TokenIssuer:   getEnv("TOKEN_ISSUER", "portalauth"),
		TokenAudience: splitList(getEnv("TOKEN_AUDIENCE", "portal")),

		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		QQClientID:     os.Getenv("QQ_CLIENT_ID"),
		QQClientSecret: os.Getenv("QQ_CLIENT_SECRET"),
		QQRedirectURL:  os.Getenv("QQ_REDIRECT_URL"),

		RedirectAllowlist: splitList(os.Getenv("REDIRECT_ALLOWLIST")),
	}

	if cfg.JWTSecret == "" && cfg.RSAPrivateKeyPEM == "" {
		return nil, errors.New("config: no token signing material (set JWT_SECRET or JWT_RSA_PRIVATE_KEY)")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
