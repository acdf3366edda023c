package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost             string
	HTTPPort             string
	MySQLDSN             string
	JWTSecret            []byte
	JWTIssuer            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	BcryptCost           int
	FrontendBaseURL      string
	SMTP                 SMTPConfig
	LogLevel             string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	secret, err := decodeSigningKey(jwtSecret)
	if err != nil {
		return nil, err
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		HTTPHost:             getEnv("HTTP_HOST", ""),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		MySQLDSN:             mysqlDSN,
		JWTSecret:            secret,
		JWTIssuer:            getEnv("JWT_ISSUER", "mmm"),
		AccessTokenTTL:       getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:      getDurationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		VerificationTokenTTL: getDurationEnv("VERIFICATION_TOKEN_TTL", 24*time.Hour),
		BcryptCost:           getIntEnv("BCRYPT_COST", 10),
		FrontendBaseURL:      getEnv("FRONTEND_BASE_URL", "http://localhost:8080"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnv("SMTP_PORT", "25"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@mmm.local"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// decodeSigningKey expects a base64url encoded HMAC key of at least
// 256 bits. A weak or malformed key is a startup error, never a
// per-request one.
func decodeSigningKey(encoded string) ([]byte, error) {
	secret, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET must be base64url encoded: %w", err)
	}
	if len(secret) < 32 {
		return nil, errors.New("JWT_SECRET must decode to at least 32 bytes")
	}
	return secret, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
