package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string

	JWTSecret string
	JWTIssuer string

	NotifyURL    string
	NotifyAPIKey string

	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %s", err)
	}

	return Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		HTTPAddr:             envOr("HTTP_ADDR", ":8080"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTIssuer:            envOr("JWT_ISSUER", "authd"),
		NotifyURL:            os.Getenv("NOTIFY_URL"),
		NotifyAPIKey:         os.Getenv("NOTIFY_API_KEY"),
		AccessTokenTTL:       envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:      envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		VerificationTokenTTL: envDuration("VERIFICATION_TOKEN_TTL", 15*time.Minute),
		ResetTokenTTL:        envDuration("RESET_TOKEN_TTL", 30*time.Minute),
	}
}

func envOr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s: %s", key, err)
		return fallback
	}
	return parsed
}
