package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the registry needs from its environment.
type Config struct {
	Addr            string
	PostgresDSN     string
	RedisAddr       string
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	DocumentDir     string
	BootstrapAdmin  string
	VerifyCacheSize int
	VerifyCacheTTL  time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getEnv("DEEDLEDGER_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("DEEDLEDGER_POSTGRES_DSN"),
		RedisAddr:       os.Getenv("DEEDLEDGER_REDIS_ADDR"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       getEnv("JWT_ISSUER", "deedledger"),
		TokenTTL:        getDuration("TOKEN_TTL", time.Hour),
		DocumentDir:     getEnv("DOCUMENT_DIR", "documents"),
		BootstrapAdmin:  getEnv("BOOTSTRAP_ADMIN", "registrar"),
		VerifyCacheSize: 512,
		VerifyCacheTTL:  getDuration("VERIFY_CACHE_TTL", time.Minute),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
