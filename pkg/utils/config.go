package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// LoadDotenv pulls a .env file into the environment if one exists.
// Missing files are fine; real deployments set env vars directly.
func LoadDotenv() {
	_ = godotenv.Load()
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MOVIETRACKER_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("MOVIETRACKER_JWT_ISSUER")
	if issuer == "" {
		issuer = "movietracker"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("MOVIETRACKER_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

func LoadServerConfig() ServerConfig {
	addr := os.Getenv("MOVIETRACKER_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	origins := []string{"*"}
	if o := os.Getenv("MOVIETRACKER_CORS_ORIGINS"); o != "" {
		origins = []string{o}
	}

	return ServerConfig{Addr: addr, CORSOrigins: origins}
}
