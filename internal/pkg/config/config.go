package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
}

// OAuthConfig holds the Google OIDC client settings used for federated login.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURL        string
}

// EvaluationConfig controls the AI scoring delegate.
type EvaluationConfig struct {
	GeminiAPIKey  string
	Model         string
	Timeout       time.Duration
	PassThreshold int
}

// S3Config holds credentials and bucket for pitch-deck storage.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string // optional, for MinIO in local dev
}

type Config struct {
	Repositories  RepositoriesConfig
	JWT           JWTConfig
	OAuth         OAuthConfig
	Evaluation    EvaluationConfig
	S3            S3Config
	ServerPort    string
	SessionSecret string
	ShutdownGrace time.Duration
	PprofAddr     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "convoca"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		JWT: JWTConfig{
			SecretKey:       getEnvOrDefault("JWT_SECRET_KEY", ""),
			AccessTokenTTL:  getDurationOrDefault("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTokenTTL: getDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:          getEnvOrDefault("JWT_ISSUER", "convoca"),
			Audience:        getEnvOrDefault("JWT_AUDIENCE", "convoca-app"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:        getEnvOrDefault("OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/callback"),
		},
		Evaluation: EvaluationConfig{
			GeminiAPIKey:  getEnvOrDefault("GEMINI_API_KEY", ""),
			Model:         getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:       getDurationOrDefault("EVALUATION_TIMEOUT", 60*time.Second),
			PassThreshold: getIntOrDefault("EVALUATION_PASS_THRESHOLD", 70),
		},
		S3: S3Config{
			Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
			Bucket:    getEnvOrDefault("S3_BUCKET", "convoca-documents"),
			AccessKey: getEnvOrDefault("S3_ACCESS_KEY", ""),
			SecretKey: getEnvOrDefault("S3_SECRET_KEY", ""),
			Endpoint:  getEnvOrDefault("S3_ENDPOINT", ""),
		},
		ServerPort:    getEnvOrDefault("SERVER_PORT", "8080"),
		SessionSecret: getEnvOrDefault("SESSION_SECRET", ""),
		ShutdownGrace: getDurationOrDefault("SHUTDOWN_GRACE", 5*time.Second),
		PprofAddr:     getEnvOrDefault("PPROF_ADDR", ":6060"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
