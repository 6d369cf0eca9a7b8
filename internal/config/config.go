package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the whole application configuration.
// Populated from environment variables.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Prefs    PrefsConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

// StoreConfig selects the document store backend feeding the live
// change subscriptions.
type StoreConfig struct {
	Backend string // "redis" or "postgres"
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret             string
	SessionExpiryHours int
}

// UploadConfig carries the client-side image size ceilings. Files are
// rejected before any transfer starts when they exceed these.
type UploadConfig struct {
	MaxProfileImageBytes int64 // avatar / cover images
	MaxPostImageBytes    int64 // post attachments
}

// PrefsConfig points at the local two-key preference file
// (authenticated flag + theme).
type PrefsConfig struct {
	Path string
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Qwitter API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "redis"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "qwitter"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "qwitter"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			SessionExpiryHours: getEnvInt("JWT_SESSION_EXPIRY", 24*30),
		},
		Upload: UploadConfig{
			MaxProfileImageBytes: getEnvInt64("UPLOAD_MAX_PROFILE_BYTES", 1<<20),
			MaxPostImageBytes:    getEnvInt64("UPLOAD_MAX_POST_BYTES", 2<<20),
		},
		Prefs: PrefsConfig{
			Path: getEnv("PREFS_PATH", ".qwitter_prefs"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded config for obvious misconfiguration.
func (c *Config) Validate() error {
	if c.Store.Backend != "redis" && c.Store.Backend != "postgres" {
		return fmt.Errorf("STORE_BACKEND must be redis or postgres, got %q", c.Store.Backend)
	}

	if c.Upload.MaxProfileImageBytes <= 0 || c.Upload.MaxPostImageBytes <= 0 {
		return fmt.Errorf("upload size ceilings must be positive")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Store.Backend == "postgres" && c.Postgres.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
