package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds MySQL connection settings.
// DSN carries the server address and database name (for example
// "tcp(localhost:3306)/bookshelf"); User and Password are kept separate
// so credentials never need to be embedded in the DSN value itself.
type DatabaseConfig struct {
	DSN      string
	User     string
	Password string
}

// MinIOConfig holds object storage settings for book cover images.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	PageSize int
	MinIO    MinIOConfig
}

// Load reads application configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
//
// Database settings are deliberately not part of the result: they are
// re-read on every connection open via LoadDatabase.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		PageSize: getEnvInt("PAGE_SIZE", 10),
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "covers"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// LoadDatabase reads the MySQL settings fresh from the environment.
// Called once per connection open, so changes to the environment are
// observed by the next operation. No defaults: all three values are
// required and validated at connect time.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		DSN:      os.Getenv("MYSQL_DSN"),
		User:     os.Getenv("MYSQL_USER"),
		Password: os.Getenv("MYSQL_PASSWORD"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
