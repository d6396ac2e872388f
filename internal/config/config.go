package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Payments PaymentsConfig
	Storage  StorageConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int
	// PublicBaseURL is the externally reachable prefix used when
	// building approval and invoice view links.
	PublicBaseURL string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	TestDBName string // Separate database for testing
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// PaymentsConfig holds the payment processor configuration
type PaymentsConfig struct {
	WebhookSecret   string
	CheckoutBaseURL string
}

// StorageConfig holds the signature blob storage configuration
type StorageConfig struct {
	Dir     string
	BaseURL string
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from the environment. A .env file
// in the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:          getEnvAsInt("SERVER_PORT", 8080),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "stagebill"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			TestDBName: getEnv("TEST_DB_NAME", "stagebill_test"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-here"),
		},
		Payments: PaymentsConfig{
			WebhookSecret:   getEnv("PAYMENT_WEBHOOK_SECRET", "whsec-dev"),
			CheckoutBaseURL: getEnv("PAYMENT_CHECKOUT_BASE_URL", "https://pay.example.com"),
		},
		Storage: StorageConfig{
			Dir:     getEnv("STORAGE_DIR", "./data/signatures"),
			BaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
