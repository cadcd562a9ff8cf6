package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Version is reported in webhook user agents and health responses.
const Version = "1.0.0"

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port              string
	BaseURL           string
	DBPath            string
	OpenSearchURL     string
	OpenSearchUser    string
	OpenSearchPass    string
	EnableLogging     bool
	TaxDeductionShare bool
	TaxDeductionKey   string
	AdminKey          string
}

var (
	instance          *Config
	appConfigInstance *AppConfig
)

func App() *Config {
	if instance == nil {
		instance = &Config{
			Validator: validator.New(),
		}
	}
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:              GetEnv("APP_PORT", "9999"),
			BaseURL:           GetEnv("APP_URL", "http://localhost:9999"),
			DBPath:            GetEnv("DB_PATH", "data/donate.db"),
			OpenSearchURL:     GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:    GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:    GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:     GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			TaxDeductionShare: GetBoolEnv("TAX_DEDUCTION_EXPOSE", false),
			TaxDeductionKey:   GetEnv("TAX_DEDUCTION_SECRET", ""),
			AdminKey:          GetEnv("ADMIN_SECRET", ""),
		}
	}
	return appConfigInstance
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
