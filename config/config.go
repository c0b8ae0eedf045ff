package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "kingice-dev-secret-change-me"

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DBMaxOpenConns     int
	DBConnMaxIdleTime  time.Duration
	Port               string
	GoEnv              string
	FrontendURL        string
	StaticDir          string
	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTIssuer          string
	JWTAudience        string
	AdminUsername      string
	AdminEmail         string
	AdminPassword      string
	NodeID             int64
	KafkaBrokers       []string
	KafkaOrderTopic    string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	RateLimitPerMinute int
	LogLevel           string
	LogFile            string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production the variables are injected by the host
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 20),
		DBConnMaxIdleTime:  getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second),
		Port:               getEnv("PORT", "4000"),
		GoEnv:              getEnv("GO_ENV", "development"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		StaticDir:          getEnv("STATIC_DIR", "../frontend"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiresIn:       getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		JWTIssuer:          getEnv("JWT_ISSUER", "kingice-api"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "kingice-admin"),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		NodeID:             int64(getEnvInt("NODE_ID", 1)),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaOrderTopic:    getEnv("KAFKA_ORDER_TOPIC", "orders.events"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 200),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = databaseURLFromParts()
	}

	// The development secret is only acceptable outside production
	if config.JWTSecret == "" && !config.IsProduction() {
		config.JWTSecret = defaultJWTSecret
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed in production")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023, got %d", c.NodeID)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// KafkaEnabled reports whether order events should be published to Kafka
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// S3Enabled reports whether product images can be uploaded
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// databaseURLFromParts builds a connection string from the individual DB_* variables
func databaseURLFromParts() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "kingicegold"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
