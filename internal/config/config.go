package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config collects all runtime settings. Values come from environment
// variables with sensible local-development defaults; a .env file in the
// working directory is loaded first if present.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	KafkaBrokers string
	OrderTopic   string

	AuthPublicKeyPath string

	InventoryURL     string
	InventoryEnabled bool

	SeedCount int
}

func Load() *Config {
	// Ignore a missing .env; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("ORDER_SERVICE_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "orderservice"),
		DBPassword: getEnv("DB_PASSWORD", "orderservice"),
		DBName:     getEnv("DB_NAME", "orders"),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		OrderTopic:   getEnv("ORDER_TOPIC", "order.accepted"),

		AuthPublicKeyPath: getEnv("AUTH_PUBLIC_KEY_PATH", "jwt_public_key.pem"),

		InventoryURL:     getEnv("INVENTORY_URL", "http://inventory-microservice-svc"),
		InventoryEnabled: getEnvBool("INVENTORY_ENABLED", false),

		SeedCount: getEnvInt("SEED_ORDER_COUNT", 10),
	}
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
