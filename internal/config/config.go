package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"watchfolio-be/internal/constant"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Retrieval RetrievalConfig
	Assistant AssistantConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InteractionTopic   string
}

type DatabaseConfig struct {
	Connection string
}

type RetrievalConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

type AssistantConfig struct {
	DebounceDelay  time.Duration
	RevealInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			InteractionTopic:   getEnv("INTERACTION_TOPIC_NAME", constant.InteractionTopic),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Retrieval: RetrievalConfig{
			BaseURL:  getEnv("RETRIEVAL_BASE_URL", "http://localhost:8000"),
			CacheTTL: getEnvAsDuration("RETRIEVAL_CACHE_TTL", 10*time.Minute),
		},
		Assistant: AssistantConfig{
			DebounceDelay:  getEnvAsDuration("ASSISTANT_DEBOUNCE_DELAY", time.Second),
			RevealInterval: getEnvAsDuration("ASSISTANT_REVEAL_INTERVAL", 5*time.Millisecond),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
