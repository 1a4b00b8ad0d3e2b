package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pzhukov/medminder/internal/logger"
)

type Config struct {
	TelegramToken  string
	TelegramChatID int64
	GeminiAPIKey   string
	OpenAIAPIKey   string
	Store          StoreConfig
	Redis          RedisConfig
	Reminders      ReminderConfig
	Logger         LoggerConfig
}

type StoreConfig struct {
	Path string
}

type RedisConfig struct {
	Host string
	Port string
}

type ReminderConfig struct {
	LowStockThreshold int
	MaxActivities     int
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
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

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: chatID,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		Store: StoreConfig{
			Path: getEnvOrDefault("STORE_PATH", "data/medminder.db"),
		},
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Reminders: ReminderConfig{
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 3),
			MaxActivities:     getEnvInt("MAX_ACTIVITIES", 50),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}
