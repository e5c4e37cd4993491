package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Weather  WeatherConfig
	Gemini   GeminiConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	// DSN for the sqlite driver; ":memory:" keeps everything in-process.
	DSN string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	HistoryTTL   time.Duration
	HistoryLimit int
}

type WeatherConfig struct {
	APIKey     string
	BaseURL    string
	GeocodeURL string
	Timeout    time.Duration
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

func LoadConfig() *Config {
	// Missing .env is fine in production, the environment is already set.
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTP: HTTPConfig{
			Port:         getEnvInt("PORT", 8000),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", "file:data/chatbot.db?_pragma=busy_timeout(5000)"),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			HistoryTTL:   getEnvDuration("CONVERSATION_HISTORY_TTL", 24*time.Hour),
			HistoryLimit: getEnvInt("CONVERSATION_HISTORY_LIMIT", 50),
		},
		Weather: WeatherConfig{
			APIKey:     os.Getenv("OPENWEATHER_API_KEY"),
			BaseURL:    getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			GeocodeURL: getEnv("OPENWEATHER_GEOCODE_URL", "http://api.openweathermap.org/geo/1.0/direct"),
			Timeout:    getEnvDuration("WEATHER_TIMEOUT", 10*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:      os.Getenv("GEMINI_API_KEY"),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:   getEnvInt("GEMINI_MAX_TOKENS", 1024),
			Temperature: getEnvFloat("GEMINI_TEMPERATURE", 0.3),
			Timeout:     getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
			MaxRetries:  getEnvInt("GEMINI_MAX_RETRIES", 3),
			RetryDelay:  getEnvDuration("GEMINI_RETRY_DELAY", 1*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
