package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Coaching CoachingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	HuggingFace string
}

type AIConfig struct {
	OllamaBaseURL string
	LLMProvider   string // "ollama" or "huggingface"
	LLMModel      string // e.g. "llama3", "qwen2.5"
}

type CoachingConfig struct {
	LLMModel string // per-turn model override, empty uses Ai.LLMModel
	// DispatchAtomic runs each dispatch call in one transaction.
	DispatchAtomic   bool
	LockTTL          time.Duration
	LockWait         time.Duration
	DirectiveTTL     time.Duration
	AuditTopic       string
	AuditForwardNats bool
	StoreDriver      string // "postgres" or "memory"
	UseRedisLock     bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/coaching_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
		},
		Coaching: CoachingConfig{
			LLMModel:         getEnv("COACHING_LLM_MODEL", ""),
			DispatchAtomic:   getEnvAsBool("COACHING_DISPATCH_ATOMIC", true),
			LockTTL:          getEnvAsDuration("COACHING_LOCK_TTL", 30*time.Second),
			LockWait:         getEnvAsDuration("COACHING_LOCK_WAIT", 10*time.Second),
			DirectiveTTL:     getEnvAsDuration("COACHING_DIRECTIVE_TTL", time.Hour),
			AuditTopic:       getEnv("COACHING_AUDIT_TOPIC", "COACHING_ACTION"),
			AuditForwardNats: getEnvAsBool("COACHING_AUDIT_FORWARD_NATS", false),
			StoreDriver:      getEnv("COACHING_STORE_DRIVER", "postgres"),
			UseRedisLock:     getEnvAsBool("COACHING_REDIS_LOCK", true),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds := getEnvAsInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
