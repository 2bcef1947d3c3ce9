package config

import (
	"log"
	"os"
	"strconv"

	"paperchat-be/pkg/llm/factory"
	"paperchat-be/pkg/rag/modelconfig"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	TurnLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	SessionTTLMinutes  int
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI       string
	Anthropic    string
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider    string // "ollama", "openai", "anthropic", "gemini"
	LLMModel       string
	OllamaBaseURL  string
	OpenAIBaseURL  string
	Temperature    float64
	TopK           int
	ModelConfigKey string // Redis hash holding the live model config
	ArchiveTopic   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			TurnLogFilePath:    getEnv("TURN_LOG_FILE_PATH", "logs/turns.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			SessionTTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			TopK:           getEnvAsInt("RAG_TOP_K", modelconfig.DefaultTopK),
			ModelConfigKey: getEnv("MODEL_CONFIG_KEY", modelconfig.DefaultRedisKey),
			ArchiveTopic:   getEnv("TURN_ARCHIVE_TOPIC", "CHAT_TURN_ARCHIVE"),
		},
	}
}

// ModelDefaults is the model configuration used until one is written to Redis.
func (c *Config) ModelDefaults() modelconfig.Config {
	baseURL := c.Ai.OllamaBaseURL
	if c.Ai.LLMProvider == "openai" {
		baseURL = c.Ai.OpenAIBaseURL
	}
	return modelconfig.Config{
		Provider:    c.Ai.LLMProvider,
		Model:       c.Ai.LLMModel,
		BaseURL:     baseURL,
		Temperature: c.Ai.Temperature,
		TopK:        c.Ai.TopK,
	}.Normalize()
}

func (c *Config) ProviderKeys() factory.Keys {
	return factory.Keys{
		OpenAI:    c.Keys.OpenAI,
		Anthropic: c.Keys.Anthropic,
		Gemini:    c.Keys.GoogleGemini,
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
