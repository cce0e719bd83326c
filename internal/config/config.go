package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Index     IndexConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	PipelineLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini   string
	GoogleBooks    string
	EmbedBookTopic string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

type IndexConfig struct {
	Path           string
	Dimension      int
	CheckpointPath string
}

type RetrievalConfig struct {
	SimilarityWeight float64
	MetadataWeight   float64
	RatingWeight     float64
	PopularityWeight float64
	MinSimilarity    float64
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			PipelineLogPath:    getEnv("PIPELINE_LOG_PATH", "pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GoogleBooks:    getEnv("GOOGLE_BOOKS_API_KEY", ""),
			EmbedBookTopic: getEnv("EMBED_BOOK_TOPIC_NAME", "EMBED_BOOK"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Index: IndexConfig{
			Path:           getEnv("VECTOR_INDEX_PATH", "data/books.index"),
			Dimension:      getEnvAsInt("VECTOR_INDEX_DIMENSION", 768),
			CheckpointPath: getEnv("PERSONAL_MODEL_CHECKPOINT", "data/personal_model.json"),
		},
		Retrieval: RetrievalConfig{
			SimilarityWeight: getEnvAsFloat("RETRIEVAL_SIMILARITY_WEIGHT", 0.7),
			MetadataWeight:   getEnvAsFloat("RETRIEVAL_METADATA_WEIGHT", 0.3),
			RatingWeight:     getEnvAsFloat("RETRIEVAL_RATING_WEIGHT", 0.6),
			PopularityWeight: getEnvAsFloat("RETRIEVAL_POPULARITY_WEIGHT", 0.4),
			MinSimilarity:    getEnvAsFloat("RETRIEVAL_MIN_SIMILARITY", 0.1),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
