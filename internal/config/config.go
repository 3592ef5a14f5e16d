package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string `validate:"required"`
	DBName   string `validate:"required"`
	Port     string `validate:"required"`
	GinMode  string `validate:"oneof=debug release test"`

	CORSOrigins    []string
	MaxRequestSize int64 `validate:"gt=0"`

	// Language model
	ChatProvider  string `validate:"oneof=openai gemini"`
	ChatModel     string `validate:"required"`
	OpenAIAPIKey  string `validate:"required_if=ChatProvider openai"`
	OpenAIBaseURL string
	GeminiAPIKey  string `validate:"required_if=ChatProvider gemini"`
	LLMRequestsPM int    `validate:"gte=0"`

	// Embeddings configuration
	EmbeddingsProvider    string `validate:"oneof=openai google"`
	EmbeddingsBaseURL     string
	EmbeddingsAPIKey      string
	EmbeddingsModel       string `validate:"required"`
	GoogleEmbeddingsModel string

	// MongoDB Vector Search
	VectorNumCandidates int `validate:"gte=1"`
	VectorDimensions    int `validate:"gte=1"`

	// Pipeline
	RequestTimeout  time.Duration `validate:"gt=0"`
	RetrievalPolicy string        `validate:"oneof=fail_fast degrade"`

	// Redis Configuration
	RedisEnabled      bool
	RedisURL          string `validate:"required_if=RedisEnabled true"`
	RedisPassword     string
	RedisDB           int
	EmbeddingCacheTTL time.Duration
	RateLimitReqs     int `validate:"gte=1"`
	RateLimitWindow   int `validate:"gte=1"`

	// Telemetry
	OTelEnabled           bool
	OTelEndpoint          string
	TraceSampleRatio      float64 `validate:"gte=0,lte=1"`
	MetricsExportInterval time.Duration

	// Corpus readiness probe
	HealthCron string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("DB_NAME", "legal_db"),
		Port:           getEnv("PORT", "8000"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxRequestSize: getEnvInt64("MAX_REQUEST_SIZE", 1<<20),

		ChatProvider:  getEnv("CHAT_PROVIDER", "openai"),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		LLMRequestsPM: getEnvInt("LLM_RPM", 500),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "openai"),
		EmbeddingsBaseURL:     getEnv("EMBEDDINGS_BASE_URL", "http://localhost:8081/v1"),
		EmbeddingsAPIKey:      getEnv("EMBEDDINGS_API_KEY", ""),
		EmbeddingsModel:       getEnv("EMBEDDINGS_MODEL", "jhgan/ko-sroberta-multitask"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		VectorNumCandidates: getEnvInt("VECTOR_NUM_CANDIDATES", 100),
		VectorDimensions:    getEnvInt("VECTOR_DIM", 768),

		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		RetrievalPolicy: getEnv("RETRIEVAL_POLICY", "fail_fast"),

		RedisEnabled:      getEnvBool("REDIS_ENABLED", true),
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		EmbeddingCacheTTL: getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		RateLimitReqs:     getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTelEnabled:           getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:          getEnv("OTEL_ENDPOINT", "localhost:4317"),
		TraceSampleRatio:      getEnvFloat64("TRACE_SAMPLE_RATIO", 0.1),
		MetricsExportInterval: getEnvDuration("METRICS_EXPORT_INTERVAL", 30*time.Second),

		HealthCron: getEnv("HEALTH_CRON", "*/5 * * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks required keys and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.EmbeddingsProvider == "google" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for google embeddings - set it in .env file")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
