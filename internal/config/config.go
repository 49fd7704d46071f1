package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// RAG source values accepted by RAG_SOURCE
const (
	RAGSourceAuto      = "auto"      // use Vectorize when its credentials are present
	RAGSourceVectorize = "vectorize" // Vectorize is mandatory
	RAGSourceNone      = "none"      // never retrieve from the knowledge base
)

// Config holds all configuration for the RAG agent
type Config struct {
	// Web API configuration
	Port           string `envconfig:"PORT" default:"5000"`
	GRPCHealthPort string `envconfig:"GRPC_HEALTH_PORT" default:""` // gRPC health server, disabled when empty

	// LLM configuration
	OpenAIAPIKey   string  `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string  `envconfig:"OPENAI_BASE_URL" default:""` // Any OpenAI-compatible endpoint
	LLMModel       string  `envconfig:"LLM_MODEL" default:"gpt-4o"`
	LLMTemperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.7"`

	// Knowledge base (Vectorize) configuration
	RAGSource                    string `envconfig:"RAG_SOURCE" default:"auto"` // auto, vectorize, none
	VectorizeAPIURL              string `envconfig:"VECTORIZE_API_URL" default:"https://api.vectorize.io/v1"`
	VectorizeOrganizationID      string `envconfig:"VECTORIZE_ORGANIZATION_ID"`
	VectorizePipelineAccessToken string `envconfig:"VECTORIZE_PIPELINE_ACCESS_TOKEN"`
	VectorizePipelineID          string `envconfig:"VECTORIZE_PIPELINE_ID"`
	RetrievalNumResults          int    `envconfig:"RETRIEVAL_NUM_RESULTS" default:"5"`
	ContextMaxDocChars           int    `envconfig:"CONTEXT_MAX_DOC_CHARS" default:"4000"` // 0 disables the bound

	// Web search (DuckDuckGo) configuration
	WebSearchURL       string `envconfig:"WEB_SEARCH_URL" default:"https://api.duckduckgo.com"`
	WebSearchTimeout   int    `envconfig:"WEB_SEARCH_TIMEOUT" default:"10"` // seconds
	WebSearchUserAgent string `envconfig:"WEB_SEARCH_USER_AGENT" default:"rag-agent/1.0"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment.
// Credentials are not checked here; call Validate with the mode being started.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.RAGSource = strings.ToLower(strings.TrimSpace(cfg.RAGSource))
	switch cfg.RAGSource {
	case RAGSourceAuto, RAGSourceVectorize, RAGSourceNone:
	default:
		return nil, fmt.Errorf("RAG_SOURCE must be one of auto, vectorize, none; got %q", cfg.RAGSource)
	}

	return &cfg, nil
}

// OpenAIConfigured reports whether an LLM API key is set
func (c *Config) OpenAIConfigured() bool {
	return c.OpenAIAPIKey != ""
}

// VectorizeConfigured reports whether every credential needed for retrieval is set
func (c *Config) VectorizeConfigured() bool {
	return c.VectorizeOrganizationID != "" &&
		c.VectorizePipelineAccessToken != "" &&
		c.VectorizePipelineID != ""
}

// RetrievalEnabled resolves RAG_SOURCE against the available credentials
func (c *Config) RetrievalEnabled() bool {
	switch c.RAGSource {
	case RAGSourceVectorize:
		return true
	case RAGSourceNone:
		return false
	default:
		return c.VectorizeConfigured()
	}
}

// WebSearchTimeoutDuration returns the web search timeout as a duration
func (c *Config) WebSearchTimeoutDuration() time.Duration {
	return time.Duration(c.WebSearchTimeout) * time.Second
}

// CircuitBreakerResetDuration returns the breaker reset timeout as a duration
func (c *Config) CircuitBreakerResetDuration() time.Duration {
	return time.Duration(c.CircuitBreakerResetTimeout) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
