package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL          string `envconfig:"CONVERSATION_TTL" default:"30m"`
	HistoryTurns int    `envconfig:"CONVERSATION_HISTORY_TURNS" default:"4"`
	Tools        struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
	AgentEnabled bool `envconfig:"CONVERSATION_AGENT_ENABLED" default:"true"`
}

// TTLDuration parses TTL, falling back to 30 minutes.
func (c ConversationConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

type LLMConfig struct {
	APIKey         string `envconfig:"GEMINI_API_KEY"`
	BaseURL        string `envconfig:"GEMINI_BASE_URL"`
	ThinkingBudget int32  `envconfig:"GEMINI_THINKING_BUDGET" default:"0"`
}

type IntentModelConfig struct {
	Model       string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"INTENT_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"INTENT_TEMPERATURE" default:"0.1"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
}

type AgentModelConfig struct {
	Model       string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"AGENT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"AGENT_TEMPERATURE" default:"0.4"`
}

type EmbeddingConfig struct {
	APIKey      string  `envconfig:"EMBEDDING_API_KEY"`
	BaseURL     string  `envconfig:"EMBEDDING_BASE_URL"`
	Model       string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	RatePerSec  float64 `envconfig:"EMBEDDING_RATE_PER_SEC" default:"10"`
	Burst       int     `envconfig:"EMBEDDING_BURST" default:"5"`
	Concurrency int     `envconfig:"EMBEDDING_CONCURRENCY" default:"4"`
}

// Enabled reports whether an embedding provider is configured.
func (c EmbeddingConfig) Enabled() bool {
	return c.APIKey != "" || c.BaseURL != ""
}

type RetrievalConfig struct {
	Limit         int `envconfig:"RETRIEVAL_LIMIT" default:"5"`
	PerBrandLimit int `envconfig:"RETRIEVAL_PER_BRAND_LIMIT" default:"3"`
	SemanticTopK  int `envconfig:"RETRIEVAL_SEMANTIC_TOP_K" default:"10"`
}

type CatalogConfig struct {
	Driver  string `envconfig:"CATALOG_DRIVER" default:"postgres"`
	CSVPath string `envconfig:"CATALOG_CSV_PATH" default:"data/mobiles.csv"`
}

type ServerConfig struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8080"`
}
