// Package config provides configuration loading and structs for the Kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Budget   BudgetConfig   `yaml:"budget"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the knowledge base database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LLMConfig selects and configures the embedding and generation providers.
type LLMConfig struct {
	// Provider is "openai" (hosted embeddings + chat) or "local"
	// (ONNX embeddings; generation still requires OpenAI).
	Provider       string `yaml:"provider"`
	APIKeyEnv      string `yaml:"api_key_env"`
	BaseURL        string `yaml:"base_url"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	Dimensions     int    `yaml:"dimensions"`
	LocalModelPath string `yaml:"local_model_path"`
	LocalMaxTokens int    `yaml:"local_max_tokens"`
}

// PipelineConfig holds ingestion and retrieval settings.
type PipelineConfig struct {
	MaxChunkChars      int `yaml:"max_chunk_chars"`
	MaxQuestionChars   int `yaml:"max_question_chars"`
	MaxTextChars       int `yaml:"max_text_chars"`
	TopK               int `yaml:"top_k"`
	MaxContextChars    int `yaml:"max_context_chars"`
	MaxAnswerTokens    int `yaml:"max_answer_tokens"`
	MaxSummaryTokens   int `yaml:"max_summary_tokens"`
	EmbeddingCacheSize int `yaml:"embedding_cache_size"`
}

// BudgetConfig holds token governor limits and its usage ledger path.
type BudgetConfig struct {
	RequestTokenLimit int    `yaml:"request_token_limit"`
	HourlyTokenLimit  int    `yaml:"hourly_token_limit"`
	DailyTokenLimit   int    `yaml:"daily_token_limit"`
	UsagePath         string `yaml:"usage_path"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Budget.UsagePath = expandPath(cfg.Budget.UsagePath, configDir)
	cfg.LLM.LocalModelPath = expandPath(cfg.LLM.LocalModelPath, configDir)

	return &cfg, nil
}

// APIKey returns the provider API key from the configured environment variable.
func (c *LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
