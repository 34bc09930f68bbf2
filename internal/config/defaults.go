package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/db/records.db"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "gpt-4o-mini"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLM.Dimensions == 0 {
		if cfg.LLM.Provider == "local" {
			cfg.LLM.Dimensions = 384
		} else {
			cfg.LLM.Dimensions = 1536
		}
	}
	if cfg.LLM.LocalModelPath == "" {
		cfg.LLM.LocalModelPath = "/usr/local/var/kotae/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.LLM.LocalMaxTokens == 0 {
		cfg.LLM.LocalMaxTokens = 256
	}
	if cfg.Pipeline.MaxChunkChars == 0 {
		cfg.Pipeline.MaxChunkChars = 1200
	}
	if cfg.Pipeline.MaxQuestionChars == 0 {
		cfg.Pipeline.MaxQuestionChars = 1000
	}
	if cfg.Pipeline.MaxTextChars == 0 {
		cfg.Pipeline.MaxTextChars = 50000
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 5
	}
	if cfg.Pipeline.MaxContextChars == 0 {
		cfg.Pipeline.MaxContextChars = 6000
	}
	if cfg.Pipeline.MaxAnswerTokens == 0 {
		cfg.Pipeline.MaxAnswerTokens = 1024
	}
	if cfg.Pipeline.MaxSummaryTokens == 0 {
		cfg.Pipeline.MaxSummaryTokens = 1024
	}
	if cfg.Pipeline.EmbeddingCacheSize == 0 {
		cfg.Pipeline.EmbeddingCacheSize = 10000
	}
	if cfg.Budget.RequestTokenLimit == 0 {
		cfg.Budget.RequestTokenLimit = 50000
	}
	if cfg.Budget.HourlyTokenLimit == 0 {
		cfg.Budget.HourlyTokenLimit = 100000
	}
	if cfg.Budget.DailyTokenLimit == 0 {
		cfg.Budget.DailyTokenLimit = 1000000
	}
	if cfg.Budget.UsagePath == "" {
		cfg.Budget.UsagePath = "/usr/local/var/kotae/data/token_usage.json"
	}
}
