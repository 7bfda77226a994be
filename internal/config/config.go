package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	Retrieval     RetrievalConfig  `json:"retrieval"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Schedule      ScheduleConfig   `json:"schedule"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// AIProviderConfig names one embedding backend. The top-level AIConfig is
// the primary; Fallbacks are tried in order when the primary fails.
type AIProviderConfig struct {
	Provider   string      `json:"provider"`
	EmbedModel string      `json:"embed_model"`
	Data       interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string             `json:"provider"`
	EmbedModel     string             `json:"embed_model"`
	TimeoutSeconds int                `json:"timeout_seconds"`
	Data           interface{}        `json:"data"`
	Fallbacks      []AIProviderConfig `json:"fallbacks"`
}

// RetrievalConfig carries the knobs of the ingestion/retrieval core. The
// embedding dimensionality is fixed system wide; the chunker and the store
// both read it from here instead of a process global.
type RetrievalConfig struct {
	EmbeddingDim          int    `json:"embedding_dim"`
	Metric                string `json:"metric"`
	ChunkSize             int    `json:"chunk_size"`
	ChunkOverlap          int    `json:"chunk_overlap"`
	EmbedWorkers          int    `json:"embed_workers"`
	EmbedTimeoutSeconds   int    `json:"embed_timeout_seconds"`
	ExtractTimeoutSeconds int    `json:"extract_timeout_seconds"`
	TopK                  int    `json:"top_k"`
	CacheSize             int    `json:"cache_size"`
	CacheTTLHours         int    `json:"cache_ttl_hours"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	PendingRedriveSpec   string `json:"pending_redrive_spec"`
	PendingRedriveAgeSec int64  `json:"pending_redrive_age_sec"`
	CacheCleanupSpec     string `json:"cache_cleanup_spec"`
	CacheKeepDays        int    `json:"cache_keep_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	for i, fb := range cfg.AI.Fallbacks {
		if fb.Provider == "" || fb.EmbedModel == "" {
			return nil, fmt.Errorf("ai.fallbacks[%d] needs provider and embed_model", i)
		}
	}
	switch cfg.Retrieval.Metric {
	case "", "cosine", "ip":
	default:
		return nil, fmt.Errorf("retrieval.metric must be cosine or ip")
	}
	applyRetrievalDefaults(&cfg.Retrieval)
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if cfg.Schedule.PendingRedriveSpec == "" {
		cfg.Schedule.PendingRedriveSpec = "*/10 * * * *"
	}
	if cfg.Schedule.PendingRedriveAgeSec == 0 {
		cfg.Schedule.PendingRedriveAgeSec = 600
	}
	if cfg.Schedule.CacheCleanupSpec == "" {
		cfg.Schedule.CacheCleanupSpec = "30 3 * * *"
	}
	if cfg.Schedule.CacheKeepDays == 0 {
		cfg.Schedule.CacheKeepDays = 30
	}
	return &cfg, nil
}

func applyRetrievalDefaults(r *RetrievalConfig) {
	if r.EmbeddingDim == 0 {
		r.EmbeddingDim = 768
	}
	if r.Metric == "" {
		r.Metric = "cosine"
	}
	if r.ChunkSize == 0 {
		r.ChunkSize = 1000
	}
	if r.ChunkOverlap == 0 {
		r.ChunkOverlap = 150
	}
	if r.EmbedWorkers == 0 {
		r.EmbedWorkers = 4
	}
	if r.EmbedTimeoutSeconds == 0 {
		r.EmbedTimeoutSeconds = 30
	}
	if r.ExtractTimeoutSeconds == 0 {
		r.ExtractTimeoutSeconds = 60
	}
	if r.TopK == 0 {
		r.TopK = 8
	}
	if r.CacheSize == 0 {
		r.CacheSize = 10000
	}
	if r.CacheTTLHours == 0 {
		r.CacheTTLHours = 2
	}
}
