package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DigestAPIKey string

	// Embedding backend
	EmbedProvider  string
	EmbedModel     string
	EmbedBaseURL   string
	EmbedBatchSize int
	EmbedTimeout   time.Duration

	// Shared embedding cache (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Domain profile YAML; empty uses the embedded travel profile
	ProfilePath string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Chunk pipeline
	ChunkWorkers   int
	ChunkBatchSize int
	ChunkWindow    int
	ChunkStride    int

	// Ranking
	TopN int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DigestAPIKey: os.Getenv("DIGEST_API_KEY"),

		EmbedProvider:  envOr("EMBED_PROVIDER", "ollama"),
		EmbedModel:     envOr("EMBED_MODEL", "nomic-embed-text"),
		EmbedBaseURL:   os.Getenv("EMBED_BASE_URL"),
		EmbedBatchSize: envInt("EMBED_BATCH_SIZE", 32),
		EmbedTimeout:   envDuration("EMBED_TIMEOUT", 2*time.Minute),

		RedisAddr:     os.Getenv("EMBED_CACHE_REDIS_ADDR"),
		RedisPassword: os.Getenv("EMBED_CACHE_REDIS_PASSWORD"),
		RedisDB:       envInt("EMBED_CACHE_REDIS_DB", 0),

		ProfilePath: os.Getenv("DIGEST_PROFILE"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		ChunkWorkers:   envInt("CHUNK_WORKERS", 4),
		ChunkBatchSize: envInt("CHUNK_BATCH_SIZE", 4),
		ChunkWindow:    envInt("CHUNK_WINDOW", 500),
		ChunkStride:    envInt("CHUNK_STRIDE", 400),

		TopN: envInt("TOP_N", 10),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 2 * time.Minute
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.ChunkWorkers <= 0 {
		cfg.ChunkWorkers = 4
	}
	if cfg.ChunkBatchSize <= 0 {
		cfg.ChunkBatchSize = 4
	}
	if cfg.ChunkWindow <= 0 {
		cfg.ChunkWindow = 500
	}
	if cfg.ChunkStride <= 0 {
		cfg.ChunkStride = 400
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate rejects settings no run could work with.
func (c Config) Validate() error {
	switch c.EmbedProvider {
	case "ollama", "hash":
	default:
		return fmt.Errorf("EMBED_PROVIDER %q is not supported (want ollama or hash)", c.EmbedProvider)
	}
	if c.EmbedProvider == "ollama" && c.EmbedModel == "" {
		return fmt.Errorf("EMBED_MODEL is required for the ollama provider")
	}
	if c.ChunkStride > c.ChunkWindow {
		return fmt.Errorf("CHUNK_STRIDE (%d) must not exceed CHUNK_WINDOW (%d)", c.ChunkStride, c.ChunkWindow)
	}
	if c.TopN < 0 {
		return fmt.Errorf("TOP_N must be >= 0, got %d", c.TopN)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("EMBED_CACHE_REDIS_DB must be >= 0, got %d", c.RedisDB)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DigestAPIKey == "" {
		return fmt.Errorf("DIGEST_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
