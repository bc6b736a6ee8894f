package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Chat-completions endpoint
	LLMBaseURL       string
	LLMAPIKey        string
	LLMModel         string
	LLMTimeout       time.Duration
	LLMMaxConcurrent int

	// Auth for upload and delete; empty disables it.
	APIKey string

	// Document library
	DBPath      string
	SeedSamples bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chapters and chat context
	ChapterMaxChars int
	ContextMaxChars int
	HistoryTurns    int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "5000"),

		LLMBaseURL:       envOr("LLM_BASE_URL", "https://api.openai.com/v1/"),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
		LLMModel:         envOr("LLM_MODEL", "solver"),
		LLMTimeout:       envDuration("LLM_TIMEOUT", 180*time.Second),
		LLMMaxConcurrent: envInt("LLM_MAX_CONCURRENT", 4),

		APIKey: os.Getenv("API_KEY"),

		DBPath:      envOr("DB_PATH", "bookplay.db"),
		SeedSamples: envBool("SEED_SAMPLES", true),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChapterMaxChars: envInt("CHAPTER_MAX_CHARS", 8000),
		ContextMaxChars: envInt("CONTEXT_MAX_CHARS", 6000),
		HistoryTurns:    envInt("HISTORY_TURNS", 6),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 180 * time.Second
	}
	if cfg.LLMMaxConcurrent <= 0 {
		cfg.LLMMaxConcurrent = 4
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChapterMaxChars <= 0 {
		cfg.ChapterMaxChars = 8000
	}
	if cfg.ContextMaxChars <= 0 {
		cfg.ContextMaxChars = 6000
	}
	if cfg.HistoryTurns < 0 {
		cfg.HistoryTurns = 6
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
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
