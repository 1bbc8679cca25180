// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/atscore/internal/domain/analysis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the number of analyses waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRecords bounds stored analyses; 0 keeps everything.
	MaxRecords int `koanf:"max_records"`

	// MaxLeaderboardLimit caps GET /v1/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxUploadMB caps resume uploads.
	MaxUploadMB int `koanf:"max_upload_mb"`

	// AnalysisTimeoutMS bounds one analysis, suggestions included.
	AnalysisTimeoutMS int `koanf:"analysis_timeout_ms"`

	// CandidateMode is used when a request does not name one.
	CandidateMode string `koanf:"candidate_mode"`

	// VocabularyFile optionally replaces the built-in term tables.
	VocabularyFile string `koanf:"vocabulary_file"`

	LLM  LLM  `koanf:"llm"`
	AMQP AMQP `koanf:"amqp"`
}

// LLM configures the generative suggestion service.
type LLM struct {
	Enabled       bool   `koanf:"enabled"`
	APIKey        string `koanf:"api_key"`
	Model         string `koanf:"model"`
	TimeoutMS     int    `koanf:"timeout_ms"`
	RatePerMinute int    `koanf:"rate_per_minute"`
	MaxFailures   int    `koanf:"max_failures"`
}

// AMQP configures the optional message intake. An empty URL disables it.
type AMQP struct {
	URL      string `koanf:"url"`
	Queue    string `koanf:"queue"`
	Prefetch int    `koanf:"prefetch"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxRecords:          100_000,
		MaxLeaderboardLimit: 100,
		MaxUploadMB:         10,
		AnalysisTimeoutMS:   60_000,
		CandidateMode:       string(analysis.ModeExperienced),
		LLM: LLM{
			Model:         "gemini-2.5-flash",
			TimeoutMS:     20_000,
			RatePerMinute: 30,
			MaxFailures:   5,
		},
		AMQP: AMQP{
			Queue:    "atscore.analyses",
			Prefetch: 8,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.MaxRecords < 0:
		return fmt.Errorf("%w: max_records must not be negative, got %d", ErrInvalidConfig, c.MaxRecords)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.MaxUploadMB < 1:
		return fmt.Errorf("%w: max_upload_mb must be positive, got %d", ErrInvalidConfig, c.MaxUploadMB)
	case c.AnalysisTimeoutMS < 1:
		return fmt.Errorf("%w: analysis_timeout_ms must be positive, got %d", ErrInvalidConfig, c.AnalysisTimeoutMS)
	case c.LLM.Enabled && strings.TrimSpace(c.LLM.APIKey) == "":
		return fmt.Errorf("%w: llm.api_key is required when llm.enabled is set", ErrInvalidConfig)
	case c.LLM.Enabled && c.LLM.RatePerMinute < 1:
		return fmt.Errorf("%w: llm.rate_per_minute must be positive, got %d", ErrInvalidConfig, c.LLM.RatePerMinute)
	case c.AMQP.URL != "" && strings.TrimSpace(c.AMQP.Queue) == "":
		return fmt.Errorf("%w: amqp.queue is required when amqp.url is set", ErrInvalidConfig)
	}
	if _, err := analysis.ParseMode(c.CandidateMode); err != nil {
		return fmt.Errorf("%w: candidate_mode: %w", ErrInvalidConfig, err)
	}
	return nil
}
