// Package batch analyzes many resumes against one job description, either
// in process or through a running service.
package batch

import (
	"runtime"
	"time"

	"github.com/okian/atscore/internal/domain/analysis"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultPollInterval = 250 * time.Millisecond
	channelMultiplier   = 2
)

// Config holds the settings of one batch run.
type Config struct {
	JobDescription string        // job description text
	Mode           analysis.Mode // candidate mode for every resume
	Workers        int           // concurrent analyses or requests
	Timeout        time.Duration // per-resume bound
	PollInterval   time.Duration // remote status polling period
	Verbose        bool
}

func (c Config) workers(n int) int {
	w := c.Workers
	if w < 1 {
		w = runtime.NumCPU()
	}
	return max(1, min(w, n))
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// Document is one resume or job description read from disk.
type Document struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Text       string  `json:"-"`
	Method     string  `json:"extraction_method"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome for one resume.
type Result struct {
	Name       string           `json:"name"`
	AnalysisID string           `json:"analysis_id,omitempty"`
	Rank       int              `json:"rank,omitempty"`
	Score      int              `json:"score"`
	Duplicate  bool             `json:"duplicate,omitempty"`
	Report     *analysis.Report `json:"report,omitempty"`
	Error      string           `json:"error,omitempty"`
	Elapsed    time.Duration    `json:"-"`
}

// Summary counts the outcomes of a run.
type Summary struct {
	BatchID    string        `json:"batch_id"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Duplicates int           `json:"duplicates"`
	MeanScore  float64       `json:"mean_score"`
	Duration   time.Duration `json:"-"`
	Results    []Result      `json:"results"`
}
