package service

import (
	"time"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the analysis queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRecords bounds the number of stored analyses. Zero keeps all.
func WithMaxRecords(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRecords = n
		}
	}
}

// WithAnalyzer sets the analysis pipeline.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithAnalysisTimeout bounds a single analysis, queued or synchronous.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.analysisTimeout = d
		}
	}
}

// WithDefaultMode sets the candidate mode used when a request names none.
func WithDefaultMode(m analysis.Mode) Option {
	return func(s *Service) {
		if m != "" {
			s.defaultMode = m
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
