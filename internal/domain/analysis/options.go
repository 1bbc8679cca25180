package analysis

import (
	"github.com/okian/atscore/internal/domain/keywords"
	"github.com/okian/atscore/internal/domain/scoring"
	"github.com/okian/atscore/internal/domain/suggest"
	"github.com/okian/atscore/pkg/logger"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithScorer sets the similarity scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(a *Analyzer) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithExtractor sets the keyword extractor.
func WithExtractor(e *keywords.Extractor) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithGenerator sets the suggestion generator.
func WithGenerator(g *suggest.Generator) Option {
	return func(a *Analyzer) {
		if g != nil {
			a.generator = g
		}
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}
