package scoring

import (
	"github.com/okian/atscore/internal/domain/tfidf"
	"github.com/okian/atscore/pkg/logger"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithLogger sets the logger used for unexpected vectorization failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVectorizer replaces the similarity vectorizer.
func WithVectorizer(v *tfidf.Vectorizer) Option {
	return func(s *Scorer) {
		if v != nil {
			s.vectorizer = v
		}
	}
}
