package keywords

import "github.com/okian/atscore/pkg/logger"

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithVocabulary sets the term tables used for filtering and categorization.
func WithVocabulary(v Vocabulary) Option {
	return func(e *Extractor) {
		if v.Technical.Len() > 0 || v.SoftSkills.Len() > 0 {
			e.vocab = v
		}
	}
}

// WithLogger sets the extractor logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMaxKeywords caps the number of extracted keywords.
func WithMaxKeywords(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxKeywords = n
		}
	}
}
