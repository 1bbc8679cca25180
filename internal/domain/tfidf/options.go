package tfidf

import "github.com/okian/atscore/internal/domain/textnorm"

// Option applies a configuration option to the Vectorizer.
type Option func(*Vectorizer)

// WithNGramRange sets the inclusive n-gram length range.
func WithNGramRange(minN, maxN int) Option {
	return func(v *Vectorizer) {
		if minN >= 1 && maxN >= minN {
			v.ngramMin = minN
			v.ngramMax = maxN
		}
	}
}

// WithMaxFeatures caps the vocabulary to the most frequent terms.
func WithMaxFeatures(n int) Option {
	return func(v *Vectorizer) {
		if n > 0 {
			v.maxFeatures = n
		}
	}
}

// WithSublinearTF replaces tf with 1 + ln(tf).
func WithSublinearTF(enabled bool) Option {
	return func(v *Vectorizer) {
		v.sublinearTF = enabled
	}
}

// WithStopWords replaces the stop list. An empty set disables removal.
func WithStopWords(words textnorm.Set) Option {
	return func(v *Vectorizer) {
		v.stopWords = words
	}
}
