// Package scoring computes resume to job-description similarity and maps it
// onto a calibrated 0-100 ATS score.
package scoring

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/okian/atscore/internal/domain/textnorm"
	"github.com/okian/atscore/internal/domain/tfidf"
	"github.com/okian/atscore/pkg/logger"
)

// Calibration band edges for raw cosine similarity. Resume vs job
// description cosine rarely leaves 0.05-0.35.
const (
	lowThreshold  = 0.05
	midThreshold  = 0.12
	highThreshold = 0.22
	topThreshold  = 0.32

	defaultMaxFeatures = 5000
	maxLengthRatio     = 3.0
	maxScoreValue      = 100
)

// Metrics holds the numeric outcome of one comparison.
type Metrics struct {
	RawSimilarity   float64 `json:"raw_similarity"`
	NormalizedScore int     `json:"normalized_score"`
	TechnicalMatch  float64 `json:"technical_match"`
	KeywordDensity  float64 `json:"keyword_density"`
	LengthRatio     float64 `json:"length_ratio"`
}

// Scorer compares a resume with a job description. It carries no per-call
// state and is safe for concurrent use.
type Scorer struct {
	vectorizer *tfidf.Vectorizer
	log        logger.Logger
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		vectorizer: tfidf.New(
			tfidf.WithNGramRange(1, 2),
			tfidf.WithMaxFeatures(defaultMaxFeatures),
			tfidf.WithSublinearTF(true),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NamedOrDiscard("scoring")
	}
	return s
}

// Similarity returns the TF-IDF cosine similarity of the normalized texts.
// Empty input or a degenerate vocabulary yields 0.
func (s *Scorer) Similarity(resumeText, jobDesc string) float64 {
	if resumeText == "" || jobDesc == "" {
		return 0
	}
	m, err := s.vectorizer.FitTransform([]string{
		textnorm.Normalize(resumeText),
		textnorm.Normalize(jobDesc),
	})
	if err != nil {
		if !errors.Is(err, tfidf.ErrEmptyVocabulary) {
			s.log.Warn(context.Background(), "similarity vectorization failed", logger.Error(err))
		}
		return 0
	}
	return tfidf.Cosine(m.Rows[0], m.Rows[1])
}

// NormalizeScore maps a raw similarity through the calibration bands:
//
//	0    - 0.05  ->  0 - 35
//	0.05 - 0.12  -> 35 - 55
//	0.12 - 0.22  -> 55 - 75
//	0.22 - 0.32  -> 75 - 90
//	> 0.32       -> 90 - 100
func NormalizeScore(similarity float64) int {
	var n float64
	switch {
	case similarity <= lowThreshold:
		n = similarity / lowThreshold * 35
	case similarity <= midThreshold:
		n = 35 + (similarity-lowThreshold)/(midThreshold-lowThreshold)*20
	case similarity <= highThreshold:
		n = 55 + (similarity-midThreshold)/(highThreshold-midThreshold)*20
	case similarity <= topThreshold:
		n = 75 + (similarity-highThreshold)/(topThreshold-highThreshold)*15
	default:
		n = 90 + math.Min((similarity-topThreshold)/0.1*10, 10)
	}
	r := int(math.Round(n))
	return min(maxScoreValue, max(0, r))
}

// DetailedMetrics combines similarity and its calibrated score with word-set
// ratios computed over whitespace tokens of the raw texts.
func (s *Scorer) DetailedMetrics(resumeText, jobDesc string) Metrics {
	sim := s.Similarity(resumeText, jobDesc)

	resumeWords := wordSet(resumeText)
	jobWords := wordSet(jobDesc)
	stop := textnorm.StopWords()

	var tech, techHit, kw, kwHit int
	for w := range jobWords {
		if stop.Has(w) {
			continue
		}
		_, inResume := resumeWords[w]
		kw++
		if inResume {
			kwHit++
		}
		if len([]rune(w)) > 3 && isAlpha(w) {
			tech++
			if inResume {
				techHit++
			}
		}
	}

	ratio := float64(utf8.RuneCountInString(resumeText)) / float64(max(utf8.RuneCountInString(jobDesc), 1))

	return Metrics{
		RawSimilarity:   sim,
		NormalizedScore: NormalizeScore(sim),
		TechnicalMatch:  round3(float64(techHit) / float64(max(tech, 1))),
		KeywordDensity:  round3(float64(kwHit) / float64(max(kw, 1))),
		LengthRatio:     round3(math.Min(ratio, maxLengthRatio)),
	}
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func isAlpha(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return w != ""
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
