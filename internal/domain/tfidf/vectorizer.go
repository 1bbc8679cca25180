// Package tfidf builds TF-IDF document vectors over word n-grams.
//
// Weighting follows the smoothed convention idf = ln((1+n)/(1+df)) + 1 with
// optional sublinear term frequency and l2 row normalization. Features are
// indexed in ascending lexical order.
package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/okian/atscore/internal/domain/textnorm"
)

// ErrEmptyVocabulary is returned when no document contributes a term after
// tokenization and stop-word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary; documents only contain stop words")

// reToken matches runs of two or more word characters.
var reToken = regexp.MustCompile(`[\p{L}\p{N}\p{Mn}_]+`)

// Vectorizer turns a small corpus into TF-IDF rows. It holds only settings
// and is safe for concurrent use.
type Vectorizer struct {
	ngramMin    int
	ngramMax    int
	maxFeatures int
	sublinearTF bool
	stopWords   textnorm.Set
}

// Matrix is the fitted result: one dense row per input document, each
// aligned with Features.
type Matrix struct {
	Features []string
	Rows     [][]float64
}

// New creates a Vectorizer. Defaults: unigrams only, no feature cap, raw term
// frequency and the English stop list.
func New(opts ...Option) *Vectorizer {
	v := &Vectorizer{
		ngramMin:  1,
		ngramMax:  1,
		stopWords: englishStopWords,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// FitTransform learns the vocabulary of docs and returns their weighted,
// l2-normalized vectors.
func (v *Vectorizer) FitTransform(docs []string) (*Matrix, error) {
	counts := make([]map[string]int, len(docs))
	totals := make(map[string]int)
	for i, d := range docs {
		counts[i] = v.countNGrams(d)
		for term, c := range counts[i] {
			totals[term] += c
		}
	}
	if len(totals) == 0 {
		return nil, ErrEmptyVocabulary
	}

	features := make([]string, 0, len(totals))
	for term := range totals {
		features = append(features, term)
	}
	sort.Strings(features)
	features = v.limitFeatures(features, totals)

	n := float64(len(docs))
	idf := make([]float64, len(features))
	for j, term := range features {
		df := 0
		for _, c := range counts {
			if c[term] > 0 {
				df++
			}
		}
		idf[j] = math.Log((1+n)/(1+float64(df))) + 1
	}

	rows := make([][]float64, len(docs))
	for i, c := range counts {
		row := make([]float64, len(features))
		for j, term := range features {
			tf := float64(c[term])
			if tf == 0 {
				continue
			}
			if v.sublinearTF {
				tf = 1 + math.Log(tf)
			}
			row[j] = tf * idf[j]
		}
		l2Normalize(row)
		rows[i] = row
	}
	return &Matrix{Features: features, Rows: rows}, nil
}

// Analyze returns the n-gram sequence for a single document, in the order
// the vectorizer would count them.
func (v *Vectorizer) Analyze(doc string) []string {
	raw := reToken.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if len([]rune(t)) < 2 || v.stopWords.Has(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	var grams []string
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

func (v *Vectorizer) countNGrams(doc string) map[string]int {
	out := make(map[string]int)
	for _, g := range v.Analyze(doc) {
		out[g]++
	}
	return out
}

// limitFeatures keeps the maxFeatures most frequent terms across the corpus.
// Ties keep lexical order; the result is lexically sorted again.
func (v *Vectorizer) limitFeatures(sorted []string, totals map[string]int) []string {
	if v.maxFeatures <= 0 || len(sorted) <= v.maxFeatures {
		return sorted
	}
	byFreq := append([]string(nil), sorted...)
	sort.SliceStable(byFreq, func(i, j int) bool {
		return totals[byFreq[i]] > totals[byFreq[j]]
	})
	kept := byFreq[:v.maxFeatures]
	sort.Strings(kept)
	return kept
}

// Cosine returns the cosine of the angle between a and b, or 0 when either
// vector is all zeros.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += a[i] * b[i]
	}
	for _, x := range a {
		na += x * x
	}
	for _, x := range b {
		nb += x * x
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func l2Normalize(row []float64) {
	var sum float64
	for _, x := range row {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range row {
		row[i] /= norm
	}
}
