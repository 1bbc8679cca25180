// Package keywords extracts job-description keywords, filters posting
// boilerplate and ranks the ones a resume is missing.
package keywords

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/okian/atscore/internal/domain/textnorm"
	"github.com/okian/atscore/internal/domain/tfidf"
	"github.com/okian/atscore/pkg/logger"
)

// Category classifies a keyword.
type Category string

// Keyword categories.
const (
	Technical        Category = "technical"
	SoftSkill        Category = "soft_skill"
	IndustrySpecific Category = "industry_specific"
	General          Category = "general"
)

const (
	defaultMaxKeywords = 50
	maxFeatures        = 300
	minJobDescLen      = 10

	technicalBoost = 2.5
	softSkillBoost = 1.5

	frequencyCap    = 5
	frequencyWeight = 0.15
	maxGeneralRanks = 2
)

// rankBoost weights importance by category when ranking missing terms.
var rankBoost = map[Category]float64{
	Technical:        2.0,
	SoftSkill:        1.2,
	IndustrySpecific: 1.5,
	General:          0.3,
}

var placementHints = map[Category]string{
	Technical:        "Add to your Skills or Projects section.",
	SoftSkill:        "Demonstrate with a concrete example in Experience.",
	IndustrySpecific: "Add to Summary or Experience.",
	General:          "Add where naturally relevant.",
}

var reStandaloneDigits = regexp.MustCompile(`\b\d+\b`)

// Keyword is a term extracted from a job description.
type Keyword struct {
	Term       string   `json:"term"`
	TFIDFScore float64  `json:"tfidf_score"`
	Frequency  int      `json:"frequency"`
	Category   Category `json:"category"`
}

// MissingKeyword is a job keyword absent from the resume.
type MissingKeyword struct {
	Term            string   `json:"term"`
	ImportanceScore float64  `json:"importance_score"`
	Category        Category `json:"category"`
	Context         string   `json:"context"`
	Suggestions     []string `json:"suggestions"`
}

// RankedKeyword is a MissingKeyword with its 1-based position.
type RankedKeyword struct {
	MissingKeyword
	Rank int `json:"rank"`
}

// Extractor holds an immutable vocabulary and is safe for concurrent use.
type Extractor struct {
	vocab       Vocabulary
	stop        textnorm.Set
	vectorizer  *tfidf.Vectorizer
	maxKeywords int
	log         logger.Logger
}

// NewExtractor creates an Extractor with the default vocabulary.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		vocab:       DefaultVocabulary(),
		stop:        textnorm.StopWords(),
		maxKeywords: defaultMaxKeywords,
		vectorizer: tfidf.New(
			tfidf.WithNGramRange(1, 2),
			tfidf.WithMaxFeatures(maxFeatures),
		),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.NamedOrDiscard("keywords")
	}
	return e
}

// Vocabulary returns the term tables in use.
func (e *Extractor) Vocabulary() Vocabulary { return e.vocab }

// Extract returns up to 50 keywords from jobDesc, highest score first.
// The job description is fitted as a two-row corpus of itself, so idf is
// flat and scores rank by term frequency.
func (e *Extractor) Extract(jobDesc string) []Keyword {
	if utf8.RuneCountInString(strings.TrimSpace(jobDesc)) < minJobDescLen {
		return nil
	}
	normalized := textnorm.Normalize(jobDesc)
	m, err := e.vectorizer.FitTransform([]string{normalized, normalized})
	if err != nil {
		e.log.Debug(context.Background(), "keyword vectorization degenerate", logger.Error(err))
		return nil
	}

	jobLower := strings.ToLower(jobDesc)
	var out []Keyword
	for j, term := range m.Features {
		score := m.Rows[0][j]
		if score == 0 || e.IsJunk(term) {
			continue
		}
		freq := strings.Count(jobLower, term)
		words := strings.Fields(term)
		if len(words) == 2 && freq == 0 {
			continue
		}
		cat := e.Categorize(term)
		if cat == General && (len(words) == 2 || freq < 2) {
			continue
		}
		switch {
		case e.vocab.Technical.Has(term):
			score *= technicalBoost
		case e.vocab.SoftSkills.Has(term):
			score *= softSkillBoost
		}
		out = append(out, Keyword{Term: term, TFIDFScore: score, Frequency: freq, Category: cat})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].TFIDFScore > out[b].TFIDFScore })
	if len(out) > e.maxKeywords {
		out = out[:e.maxKeywords]
	}
	return out
}

// FindMissing returns the job keywords not present in resumeText. A phrase
// counts as present when each of its significant words appears somewhere in
// the resume, even apart.
func (e *Extractor) FindMissing(resumeText string, jobKeywords []Keyword) []MissingKeyword {
	if resumeText == "" || len(jobKeywords) == 0 {
		return nil
	}
	resumeLower := strings.ToLower(resumeText)

	var out []MissingKeyword
	for _, kw := range jobKeywords {
		term := strings.ToLower(kw.Term)
		if strings.Contains(resumeLower, term) {
			continue
		}
		if e.coveredByParts(term, resumeLower) {
			continue
		}
		out = append(out, MissingKeyword{
			Term:            kw.Term,
			ImportanceScore: kw.TFIDFScore * (1 + float64(min(kw.Frequency, frequencyCap))*frequencyWeight),
			Category:        kw.Category,
			Context:         placementHint(kw.Category),
			Suggestions:     suggestionsFor(kw.Term, kw.Category),
		})
	}
	return out
}

func (e *Extractor) coveredByParts(term, resumeLower string) bool {
	words := strings.Fields(term)
	if len(words) < 2 {
		return false
	}
	var significant []string
	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 && !e.stop.Has(w) && !e.vocab.JunkWords.Has(w) {
			significant = append(significant, w)
		}
	}
	if len(significant) == 0 {
		return false
	}
	for _, w := range significant {
		if !strings.Contains(resumeLower, w) {
			return false
		}
	}
	return true
}

// Rank orders missing keywords by category-boosted importance and keeps at
// most two general terms.
func Rank(missing []MissingKeyword) []RankedKeyword {
	scored := append([]MissingKeyword(nil), missing...)
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].ImportanceScore*boostFor(scored[a].Category) >
			scored[b].ImportanceScore*boostFor(scored[b].Category)
	})

	out := make([]RankedKeyword, 0, len(scored))
	general := 0
	for _, kw := range scored {
		if kw.Category == General {
			general++
			if general > maxGeneralRanks {
				continue
			}
		}
		out = append(out, RankedKeyword{MissingKeyword: kw, Rank: len(out) + 1})
	}
	return out
}

// IsJunk reports whether term is boilerplate that carries no skill signal.
// Two-word terms survive only when whitelisted as a whole.
func (e *Extractor) IsJunk(term string) bool {
	t := strings.TrimSpace(strings.ToLower(term))
	if utf8.RuneCountInString(t) < 3 || e.vocab.JunkBigrams.Has(t) {
		return true
	}
	words := strings.Fields(t)
	allNoise := true
	for _, w := range words {
		if !e.stop.Has(w) && !e.vocab.JunkWords.Has(w) {
			allNoise = false
			break
		}
	}
	if allNoise || reStandaloneDigits.MatchString(t) {
		return true
	}
	switch len(words) {
	case 1:
		return e.vocab.JunkWords.Has(t)
	case 2:
		return !e.vocab.Technical.Has(t) && !e.vocab.SoftSkills.Has(t)
	}
	return false
}

// Categorize resolves a term to a category by exact whitelist membership or
// by containing a long whitelisted term.
func (e *Extractor) Categorize(term string) Category {
	t := strings.ToLower(term)
	if e.vocab.Technical.Has(t) || containsAny(t, e.vocab.longTech) {
		return Technical
	}
	if e.vocab.SoftSkills.Has(t) || containsAny(t, e.vocab.longSoft) {
		return SoftSkill
	}
	return General
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func boostFor(c Category) float64 {
	if b, ok := rankBoost[c]; ok {
		return b
	}
	return 1.0
}

func placementHint(c Category) string {
	if h, ok := placementHints[c]; ok {
		return h
	}
	return "Add where relevant."
}

func suggestionsFor(term string, c Category) []string {
	switch c {
	case Technical:
		return []string{
			fmt.Sprintf("Add '%s' to your Technical Skills section.", term),
			fmt.Sprintf("Mention '%s' in a project or experience bullet.", term),
		}
	case SoftSkill:
		return []string{
			fmt.Sprintf("Show '%s' with a concrete example in your Experience.", term),
			fmt.Sprintf("Use '%s' in your professional summary.", term),
		}
	}
	return []string{fmt.Sprintf("Incorporate '%s' naturally where relevant.", term)}
}
