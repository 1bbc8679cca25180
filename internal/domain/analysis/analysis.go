// Package analysis runs the resume against job description pipeline and
// assembles one report from similarity, keyword, section and suggestion
// results.
package analysis

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/atscore/internal/domain/keywords"
	"github.com/okian/atscore/internal/domain/scoring"
	"github.com/okian/atscore/internal/domain/sections"
	"github.com/okian/atscore/internal/domain/suggest"
	"github.com/okian/atscore/internal/domain/textnorm"
	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"
)

// MinJobDescriptionLength is the shortest job description, in characters
// after trimming, that is worth analyzing.
const MinJobDescriptionLength = 50

const suggestionKeywords = 10

// Mode is the candidate's career stage.
type Mode string

// Candidate modes.
const (
	ModeExperienced Mode = "experienced"
	ModeStudent     Mode = "student"
	ModeFresher     Mode = "fresher"
	ModeInternship  Mode = "internship"
)

// ParseMode reads a mode name. An empty name is ModeExperienced.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeExperienced, nil
	case ModeExperienced, ModeStudent, ModeFresher, ModeInternship:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// EntryLevel reports whether the candidate is not expected to have work
// experience.
func (m Mode) EntryLevel() bool {
	return m == ModeStudent || m == ModeFresher || m == ModeInternship
}

// Input is one resume and job description pair.
type Input struct {
	Resume         string
	JobDescription string
	Mode           Mode
}

// Validate checks the preconditions of Analyze.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Resume) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrEmptyResume)
	}
	job := strings.TrimSpace(in.JobDescription)
	if job == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrEmptyJobDescription)
	}
	if n := utf8.RuneCountInString(job); n < MinJobDescriptionLength {
		return fmt.Errorf("%w: %w: %d characters, need at least %d",
			ErrInvalidInput, ErrJobDescriptionTooShort, n, MinJobDescriptionLength)
	}
	return nil
}

// Report is the outcome of one analysis.
type Report struct {
	Score            int                       `json:"ats_score"`
	Mode             Mode                      `json:"candidate_mode"`
	Metrics          scoring.Metrics           `json:"metrics"`
	JobKeywords      []keywords.Keyword        `json:"job_keywords"`
	MissingKeywords  []keywords.RankedKeyword  `json:"missing_keywords"`
	SectionScores    map[string]sections.Score `json:"section_scores"`
	Completeness     sections.Report           `json:"completeness"`
	MissingSections  []string                  `json:"missing_sections"`
	Suggestions      []suggest.Suggestion      `json:"suggestions"`
	SuggestionSource suggest.Source            `json:"suggestion_source"`
	ElapsedMS        int64                     `json:"elapsed_ms"`
}

// Analyzer composes the analytic components. It holds no per-analysis state
// and is safe for concurrent use.
type Analyzer struct {
	scorer    *scoring.Scorer
	extractor *keywords.Extractor
	generator *suggest.Generator
	log       logger.Logger
}

// New creates an Analyzer. Components not supplied by options use their
// defaults; the default generator only produces rule-based suggestions.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.NamedOrDiscard("analysis")
	}
	if a.scorer == nil {
		a.scorer = scoring.New(scoring.WithLogger(a.log))
	}
	if a.extractor == nil {
		a.extractor = keywords.NewExtractor(keywords.WithLogger(a.log))
	}
	if a.generator == nil {
		a.generator = suggest.NewGenerator(nil, suggest.WithLogger(a.log))
	}
	return a
}

// Analyze scores the resume against the job description. Only input
// preconditions and a done context produce errors.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (Report, error) {
	if err := in.Validate(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("analysis: %w", err)
	}
	if in.Mode == "" {
		in.Mode = ModeExperienced
	}
	start := time.Now()

	resume := textnorm.Preprocess(in.Resume)
	if resume == "" {
		return Report{}, fmt.Errorf("%w: %w: nothing left after cleanup", ErrInvalidInput, ErrEmptyResume)
	}
	job := in.JobDescription

	var m scoring.Metrics
	stage("similarity", func() { m = a.scorer.DetailedMetrics(resume, job) })

	var (
		jobKeywords []keywords.Keyword
		ranked      []keywords.RankedKeyword
	)
	stage("keywords", func() {
		jobKeywords = a.extractor.Extract(job)
		ranked = keywords.Rank(a.extractor.FindMissing(resume, jobKeywords))
	})

	var (
		completeness  sections.Report
		sectionScores map[string]sections.Score
		improvements  []string
	)
	stage("sections", func() {
		found := sections.Identify(resume)
		ev := sections.NewEvaluator(resume)
		completeness = ev.Completeness(found)
		sectionScores = make(map[string]sections.Score, len(found))
		for _, k := range found.Kinds() {
			sc := ev.Score(found[k], job)
			sectionScores[k.String()] = sc
			improvements = append(improvements, sc.ImprovementAreas...)
		}
	})

	missingSections := slices.Clone(completeness.MissingSections)
	if in.Mode.EntryLevel() {
		missingSections = slices.DeleteFunc(missingSections, func(s string) bool {
			return s == sections.Experience.String()
		})
	}

	top := make([]string, 0, min(suggestionKeywords, len(ranked)))
	for _, rk := range ranked[:min(suggestionKeywords, len(ranked))] {
		top = append(top, rk.Term)
	}

	var (
		suggestions []suggest.Suggestion
		source      suggest.Source
	)
	stage("suggestions", func() {
		suggestions, source = a.generator.Suggest(ctx, suggest.Context{
			Score:               m.NormalizedScore,
			MissingKeywords:     top,
			MissingSections:     missingSections,
			SectionImprovements: improvements,
			JobDescription:      job,
			Mode:                string(in.Mode),
		})
	})
	metrics.RecordSuggestionSource(string(source))
	if a.generator.Enabled() && source == suggest.SourceRules {
		metrics.RecordGeneratorFailure()
	}

	elapsed := time.Since(start)
	metrics.RecordAnalysisCompleted(m.NormalizedScore, len(ranked), float64(elapsed.Milliseconds()))
	a.log.Debug(ctx, "analysis finished",
		logger.Int("score", m.NormalizedScore),
		logger.Int("missing_keywords", len(ranked)),
		logger.Int("sections", len(sectionScores)),
		logger.String("suggestion_source", string(source)),
		logger.Duration("elapsed", elapsed))

	return Report{
		Score:            m.NormalizedScore,
		Mode:             in.Mode,
		Metrics:          m,
		JobKeywords:      jobKeywords,
		MissingKeywords:  ranked,
		SectionScores:    sectionScores,
		Completeness:     completeness,
		MissingSections:  missingSections,
		Suggestions:      suggestions,
		SuggestionSource: source,
		ElapsedMS:        elapsed.Milliseconds(),
	}, nil
}

// DraftSection produces content for one resume section. The job description
// and resume give the draft its terms; role may be empty.
func (a *Analyzer) DraftSection(ctx context.Context, section, role string, in Input) (string, suggest.Source) {
	return a.generator.DraftSection(ctx, section, suggest.Draft{
		Role:           role,
		Mode:           string(in.Mode),
		JobDescription: in.JobDescription,
		Resume:         textnorm.Preprocess(in.Resume),
		Vocabulary:     a.extractor.Vocabulary(),
	})
}

func stage(name string, fn func()) {
	start := time.Now()
	fn()
	metrics.RecordStageLatency(name, float64(time.Since(start).Microseconds())/1000)
}
