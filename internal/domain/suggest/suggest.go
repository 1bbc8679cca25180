// Package suggest turns analysis results into a short, prioritized list of
// resume improvements. Rules always produce a complete list; a generative
// Completer may replace it when available.
package suggest

import (
	"fmt"
	"slices"
	"strings"
)

// Source records which path produced a suggestion list.
type Source string

// Suggestion sources.
const (
	SourceRules     Source = "rules"
	SourceGenerator Source = "generator"
)

const (
	maxSuggestions    = 7
	maxKeywordsQuoted = 5
	maxSectionHints   = 2
)

// Suggestion is one recommendation. Priority 1 is the most urgent.
type Suggestion struct {
	Text       string `json:"suggestion"`
	Priority   int    `json:"priority"`
	Category   string `json:"category"`
	Impact     string `json:"impact_estimate"`
	Difficulty string `json:"implementation_difficulty"`
}

// Context is the analysis outcome suggestions are derived from.
type Context struct {
	Score               int
	MissingKeywords     []string
	MissingSections     []string
	SectionImprovements []string
	JobDescription      string
	Mode                string
}

// EntryLevel reports whether the candidate mode is student, fresher or
// internship.
func (c Context) EntryLevel() bool {
	return isEntryLevel(c.Mode)
}

func isEntryLevel(mode string) bool {
	m := strings.ToLower(mode)
	return strings.Contains(m, "student") || strings.Contains(m, "fresher") || strings.Contains(m, "intern")
}

// Rules builds suggestions from the analysis alone. The result is never
// empty and holds at most seven entries.
func Rules(c Context) []Suggestion {
	var out []Suggestion
	add := func(text string, priority int, category, impact, difficulty string) {
		out = append(out, Suggestion{Text: text, Priority: priority, Category: category, Impact: impact, Difficulty: difficulty})
	}
	entry := c.EntryLevel()

	if len(c.MissingKeywords) > 0 {
		top := c.MissingKeywords[:min(maxKeywordsQuoted, len(c.MissingKeywords))]
		quoted := make([]string, len(top))
		for i, k := range top {
			quoted[i] = fmt.Sprintf("%q", k)
		}
		add(fmt.Sprintf("Add these high-priority keywords to your Skills or Projects section: %s. These appear in the JD but not in your resume.",
			strings.Join(quoted, ", ")), 1, "keywords", "High", "Low")
	}

	if slices.Contains(c.MissingSections, "summary") {
		add("Add a 3-4 sentence Professional Summary tailored to this role. It's the first thing ATS systems and recruiters read.",
			1, "structure", "High", "Low")
	}
	if slices.Contains(c.MissingSections, "experience") && !entry {
		add("Add a Work Experience section. Even internships, freelance work, or part-time roles count.",
			1, "structure", "High", "Medium")
	}

	switch {
	case c.Score < 50:
		add(fmt.Sprintf("Your keyword match is low (%d/100). Mirror the exact phrasing from the JD, since ATS systems do exact-match. Try copying 3-4 job requirement phrases directly into your Skills section.", c.Score),
			1, "keywords", "High", "Low")
	case c.Score < 65:
		add(fmt.Sprintf("Good foundation (%d/100). Focus on adding the missing technical keywords above to your Projects bullets. This is the fastest way to improve your score.", c.Score),
			2, "keywords", "High", "Low")
	}

	if entry {
		add("For freshers: quantify every project metric you have. Format: 'Achieved X% accuracy on N samples using Y'. Numbers dramatically increase ATS and recruiter attention.",
			2, "experience", "High", "Low")
	} else {
		add("Start every bullet with a strong action verb and include a measurable outcome (%, $, time saved, scale). Example: 'Reduced inference latency by 40% using model quantization'.",
			2, "language", "Medium", "Low")
	}

	for _, imp := range firstUnique(c.SectionImprovements, maxSectionHints) {
		add(imp, 3, "content", "Medium", "Low")
	}

	if len(c.MissingKeywords) > maxKeywordsQuoted {
		add(fmt.Sprintf("You have %d missing keywords. Don't add them all at once; focus on the top 5 technical ones. Adding skills you don't have will hurt you in interviews.", len(c.MissingKeywords)),
			3, "strategy", "Medium", "Low")
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func firstUnique(items []string, n int) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if len(out) == n {
			break
		}
	}
	return out
}
