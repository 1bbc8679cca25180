package suggest

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	promptKeywords   = 10
	promptIssues     = 8
	promptJobExcerpt = 500
	requestedCount   = 6
)

var (
	reBlockHeader = regexp.MustCompile(`(?i)^\s*SUGGESTION\s+(\d+)\s*:?\s*$`)
	reBlockField  = regexp.MustCompile(`(?i)^\s*(Text|Category|Impact|Difficulty)\s*:\s*(.*)$`)
)

var validImpact = map[string]string{"high": "High", "medium": "Medium", "low": "Low"}

func audienceNote(mode string) string {
	m := strings.ToLower(mode)
	switch {
	case strings.Contains(m, "student"), strings.Contains(m, "fresher"):
		return "The candidate is a student or fresher. Focus on academic projects, coursework, certifications and transferable skills. Do not suggest adding work experience they don't have."
	case strings.Contains(m, "intern"):
		return "The candidate is applying for an internship and may have limited experience. Focus on projects, skills and eagerness to learn."
	}
	return "The candidate is an experienced professional. Focus on impact quantification, leadership and senior-level positioning."
}

func orNone(items []string, sep, none string) string {
	if len(items) == 0 {
		return none
	}
	return strings.Join(items, sep)
}

// buildPrompt asks for a fixed number of blocks in the format parseSuggestions
// reads back.
func buildPrompt(c Context) string {
	kws := c.MissingKeywords[:min(promptKeywords, len(c.MissingKeywords))]
	issues := c.SectionImprovements[:min(promptIssues, len(c.SectionImprovements))]
	bullets := make([]string, len(issues))
	for i, s := range issues {
		bullets[i] = "- " + s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an ATS resume coach. %s\n\n", audienceNote(c.Mode))
	b.WriteString("ANALYSIS RESULTS:\n")
	fmt.Fprintf(&b, "- ATS Compatibility Score: %d/100\n", c.Score)
	fmt.Fprintf(&b, "- Missing Keywords: %s\n", orNone(kws, ", ", "None identified"))
	fmt.Fprintf(&b, "- Missing Resume Sections: %s\n", orNone(c.MissingSections, ", ", "None"))
	fmt.Fprintf(&b, "- Specific Section Issues:\n%s\n\n", orNone(bullets, "\n", "None"))
	fmt.Fprintf(&b, "Job Description (excerpt):\n%s\n\n", prefix(c.JobDescription, promptJobExcerpt))
	fmt.Fprintf(&b, "Generate exactly %d specific, actionable improvement suggestions.\n", requestedCount)
	b.WriteString("Format each one exactly like this, with no extra text:\n\n")
	b.WriteString("SUGGESTION 1:\nText: [specific actionable advice]\nCategory: [keywords/experience/structure/format/language/skills]\nImpact: [High/Medium/Low]\nDifficulty: [Low/Medium/High]\n")
	return b.String()
}

// parseSuggestions reads SUGGESTION blocks. Blocks without Text are skipped;
// priority follows the block number, clamped to 1..5.
func parseSuggestions(raw string) []Suggestion {
	var (
		out []Suggestion
		cur *Suggestion
	)
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			out = append(out, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(strings.Trim(sc.Text(), "*"))
		if m := reBlockHeader.FindStringSubmatch(line); m != nil {
			flush()
			n, _ := strconv.Atoi(m[1])
			cur = &Suggestion{Priority: min(max(n, 1), 5), Category: "content", Impact: "Medium", Difficulty: "Medium"}
			continue
		}
		if cur == nil {
			continue
		}
		m := reBlockField.FindStringSubmatch(line)
		if m == nil {
			if cur.Text != "" && line != "" {
				cur.Text += " " + line
			}
			continue
		}
		val := strings.TrimSpace(strings.Trim(m[2], "[]"))
		switch strings.ToLower(m[1]) {
		case "text":
			cur.Text = val
		case "category":
			if val != "" {
				cur.Category = strings.ToLower(val)
			}
		case "impact":
			if v, ok := validImpact[strings.ToLower(val)]; ok {
				cur.Impact = v
			}
		case "difficulty":
			if v, ok := validImpact[strings.ToLower(val)]; ok {
				cur.Difficulty = v
			}
		}
	}
	flush()
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
