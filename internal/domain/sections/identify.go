package sections

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxHeaderLineLen     = 60
	maxNextHeaderLineLen = 45
	captureWindow        = 50
	headerLines          = 6
	heuristicContactLen  = 200
)

// Section is a contiguous span of resume lines under one header.
// Start and End are line offsets.
type Section struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Start   int    `json:"start_idx"`
	End     int    `json:"end_idx"`
}

// Sections maps each identified kind to its section.
type Sections map[Kind]Section

// Kinds returns the identified kinds in detection order.
func (s Sections) Kinds() []Kind {
	out := make([]Kind, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func mustAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// headerPatterns are matched anywhere in a lowercased candidate header line.
var headerPatterns = map[Kind][]*regexp.Regexp{
	Contact: mustAll(
		`contact\s*(information|info|details)?`,
		`personal\s*(information|info|details)?`,
		`(phone|email|address|linkedin|github)`,
	),
	Summary: mustAll(
		`(professional\s*)?(summary|profile|objective|overview|about)`,
		`career\s*(objective|summary|goal)`,
	),
	Skills: mustAll(
		`(technical\s*)?(skills?|competencies|expertise|technologies)`,
		`(core\s*)?competencies`,
		`tools?\s*(and\s*technologies)?`,
	),
	Experience: mustAll(
		`(work|professional|relevant)?\s*(experience|history|background)`,
		`employment\s*(history|record)?`,
		`(internship|internships)`,
		`positions?\s*held`,
	),
	Education: mustAll(
		`education(al)?\s*(background|qualifications?)?`,
		`academic\s*(background|qualifications?|history)?`,
		`(degrees?|qualifications?)`,
		`university|college|school`,
	),
	Projects: mustAll(
		`(personal\s*|academic\s*|key\s*)?(projects?|portfolio)`,
		`(notable|relevant)\s*projects?`,
	),
	Certifications: mustAll(
		`certifications?\s*(and\s*licenses?)?`,
		`licenses?\s*(and\s*certifications?)?`,
		`credentials?|courses?|training`,
	),
	Achievements: mustAll(
		`(awards?|achievements?|accomplishments?|honors?|recognition)`,
		`publications?|presentations?`,
	),
}

var (
	reLabelValue = regexp.MustCompile(`\w+\s*:\s*\w`)

	reHeuristicContact    = regexp.MustCompile(`\b(email|phone|linkedin|github|@)\b`)
	reHeuristicSkills     = regexp.MustCompile(`\b(python|java|sql|excel|aws|react)\b`)
	reHeuristicExperience = regexp.MustCompile(`\b(intern|engineer|developer|analyst|manager|worked|responsible)\b`)
	reHeuristicEducation  = regexp.MustCompile(`\b(university|college|bachelor|master|degree|b\.tech|m\.tech|bsc|msc)\b`)

	contactHeaderPatterns = mustAll(
		`[\w.+-]+@[\w.-]+\.[a-z]{2,}`,
		`\+?\d[\d\s\-().]{7,15}\d`,
		`linkedin\.com`,
		`github\.com`,
	)
)

var bulletPrefixes = []string{"•", "-", "*", "·"}

// Identify splits resume text into sections. Each kind is identified at most
// once, first header wins. When no header matches, coarse keyword heuristics
// guess sections over the whole text. Contact details in the first lines
// yield a contact section even without a header.
func Identify(text string) Sections {
	if text == "" {
		return Sections{}
	}
	lines := strings.Split(text, "\n")
	found := Sections{}

	for i, line := range lines {
		clean := strings.ToLower(strings.TrimSpace(line))
		if clean == "" || utf8.RuneCountInString(clean) > maxHeaderLineLen {
			continue
		}
		for _, k := range detectionOrder {
			if _, ok := found[k]; ok || !matchesAny(headerPatterns[k], clean) {
				continue
			}
			captured := captureBody(lines, i, k)
			found[k] = Section{
				Kind:    k,
				Name:    k.String(),
				Content: strings.Join(captured, "\n"),
				Start:   i,
				End:     i + len(captured),
			}
		}
	}

	if len(found) == 0 {
		found = detectByContent(text)
	}

	if _, ok := found[Contact]; !ok {
		head := lines[:min(headerLines, len(lines))]
		headText := strings.Join(head, "\n")
		if matchesAny(contactHeaderPatterns, headText) {
			found[Contact] = Section{Kind: Contact, Name: Contact.String(), Content: headText, Start: 0, End: headerLines}
		}
	}
	return found
}

// captureBody collects the lines after a header up to the next header of a
// different kind, within the capture window.
func captureBody(lines []string, header int, k Kind) []string {
	var out []string
	end := min(header+captureWindow, len(lines))
	for j := header + 1; j < end; j++ {
		next := strings.ToLower(strings.TrimSpace(lines[j]))
		if next != "" && isOtherHeader(next, k) {
			break
		}
		out = append(out, lines[j])
	}
	return out
}

// isOtherHeader reports whether a lowercased line looks like the header of a
// section other than current. Long lines, "label: value" lines and bullets
// are body text.
func isOtherHeader(line string, current Kind) bool {
	if utf8.RuneCountInString(line) > maxNextHeaderLineLen || reLabelValue.MatchString(line) {
		return false
	}
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return false
		}
	}
	for _, k := range detectionOrder {
		if k != current && matchesAny(headerPatterns[k], line) {
			return true
		}
	}
	return false
}

func detectByContent(text string) Sections {
	lower := strings.ToLower(text)
	out := Sections{}
	whole := utf8.RuneCountInString(text)

	if reHeuristicContact.MatchString(lower) {
		out[Contact] = Section{Kind: Contact, Name: Contact.String(), Content: prefixRunes(text, heuristicContactLen), Start: 0, End: heuristicContactLen}
	}
	if reHeuristicSkills.MatchString(lower) {
		out[Skills] = Section{Kind: Skills, Name: Skills.String(), Content: text, Start: 0, End: whole}
	}
	if reHeuristicExperience.MatchString(lower) {
		out[Experience] = Section{Kind: Experience, Name: Experience.String(), Content: text, Start: 0, End: whole}
	}
	if reHeuristicEducation.MatchString(lower) {
		out[Education] = Section{Kind: Education, Name: Education.String(), Content: text, Start: 0, End: whole}
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
