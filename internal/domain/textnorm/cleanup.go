package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// squishedAvgWordLen marks a line as run-together when its average
// whitespace-delimited word is longer than this.
const squishedAvgWordLen = 12

// minSentenceLen drops fragments from Sentences.
const minSentenceLen = 10

var (
	reManyNewlines  = regexp.MustCompile(`\n{3,}`)
	reManyBlanks    = regexp.MustCompile(`[ \t]{2,}`)
	reBlankRun      = regexp.MustCompile(`[ \t]+`)
	reNonASCII      = regexp.MustCompile(`[^\x00-\x7F]+`)
	reControl       = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	rePageNumber    = regexp.MustCompile(`\n\s*\d+\s*\n`)
	reRule          = regexp.MustCompile(`[-_=]{3,}`)
	reLeadingBullet = regexp.MustCompile(`(?m)^[•●◦▪▸►\-\*]\s*`)
	reSentenceStop  = regexp.MustCompile(`[.!?]\s+`)
)

// Preprocess repairs common document-extraction damage: mixed line endings,
// words glued together by column layouts, icon glyphs, control characters
// and blank lines. Compatibility characters (ligatures, full-width forms)
// are folded with NFKC before anything outside ASCII is dropped.
func Preprocess(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = desquish(line)
	}
	text = strings.Join(lines, "\n")

	text = reManyNewlines.ReplaceAllString(text, "\n\n")
	text = reManyBlanks.ReplaceAllString(text, " ")

	text = norm.NFKC.String(text)
	text = reNonASCII.ReplaceAllString(text, " ")
	text = reControl.ReplaceAllString(text, "")

	lines = strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// RemoveArtifacts strips page numbers, horizontal rules and leading bullet
// glyphs, then collapses blank runs.
func RemoveArtifacts(text string) string {
	text = rePageNumber.ReplaceAllString(text, "\n")
	text = reRule.ReplaceAllString(text, "")
	text = reLeadingBullet.ReplaceAllString(text, "")
	text = reBlankRun.ReplaceAllString(text, " ")
	text = reManyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Sentences splits text on terminal punctuation and keeps sentences longer
// than ten characters.
func Sentences(text string) []string {
	parts := reSentenceStop.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); utf8.RuneCountInString(p) > minSentenceLen {
			out = append(out, p)
		}
	}
	return out
}

// desquish inserts spaces at case and letter/digit boundaries of lines whose
// words are implausibly long, e.g. "SeniorSoftwareEngineer2019" becomes
// "Senior Software Engineer 2019".
func desquish(line string) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}
	total := 0
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	if float64(total)/float64(len(words)) <= squishedAvgWordLen {
		return line
	}
	line = splitBetween(line, func(prev []rune, cur, _ rune) bool {
		return isLowerASCII(last(prev)) && isUpperASCII(cur)
	})
	line = splitBetween(line, func(prev []rune, cur, next rune) bool {
		n := len(prev)
		return n >= 2 && isUpperASCII(prev[n-1]) && isUpperASCII(prev[n-2]) &&
			isUpperASCII(cur) && isLowerASCII(next)
	})
	line = splitBetween(line, func(prev []rune, cur, _ rune) bool {
		return isLetterASCII(last(prev)) && isDigitASCII(cur)
	})
	return splitBetween(line, func(prev []rune, cur, _ rune) bool {
		return isDigitASCII(last(prev)) && isLetterASCII(cur)
	})
}

// splitBetween inserts a space before every rune for which boundary holds.
// boundary sees the original runes before the position, the current rune
// and the rune after it (0 at the end).
func splitBetween(s string, boundary func(prev []rune, cur, next rune) bool) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + len(rs)/4)
	for i, r := range rs {
		var next rune
		if i+1 < len(rs) {
			next = rs[i+1]
		}
		if i > 0 && boundary(rs[:i], r, next) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func last(rs []rune) rune {
	if len(rs) == 0 {
		return 0
	}
	return rs[len(rs)-1]
}

func isLowerASCII(r rune) bool  { return r >= 'a' && r <= 'z' }
func isUpperASCII(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isDigitASCII(r rune) bool  { return r >= '0' && r <= '9' }
func isLetterASCII(r rune) bool { return isLowerASCII(r) || isUpperASCII(r) }
