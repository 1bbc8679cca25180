package textnorm

import "sort"

// professionalStopWords are function and filler words that carry no skill
// signal in resumes or job postings.
var professionalStopWords = newSet(
	"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "is", "are", "was", "were", "be", "been",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "shall", "can", "this", "that", "these",
	"those", "i", "we", "you", "he", "she", "it", "they", "our", "your",
	"their", "my", "his", "her", "its", "not", "no", "as", "if", "so",
	"up", "out", "about", "into", "through", "during", "before", "after",
	"above", "below", "between", "each", "all", "both", "few", "more",
	"most", "other", "some", "such", "than", "too", "very", "just",
	"also", "well", "even", "back", "any", "good", "new", "first", "last",
	"long", "great", "little", "own", "right", "big", "high", "different",
	"small", "large", "next", "early", "young", "important", "public",
	"work", "know", "take", "make", "see", "come", "think", "look",
	"want", "give", "use", "find", "tell", "ask", "seem", "feel", "try",
	"leave", "call", "keep", "let", "begin", "show", "hear", "play",
	"run", "move", "live", "believe", "hold", "bring", "happen", "write",
	"provide", "sit", "stand", "lose", "pay", "meet", "include", "continue",
	"set", "learn", "change", "lead", "understand", "watch", "follow",
	"stop", "create", "speak", "read", "spend", "grow", "open", "walk",
	"win", "offer", "remember", "love", "consider", "appear", "buy",
	"wait", "serve", "die", "send", "expect", "build", "stay", "fall",
	"cut", "reach", "kill", "remain", "suggest", "raise", "pass", "sell",
	"require", "report", "decide", "pull", "per", "etc",
)

// Set is an immutable string set.
type Set struct {
	m map[string]struct{}
}

func newSet(words ...string) Set {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return Set{m: m}
}

// NewSet builds a Set from words.
func NewSet(words ...string) Set { return newSet(words...) }

// Has reports whether w is in the set.
func (s Set) Has(w string) bool {
	_, ok := s.m[w]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.m) }

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s.m))
	for w := range s.m {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// StopWords returns the professional stop-word set shared by all analyzers.
func StopWords() Set { return professionalStopWords }

// IsStopWord reports whether w is a professional stop word.
func IsStopWord(w string) bool { return professionalStopWords.Has(w) }
