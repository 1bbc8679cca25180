package keywords

import "errors"

// ErrVocabulary is returned when a vocabulary file cannot be loaded.
var ErrVocabulary = errors.New("invalid vocabulary")
