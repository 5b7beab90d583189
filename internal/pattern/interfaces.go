// Package pattern finds phonetic misspellings in text and ranks the corrections.
package pattern

import (
	"github.com/Veraticus/phonocorrect/internal/model"
)

// TextMatcher scans text against a fixed rule snapshot.
type TextMatcher interface {
	// Match returns non-overlapping suggestions sorted by start offset.
	Match(text string) []model.Suggestion
}

// Ensure Matcher implements TextMatcher.
var _ TextMatcher = (*Matcher)(nil)
