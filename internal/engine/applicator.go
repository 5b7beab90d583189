package engine

import (
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a text buffer version. Suggestion sets carry the
// fingerprint of the text they were computed against.
func Fingerprint(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// ApplySuggestion splices the correction into text at the suggestion's span.
// On any mismatch between the span and text it returns text unchanged and a
// *common.StaleOffsetError.
func ApplySuggestion(s model.Suggestion, text string) (string, error) {
	stale := func(reason string) (string, error) {
		return text, &common.StaleOffsetError{
			Reason: reason,
			Start:  s.StartIndex,
			End:    s.EndIndex,
			Length: len(text),
		}
	}

	switch {
	case s.StartIndex < 0 || s.EndIndex > len(text):
		return stale("span out of bounds")
	case s.StartIndex >= s.EndIndex:
		return stale("empty or inverted span")
	case !onRuneBoundary(text, s.StartIndex) || !onRuneBoundary(text, s.EndIndex):
		return stale("span splits a character")
	case text[s.StartIndex:s.EndIndex] != s.Original:
		return stale("text at span no longer matches the original")
	}

	return text[:s.StartIndex] + s.Suggestion + text[s.EndIndex:], nil
}

// Apply is ApplySuggestion guarded by the set's fingerprint: it refuses when
// text is not the buffer the set was computed against or s is not in the set.
func Apply(set model.SuggestionSet, s model.Suggestion, text string) (string, error) {
	if set.Version != Fingerprint(text) {
		return text, &common.StaleOffsetError{
			Reason: "text changed since suggestions were computed",
			Start:  s.StartIndex,
			End:    s.EndIndex,
			Length: len(text),
		}
	}
	if !slices.Contains(set.Suggestions, s) {
		return text, &common.StaleOffsetError{
			Reason: "suggestion is not part of the current set",
			Start:  s.StartIndex,
			End:    s.EndIndex,
			Length: len(text),
		}
	}
	return ApplySuggestion(s, text)
}

func onRuneBoundary(text string, i int) bool {
	return i == len(text) || utf8.RuneStart(text[i])
}
