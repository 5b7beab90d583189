package model

// SuggestionState is the lifecycle state of a proposed correction.
type SuggestionState string

// Suggestion lifecycle states.
const (
	StateProposed   SuggestionState = "proposed"
	StateAccepted   SuggestionState = "accepted"
	StateRejected   SuggestionState = "rejected"
	StateSuperseded SuggestionState = "superseded"
)

// Suggestion is a position-anchored correction candidate produced by the matcher.
// StartIndex and EndIndex are byte offsets into the text that was scanned,
// describing the half-open span [StartIndex, EndIndex).
type Suggestion struct {
	Original    string  `json:"original"`
	Suggestion  string  `json:"suggestion"`
	Pattern     string  `json:"pattern"`
	Explanation string  `json:"explanation,omitempty"`
	RuleID      string  `json:"ruleId"`
	Band        string  `json:"band,omitempty"`
	StartIndex  int     `json:"startIndex"`
	EndIndex    int     `json:"endIndex"`
	Confidence  float64 `json:"confidence"`
}

// Len returns the length of the matched span.
func (s Suggestion) Len() int {
	return s.EndIndex - s.StartIndex
}

// Overlaps reports whether the two spans share at least one byte.
func (s Suggestion) Overlaps(o Suggestion) bool {
	return s.StartIndex < o.EndIndex && o.StartIndex < s.EndIndex
}

// SuggestionSet is a suggestion list tagged with the fingerprint of the text it
// was computed against. Offsets are only valid for text with the same fingerprint.
type SuggestionSet struct {
	Version     string       `json:"version"`
	Suggestions []Suggestion `json:"suggestions"`
}
