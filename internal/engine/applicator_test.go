package engine

import (
	"testing"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/pattern"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySuggestion(t *testing.T) {
	text := "I recieve your fone call"
	recieve := model.Suggestion{Original: "recieve", Suggestion: "receive", StartIndex: 2, EndIndex: 9}

	tests := []struct {
		name       string
		text       string
		want       string
		wantReason string
		suggestion model.Suggestion
	}{
		{
			name:       "splices correction",
			text:       text,
			suggestion: recieve,
			want:       "I receive your fone call",
		},
		{
			name:       "longer replacement",
			text:       "I would of gone",
			suggestion: model.Suggestion{Original: "would of", Suggestion: "would have", StartIndex: 2, EndIndex: 10},
			want:       "I would have gone",
		},
		{
			name:       "end past text",
			text:       "I rec",
			suggestion: recieve,
			wantReason: "out of bounds",
		},
		{
			name:       "negative start",
			text:       text,
			suggestion: model.Suggestion{Original: "I", Suggestion: "We", StartIndex: -1, EndIndex: 1},
			wantReason: "out of bounds",
		},
		{
			name:       "inverted span",
			text:       text,
			suggestion: model.Suggestion{Original: "", Suggestion: "x", StartIndex: 9, EndIndex: 2},
			wantReason: "inverted",
		},
		{
			name:       "text edited under the span",
			text:       "I received your fone call",
			suggestion: recieve,
			wantReason: "no longer matches",
		},
		{
			name:       "span splits a multi-byte character",
			text:       "café fone",
			suggestion: model.Suggestion{Original: "\xa9 fone", Suggestion: "x", StartIndex: 4, EndIndex: 10},
			wantReason: "splits a character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplySuggestion(tt.suggestion, tt.text)
			if tt.wantReason != "" {
				require.Error(t, err)
				var stale *common.StaleOffsetError
				require.ErrorAs(t, err, &stale)
				assert.Contains(t, stale.Reason, tt.wantReason)
				assert.Equal(t, len(tt.text), stale.Length)
				assert.ErrorIs(t, err, common.ErrStaleOffset)
				assert.Equal(t, tt.text, got, "text must be unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_ChecksFingerprint(t *testing.T) {
	text := "I recieve your fone call"
	m := pattern.NewMatcher(rules.Builtins())
	set := model.SuggestionSet{Version: Fingerprint(text), Suggestions: m.Match(text)}
	require.Len(t, set.Suggestions, 2)

	got, err := Apply(set, set.Suggestions[1], text)
	require.NoError(t, err)
	assert.Equal(t, "I recieve your phone call", got)

	// The same set cannot be applied to the edited text.
	_, err = Apply(set, set.Suggestions[0], got)
	require.ErrorIs(t, err, common.ErrStaleOffset)

	foreign := set.Suggestions[0]
	foreign.Suggestion = "something else"
	_, err = Apply(set, foreign, text)
	require.ErrorIs(t, err, common.ErrStaleOffset)
}

func TestApplyThenRematch_IsIdempotent(t *testing.T) {
	userRule := func(id, misspelling, correction string, isRegex bool) model.Rule {
		return model.Rule{ID: id, Misspelling: misspelling, Correction: correction, IsRegex: isRegex, Enabled: true}
	}
	ruleSet := append(rules.Builtins(),
		userRule("lot", "lot", "a lot", false),
		userRule("gonna", "gonna", "going to", false),
		userRule("colour", "colou?r", "colour", true),
		userRule("shd", "shd", "shd be", false),
	)
	m := pattern.NewMatcher(ruleSet)

	texts := []string{
		"I recieve your fone call",
		"I would of gone thru the nite",
		"Your welcome, it was a peace of cake",
		"I definately saw alot",
		"I like lot",
		"gonna paint it color, it shd dry",
		"LOT of thanks",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			current := text
			for step := 0; ; step++ {
				require.Less(t, step, 10, "corrections keep matching: %q", current)
				suggestions := m.Match(current)
				if len(suggestions) == 0 {
					break
				}
				first := suggestions[0]
				next, err := ApplySuggestion(first, current)
				require.NoError(t, err)

				inserted := model.Suggestion{StartIndex: first.StartIndex, EndIndex: first.StartIndex + len(first.Suggestion)}
				for _, s := range m.Match(next) {
					ownOutput := s.RuleID == first.RuleID && s.Overlaps(inserted)
					assert.False(t, ownOutput, "correction %q re-matched its own rule at %d", first.Suggestion, s.StartIndex)
				}
				require.NotEqual(t, current, next)
				current = next
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("hello"), Fingerprint("hello"))
	assert.NotEqual(t, Fingerprint("hello"), Fingerprint("hello "))
	assert.NotEmpty(t, Fingerprint(""))
}
