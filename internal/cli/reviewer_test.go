package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/phonocorrect/internal/engine"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, text string) (*engine.Session, *rules.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := rules.NewStore(ctx, rules.NewMemoryPersistence(nil))
	require.NoError(t, err)
	sess, err := engine.New(store, nil).NewSession(ctx, text)
	require.NoError(t, err)
	return sess, store
}

func TestReviewer_Review(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		want     ReviewStats
	}{
		{
			name:     "accept everything",
			input:    "a\na\n",
			wantText: "I receive your phone call",
			want:     ReviewStats{Reviewed: 2, Accepted: 2},
		},
		{
			name:     "skip then accept",
			input:    "s\na\n",
			wantText: "I recieve your phone call",
			want:     ReviewStats{Reviewed: 2, Accepted: 1, Skipped: 1},
		},
		{
			name:     "reject everything",
			input:    "r\nR\n",
			wantText: "I recieve your fone call",
			want:     ReviewStats{Reviewed: 2, Rejected: 2},
		},
		{
			name:     "reject then accept",
			input:    "r\na\n",
			wantText: "I recieve your phone call",
			want:     ReviewStats{Reviewed: 2, Accepted: 1, Rejected: 1},
		},
		{
			name:     "skip then reject then accept",
			input:    "s\nr\n",
			wantText: "I recieve your fone call",
			want:     ReviewStats{Reviewed: 2, Rejected: 1, Skipped: 1},
		},
		{
			name:     "quit keeps earlier decisions",
			input:    "a\nq\n",
			wantText: "I receive your fone call",
			want:     ReviewStats{Reviewed: 1, Accepted: 1},
		},
		{
			name:     "invalid choice then valid",
			input:    "maybe\na\na\n",
			wantText: "I receive your phone call",
			want:     ReviewStats{Reviewed: 2, Accepted: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _ := newSession(t, "I recieve your fone call")
			var out bytes.Buffer
			r := NewReviewer(strings.NewReader(tt.input), &out)

			text, err := r.Review(context.Background(), sess)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)

			got := r.Stats()
			got.Duration = 0
			assert.Equal(t, tt.want, got)

			if strings.HasPrefix(tt.input, "maybe") {
				assert.Contains(t, out.String(), "Invalid choice")
			}
		})
	}
}

func TestReviewer_RecordsFeedback(t *testing.T) {
	sess, store := newSession(t, "thru the nite")
	r := NewReviewer(strings.NewReader("a\nr\n"), &bytes.Buffer{})

	_, err := r.Review(context.Background(), sess)
	require.NoError(t, err)

	thru, err := store.Get(context.Background(), "builtin:thru")
	require.NoError(t, err)
	assert.Equal(t, 1, thru.Usage.TimesApplied)

	nite, err := store.Get(context.Background(), "builtin:nite")
	require.NoError(t, err)
	assert.Equal(t, 1, nite.Usage.TimesRejected)
}

func TestReviewer_ShowsSuggestionDetails(t *testing.T) {
	sess, _ := newSession(t, "good nite")
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("s\n"), &out)

	_, err := r.Review(context.Background(), sess)
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "nite")
	assert.Contains(t, output, "night")
	assert.Contains(t, output, "[A] Accept")
}

func TestReviewer_NothingToReview(t *testing.T) {
	sess, _ := newSession(t, "all good here")
	r := NewReviewer(strings.NewReader(""), &bytes.Buffer{})

	text, err := r.Review(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "all good here", text)
	assert.Zero(t, r.Stats().Reviewed)
}

func TestReviewer_InputErrors(t *testing.T) {
	t.Run("input ends", func(t *testing.T) {
		sess, _ := newSession(t, "good nite")
		r := NewReviewer(strings.NewReader(""), &bytes.Buffer{})
		_, err := r.Review(context.Background(), sess)
		assert.ErrorIs(t, err, ErrInputClosed)
	})

	t.Run("canceled", func(t *testing.T) {
		sess, _ := newSession(t, "good nite")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := NewReviewer(strings.NewReader("a\n"), &bytes.Buffer{})
		text, err := r.Review(ctx, sess)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, "good nite", text)
	})
}

func TestReviewer_ShowCompletion(t *testing.T) {
	sess, _ := newSession(t, "good nite")
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("a\n"), &out)
	_, err := r.Review(context.Background(), sess)
	require.NoError(t, err)

	out.Reset()
	r.ShowCompletion()
	assert.Contains(t, out.String(), "Review Complete")
	assert.Contains(t, out.String(), "Accepted: 1")
}
