package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/phonocorrect/internal/model"
)

// ErrNotProposed is returned when no proposed suggestion sits at the given index.
var ErrNotProposed = errors.New("no such proposed suggestion")

// Entry is a suggestion together with its lifecycle state.
type Entry struct {
	State      model.SuggestionState
	Suggestion model.Suggestion
}

// Session tracks one text buffer and its current suggestion list.
// Every text change replaces the list; entries still proposed at that point
// become superseded. Suggestions rejected in this session are not proposed again.
//
// Accept and Reject take an index into Pending, so the indices of the
// remaining suggestions shift down after each decision.
type Session struct {
	engine    *Engine
	dismissed map[string]struct{}
	text      string
	set       model.SuggestionSet
	current   []Entry
	resolved  []Entry
	mu        sync.Mutex
}

// NewSession starts a session on text and computes its first suggestion list.
func (e *Engine) NewSession(ctx context.Context, text string) (*Session, error) {
	s := &Session{
		engine:    e,
		dismissed: make(map[string]struct{}),
	}
	if err := s.SetText(ctx, text); err != nil {
		return nil, err
	}
	return s, nil
}

// Text returns the current buffer.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Entries returns the current suggestion list.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.current...)
}

// Pending returns the current suggestions that are still proposed.
func (s *Session) Pending() []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Suggestion
	for _, e := range s.current {
		if e.State == model.StateProposed {
			out = append(out, e.Suggestion)
		}
	}
	return out
}

// Resolved returns every entry that has left the proposed state, oldest first.
func (s *Session) Resolved() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.resolved...)
}

// SetText replaces the buffer and recomputes the whole suggestion list.
func (s *Session) SetText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recheck(ctx, text)
}

// Accept applies the i-th pending suggestion, then re-checks the new text.
func (s *Session) Accept(ctx context.Context, i int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.proposed(i)
	if err != nil {
		return s.text, err
	}

	updated, err := s.engine.Accept(ctx, s.set, s.current[idx].Suggestion, s.text)
	if err != nil {
		return s.text, err
	}

	s.current[idx].State = model.StateAccepted
	s.resolved = append(s.resolved, s.current[idx])
	if err := s.recheck(ctx, updated); err != nil {
		// The edit stands; the list is empty until the next SetText.
		s.text = updated
		s.set = model.SuggestionSet{Version: Fingerprint(updated)}
		s.current = nil
		return updated, err
	}
	return updated, nil
}

// Reject dismisses the i-th pending suggestion without touching the text.
func (s *Session) Reject(ctx context.Context, i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.proposed(i)
	if err != nil {
		return err
	}
	entry := s.current[idx]
	if err := s.engine.Reject(ctx, entry.Suggestion); err != nil {
		return err
	}

	s.current[idx].State = model.StateRejected
	s.resolved = append(s.resolved, s.current[idx])
	s.dismissed[dismissKey(entry.Suggestion)] = struct{}{}
	return nil
}

// proposed maps the i-th pending suggestion to its position in current.
func (s *Session) proposed(i int) (int, error) {
	n := 0
	for idx, e := range s.current {
		if e.State != model.StateProposed {
			continue
		}
		if n == i {
			return idx, nil
		}
		n++
	}
	return -1, fmt.Errorf("suggestion %d (have %d pending): %w", i, n, ErrNotProposed)
}

// recheck must be called with mu held.
func (s *Session) recheck(ctx context.Context, text string) error {
	set, err := s.engine.Check(ctx, text)
	if err != nil {
		return err
	}

	for i := range s.current {
		if s.current[i].State == model.StateProposed {
			s.current[i].State = model.StateSuperseded
			s.resolved = append(s.resolved, s.current[i])
		}
	}

	filtered := make([]model.Suggestion, 0, len(set.Suggestions))
	for _, sg := range set.Suggestions {
		if _, ok := s.dismissed[dismissKey(sg)]; !ok {
			filtered = append(filtered, sg)
		}
	}
	set.Suggestions = filtered

	s.text = text
	s.set = set
	s.current = make([]Entry, len(set.Suggestions))
	for i, sg := range set.Suggestions {
		s.current[i] = Entry{Suggestion: sg, State: model.StateProposed}
	}
	return nil
}

func dismissKey(s model.Suggestion) string {
	return s.RuleID + "\x00" + strings.ToLower(s.Original)
}
