// Package rules owns the user rule set and the usage counters that drive
// suggestion confidence.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/google/uuid"
)

// Snapshot is the persisted state of the store.
type Snapshot struct {
	BuiltinUsage map[string]model.Usage
	Rules        []model.Rule
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Rules:        make([]model.Rule, len(s.Rules)),
		BuiltinUsage: make(map[string]model.Usage, len(s.BuiltinUsage)),
	}
	for i, r := range s.Rules {
		c.Rules[i] = r.Clone()
	}
	for id, u := range s.BuiltinUsage {
		c.BuiltinUsage[id] = cloneUsage(u)
	}
	return c
}

func cloneUsage(u model.Usage) model.Usage {
	if u.LastUsed != nil {
		t := *u.LastUsed
		u.LastUsed = &t
	}
	return u
}

// Persistence loads and saves store snapshots.
type Persistence interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// Stats summarizes the user rule set.
type Stats struct {
	Total      int
	Enabled    int
	Disabled   int
	TotalUsage int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides rule ID assignment.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithBuiltins replaces the built-in rule table.
func WithBuiltins(builtins []model.Rule) Option {
	return func(s *Store) { s.builtins = builtins }
}

// Store is the single owner of user rules and usage counters. Every mutation
// runs against a copy of the state, is persisted, and only then becomes visible.
type Store struct {
	persistence Persistence
	state       *Snapshot
	now         func() time.Time
	newID       func() string
	builtins    []model.Rule
	mu          sync.RWMutex
}

// NewStore loads the persisted state and returns a ready store.
func NewStore(ctx context.Context, persistence Persistence, opts ...Option) (*Store, error) {
	s := &Store{
		persistence: persistence,
		now:         time.Now,
		newID:       uuid.NewString,
		builtins:    Builtins(),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := persistence.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	s.state = snap.Clone()

	slog.Debug("Rule store loaded",
		"user_rules", len(s.state.Rules),
		"builtin_rules", len(s.builtins))
	return s, nil
}

// mutate applies fn to a copy of the state, persists the copy and swaps it in.
// The store is unchanged if fn or the save fails.
func (s *Store) mutate(ctx context.Context, fn func(next *Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persistence.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to persist rules: %w", err)
	}
	s.state = next
	return nil
}

// Create validates and stores a new user rule.
func (s *Store) Create(ctx context.Context, in model.RuleInput) (*model.Rule, Warnings, error) {
	warnings, err := Validate(in)
	if err != nil {
		return nil, nil, err
	}

	var created model.Rule
	err = s.mutate(ctx, func(next *Snapshot) error {
		if dup := findByKey(next.Rules, in.Misspelling, in.Correction, ""); dup != nil {
			warnings = append(warnings, fmt.Sprintf("duplicates existing rule %s", dup.ID))
		}
		created = s.newRule(in, "")
		next.Rules = append(next.Rules, created)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Created rule", "id", created.ID, "misspelling", created.Misspelling)
	out := created.Clone()
	return &out, warnings, nil
}

// Update merges patch into the rule with the given id and revalidates it.
func (s *Store) Update(ctx context.Context, id string, patch model.RulePatch) (*model.Rule, Warnings, error) {
	if isBuiltinID(id) {
		return nil, nil, common.NewValidationError("id", "built-in rules are read-only")
	}

	var (
		updated  model.Rule
		warnings Warnings
	)
	err := s.mutate(ctx, func(next *Snapshot) error {
		idx := indexOf(next.Rules, id)
		if idx < 0 {
			return notFound(id)
		}
		merged := patch.Apply(next.Rules[idx])
		w, err := Validate(merged.Input())
		if err != nil {
			return err
		}
		warnings = w
		merged.Misspelling = strings.TrimSpace(merged.Misspelling)
		merged.Correction = strings.TrimSpace(merged.Correction)
		merged.UpdatedAt = s.now()
		next.Rules[idx] = merged
		updated = merged
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := updated.Clone()
	return &out, warnings, nil
}

// Delete removes a user rule. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	exists := indexOf(s.state.Rules, id) >= 0
	s.mu.RUnlock()
	if !exists {
		return nil
	}

	return s.mutate(ctx, func(next *Snapshot) error {
		next.Rules = slices.DeleteFunc(next.Rules, func(r model.Rule) bool { return r.ID == id })
		return nil
	})
}

// Toggle flips the enabled flag of a user rule.
func (s *Store) Toggle(ctx context.Context, id string) (*model.Rule, error) {
	if isBuiltinID(id) {
		return nil, common.NewValidationError("id", "built-in rules are read-only")
	}

	var toggled model.Rule
	err := s.mutate(ctx, func(next *Snapshot) error {
		idx := indexOf(next.Rules, id)
		if idx < 0 {
			return notFound(id)
		}
		next.Rules[idx].Enabled = !next.Rules[idx].Enabled
		next.Rules[idx].UpdatedAt = s.now()
		toggled = next.Rules[idx].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

// Get returns a copy of a user or built-in rule.
func (s *Store) Get(ctx context.Context, id string) (*model.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := indexOf(s.state.Rules, id); idx >= 0 {
		r := s.state.Rules[idx].Clone()
		return &r, nil
	}
	if b, ok := s.builtin(id); ok {
		return &b, nil
	}
	return nil, notFound(id)
}

// List returns copies of all user rules ordered by creation time.
func (s *Store) List(ctx context.Context) ([]model.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.state.Rules), nil
}

// Builtins returns the built-in rules with their current usage.
func (s *Store) Builtins(ctx context.Context) ([]model.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtinsLocked(), nil
}

// ActiveRules returns the matcher's view: built-ins followed by enabled user rules.
func (s *Store) ActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.builtinsLocked()
	for _, r := range sortedCopy(s.state.Rules) {
		if r.Enabled {
			active = append(active, r)
		}
	}
	return active, nil
}

// ClearAll removes every user rule. Built-in usage is kept.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.mutate(ctx, func(next *Snapshot) error {
		next.Rules = nil
		return nil
	})
}

// Stats computes counts over the user rule set.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, r := range s.state.Rules {
		st.Total++
		if r.Enabled {
			st.Enabled++
		} else {
			st.Disabled++
		}
		st.TotalUsage += r.Usage.TimesApplied
	}
	return st, nil
}

func (s *Store) newRule(in model.RuleInput, defaultCategory string) model.Rule {
	now := s.now()
	category := in.Category
	if category == "" {
		category = defaultCategory
	}
	if category == "" {
		category = model.CategoryCustom
	}
	return model.Rule{
		ID:            s.newID(),
		Misspelling:   strings.TrimSpace(in.Misspelling),
		Correction:    strings.TrimSpace(in.Correction),
		IsRegex:       in.IsRegex,
		CaseSensitive: in.CaseSensitive,
		Enabled:       in.IsEnabled(),
		Description:   in.Description,
		Category:      category,
		Examples:      append([]string(nil), in.Examples...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *Store) builtinsLocked() []model.Rule {
	out := make([]model.Rule, 0, len(s.builtins))
	for _, b := range s.builtins {
		b = b.Clone()
		b.Usage = cloneUsage(s.state.BuiltinUsage[b.ID])
		out = append(out, b)
	}
	return out
}

func (s *Store) builtin(id string) (model.Rule, bool) {
	for _, b := range s.builtins {
		if b.ID == id {
			b = b.Clone()
			b.Usage = cloneUsage(s.state.BuiltinUsage[id])
			return b, true
		}
	}
	return model.Rule{}, false
}

func (s *Store) isKnownBuiltin(id string) bool {
	for _, b := range s.builtins {
		if b.ID == id {
			return true
		}
	}
	return false
}

func indexOf(rules []model.Rule, id string) int {
	return slices.IndexFunc(rules, func(r model.Rule) bool { return r.ID == id })
}

// findByKey returns the first rule sharing the duplicate key, ignoring skipID.
func findByKey(rules []model.Rule, misspelling, correction, skipID string) *model.Rule {
	key := common.DuplicateKey(misspelling, correction)
	for i := range rules {
		if rules[i].ID == skipID {
			continue
		}
		if common.DuplicateKey(rules[i].Misspelling, rules[i].Correction) == key {
			return &rules[i]
		}
	}
	return nil
}

func sortedCopy(rules []model.Rule) []model.Rule {
	out := make([]model.Rule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	slices.SortStableFunc(out, func(a, b model.Rule) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func isBuiltinID(id string) bool {
	return model.Rule{ID: id}.IsBuiltin()
}

func notFound(id string) error {
	return fmt.Errorf("rule %q: %w", id, common.ErrNotFound)
}
