package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// failingPersistence loads normally and refuses every save.
type failingPersistence struct {
	*MemoryPersistence
}

func (f failingPersistence) Save(context.Context, *Snapshot) error {
	return errDiskFull
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * time.Second)
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *MemoryPersistence) {
	t.Helper()
	mem := NewMemoryPersistence(nil)
	var seq atomic.Int64
	defaults := []Option{
		WithClock(steppingClock()),
		WithIDGenerator(func() string { return fmt.Sprintf("rule-%03d", seq.Add(1)) }),
	}
	store, err := NewStore(context.Background(), mem, append(defaults, opts...)...)
	require.NoError(t, err)
	return store, mem
}

func mustCreate(t *testing.T, store *Store, misspelling, correction string) *model.Rule {
	t.Helper()
	rule, _, err := store.Create(context.Background(), model.RuleInput{Misspelling: misspelling, Correction: correction})
	require.NoError(t, err)
	return rule
}

func TestStore_Create(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	rule, warnings, err := store.Create(ctx, model.RuleInput{
		Misspelling: "  nite ",
		Correction:  "night",
		Examples:    []string{"good nite"},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "rule-001", rule.ID)
	assert.Equal(t, "nite", rule.Misspelling)
	assert.Equal(t, model.CategoryCustom, rule.Category)
	assert.True(t, rule.Enabled)
	assert.Equal(t, model.Usage{}, rule.Usage)
	assert.Equal(t, rule.CreatedAt, rule.UpdatedAt)
	assert.Equal(t, 1, mem.Saves())

	got, err := store.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, *rule, *got)
}

func TestStore_CreateWarnsOnDuplicate(t *testing.T) {
	store, _ := newTestStore(t)
	first := mustCreate(t, store, "nite", "night")

	_, warnings, err := store.Create(context.Background(), model.RuleInput{Misspelling: "NITE", Correction: "Night "})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], first.ID)
}

func TestStore_InvalidRegexLeavesStoreUnchanged(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, "nite", "night")
	before, err := store.List(ctx)
	require.NoError(t, err)

	_, _, err = store.Create(ctx, model.RuleInput{Misspelling: "(unclosed", Correction: "x", IsRegex: true})
	require.Error(t, err)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("misspelling"))

	after, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, mem.Saves())
}

func TestStore_FailedSaveLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	seed := &Snapshot{Rules: []model.Rule{{ID: "kept", Misspelling: "nite", Correction: "night", Enabled: true}}}
	store, err := NewStore(ctx, failingPersistence{NewMemoryPersistence(seed)})
	require.NoError(t, err)

	_, _, err = store.Create(ctx, model.RuleInput{Misspelling: "thru", Correction: "through"})
	require.ErrorIs(t, err, errDiskFull)

	err = store.RecordApplied(ctx, "kept")
	require.ErrorIs(t, err, errDiskFull)

	rules, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 0, rules[0].Usage.TimesApplied)
}

func TestStore_Update(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	rule := mustCreate(t, store, "nite", "night")

	correction := "knight"
	updated, _, err := store.Update(ctx, rule.ID, model.RulePatch{Correction: &correction})
	require.NoError(t, err)
	assert.Equal(t, "knight", updated.Correction)
	assert.Equal(t, rule.ID, updated.ID)
	assert.Equal(t, rule.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(rule.UpdatedAt))

	empty := ""
	_, _, err = store.Update(ctx, rule.ID, model.RulePatch{Misspelling: &empty})
	require.ErrorIs(t, err, common.ErrValidation)

	got, err := store.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "nite", got.Misspelling)

	_, _, err = store.Update(ctx, "missing", model.RulePatch{Correction: &correction})
	require.ErrorIs(t, err, common.ErrNotFound)

	_, _, err = store.Update(ctx, "builtin:fone", model.RulePatch{Correction: &correction})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	rule := mustCreate(t, store, "nite", "night")

	require.NoError(t, store.Delete(ctx, rule.ID))
	require.NoError(t, store.Delete(ctx, rule.ID))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	_, err := store.Get(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_Toggle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	rule := mustCreate(t, store, "nite", "night")

	toggled, err := store.Toggle(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	toggled, err = store.Toggle(ctx, rule.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)

	_, err = store.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_ListOrderedByCreation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	a := mustCreate(t, store, "nite", "night")
	b := mustCreate(t, store, "thru", "through")
	c := mustCreate(t, store, "skool", "school")

	rules, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{rules[0].ID, rules[1].ID, rules[2].ID})

	// Returned rules are copies.
	rules[0].Correction = "mutated"
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "night", got.Correction)
}

func TestStore_ActiveRules(t *testing.T) {
	builtins := []model.Rule{
		{ID: "builtin:fone", Misspelling: "fone", Correction: "phone", Confidence: 0.95, Enabled: true},
	}
	store, _ := newTestStore(t, WithBuiltins(builtins))
	ctx := context.Background()

	enabled := mustCreate(t, store, "nite", "night")
	disabled := mustCreate(t, store, "thru", "through")
	_, err := store.Toggle(ctx, disabled.ID)
	require.NoError(t, err)
	require.NoError(t, store.RecordApplied(ctx, "builtin:fone"))

	active, err := store.ActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "builtin:fone", active[0].ID)
	assert.Equal(t, 1, active[0].Usage.TimesApplied)
	assert.Equal(t, enabled.ID, active[1].ID)
}

func TestStore_ClearAllAndStats(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, store, "nite", "night")
	b := mustCreate(t, store, "thru", "through")
	_, err := store.Toggle(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, store.RecordApplied(ctx, a.ID))
	require.NoError(t, store.RecordApplied(ctx, a.ID))
	require.NoError(t, store.RecordApplied(ctx, "builtin:fone"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 2, Enabled: 1, Disabled: 1, TotalUsage: 2}, stats)

	require.NoError(t, store.ClearAll(ctx))
	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	fone, err := store.Get(ctx, "builtin:fone")
	require.NoError(t, err)
	assert.Equal(t, 1, fone.Usage.TimesApplied)
}

func TestStore_RecordUsage(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	rule := mustCreate(t, store, "nite", "night")

	require.NoError(t, store.RecordApplied(ctx, rule.ID))
	got, err := store.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Usage.TimesApplied)
	assert.Equal(t, 0, got.Usage.TimesRejected)
	require.NotNil(t, got.Usage.LastUsed)

	require.NoError(t, store.RecordRejected(ctx, rule.ID))
	got, err = store.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Usage.TimesApplied)
	assert.Equal(t, 1, got.Usage.TimesRejected)

	assert.ErrorIs(t, store.RecordApplied(ctx, "missing"), common.ErrNotFound)
	assert.ErrorIs(t, store.RecordRejected(ctx, "builtin:no-such-rule"), common.ErrNotFound)
}

func TestStore_ConcurrentFeedbackIsNotLost(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	rule := mustCreate(t, store, "nite", "night")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, store.RecordApplied(ctx, rule.ID))
			} else {
				assert.NoError(t, store.RecordRejected(ctx, rule.ID))
			}
			assert.NoError(t, store.RecordApplied(ctx, "builtin:fone"))
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, workers/2, got.Usage.TimesApplied)
	assert.Equal(t, workers/2, got.Usage.TimesRejected)

	fone, err := store.Get(ctx, "builtin:fone")
	require.NoError(t, err)
	assert.Equal(t, workers, fone.Usage.TimesApplied)
}

func TestStore_ReloadsFromPersistence(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()
	rule := mustCreate(t, store, "nite", "night")
	require.NoError(t, store.RecordRejected(ctx, "builtin:fone"))

	reloaded, err := NewStore(ctx, mem)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "night", got.Correction)

	fone, err := reloaded.Get(ctx, "builtin:fone")
	require.NoError(t, err)
	assert.Equal(t, 1, fone.Usage.TimesRejected)
}

func TestStore_CanceledContext(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Create(ctx, model.RuleInput{Misspelling: "nite", Correction: "night"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
