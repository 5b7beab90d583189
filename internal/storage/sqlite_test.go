package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create test rules.
func createTestRules(count int) []model.Rule {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Rule, count)
	for i := 0; i < count; i++ {
		out[i] = model.Rule{
			ID:          fmt.Sprintf("rule-%d", i+1),
			Misspelling: fmt.Sprintf("misspelling%d", i+1),
			Correction:  fmt.Sprintf("correction%d", i+1),
			Category:    model.CategoryCustom,
			Enabled:     i%2 == 0,
			CreatedAt:   base,
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestSQLiteStorage_SaveAndLoad(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	lastUsed := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	ruleSet := createTestRules(3)
	ruleSet[0].IsRegex = true
	ruleSet[0].Misspelling = `\bteh\b`
	ruleSet[1].CaseSensitive = true
	ruleSet[1].Description = "a description"
	ruleSet[1].Examples = []string{"first example", "second example"}
	ruleSet[2].Usage = model.Usage{TimesApplied: 3, TimesRejected: 1, LastUsed: &lastUsed}

	snap := &rules.Snapshot{
		Rules: ruleSet,
		BuiltinUsage: map[string]model.Usage{
			"builtin:fone":    {TimesApplied: 7, LastUsed: &lastUsed},
			"builtin:recieve": {TimesRejected: 2},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}

	if len(loaded.Rules) != len(ruleSet) {
		t.Fatalf("Expected %d rules, got %d", len(ruleSet), len(loaded.Rules))
	}
	for i, want := range ruleSet {
		got := loaded.Rules[i]
		if got.ID != want.ID {
			t.Errorf("Rule %d: id = %s, want %s (insertion order must be kept)", i, got.ID, want.ID)
		}
		if got.Misspelling != want.Misspelling || got.Correction != want.Correction {
			t.Errorf("Rule %d: pair = %q->%q, want %q->%q", i, got.Misspelling, got.Correction, want.Misspelling, want.Correction)
		}
		if got.IsRegex != want.IsRegex || got.CaseSensitive != want.CaseSensitive || got.Enabled != want.Enabled {
			t.Errorf("Rule %d: flags mismatch: got %+v", i, got)
		}
		if got.Description != want.Description {
			t.Errorf("Rule %d: description = %q, want %q", i, got.Description, want.Description)
		}
		if fmt.Sprint(got.Examples) != fmt.Sprint(want.Examples) {
			t.Errorf("Rule %d: examples = %v, want %v", i, got.Examples, want.Examples)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
			t.Errorf("Rule %d: timestamps = %v/%v, want %v/%v", i, got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
		}
		if got.Usage.TimesApplied != want.Usage.TimesApplied || got.Usage.TimesRejected != want.Usage.TimesRejected {
			t.Errorf("Rule %d: usage = %+v, want %+v", i, got.Usage, want.Usage)
		}
	}

	if loaded.Rules[0].Usage.LastUsed != nil {
		t.Errorf("Expected nil last used for unused rule, got %v", loaded.Rules[0].Usage.LastUsed)
	}
	if lu := loaded.Rules[2].Usage.LastUsed; lu == nil || !lu.Equal(lastUsed) {
		t.Errorf("Last used = %v, want %v", lu, lastUsed)
	}

	fone := loaded.BuiltinUsage["builtin:fone"]
	if fone.TimesApplied != 7 || fone.LastUsed == nil || !fone.LastUsed.Equal(lastUsed) {
		t.Errorf("Unexpected builtin usage: %+v", fone)
	}
	if loaded.BuiltinUsage["builtin:recieve"].TimesRejected != 2 {
		t.Errorf("Unexpected builtin usage: %+v", loaded.BuiltinUsage["builtin:recieve"])
	}
}

func TestSQLiteStorage_SaveReplacesPreviousState(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, &rules.Snapshot{Rules: createTestRules(5)}); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	if err := store.Save(ctx, &rules.Snapshot{Rules: createTestRules(2)}); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if len(loaded.Rules) != 2 {
		t.Errorf("Expected 2 rules after replacing, got %d", len(loaded.Rules))
	}
}

func TestSQLiteStorage_InvalidSnapshotKeepsState(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, &rules.Snapshot{Rules: createTestRules(2)}); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	bad := createTestRules(2)
	bad[1].ID = bad[0].ID
	err := store.Save(ctx, &rules.Snapshot{Rules: bad})
	if !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("Expected ErrInvalidRule, got %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if len(loaded.Rules) != 2 || loaded.Rules[1].ID != "rule-2" {
		t.Errorf("Stored state changed after rejected save: %+v", loaded.Rules)
	}
}

func TestSQLiteStorage_EmptyDatabase(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Failed to load empty database: %v", err)
	}
	if len(snap.Rules) != 0 || len(snap.BuiltinUsage) != 0 {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Test initial migration
	store1, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err2 := store1.Migrate(ctx); err2 != nil {
		t.Fatalf("Initial migration failed: %v", err2)
	}
	if err2 := store1.Save(ctx, &rules.Snapshot{Rules: createTestRules(1)}); err2 != nil {
		t.Fatalf("Failed to save snapshot: %v", err2)
	}
	_ = store1.Close()

	// Test idempotency - running migrations again should not error
	store2, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store2.Close() }()

	if err := store2.Migrate(ctx); err != nil {
		t.Fatalf("Repeated migration failed: %v", err)
	}

	version, err := store2.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Data survives reopening
	snap, err := store2.Load(ctx)
	if err != nil {
		t.Fatalf("Database not functional after migration: %v", err)
	}
	if len(snap.Rules) != 1 {
		t.Errorf("Expected 1 rule after reopening, got %d", len(snap.Rules))
	}
}

func TestSQLiteStorage_BacksRuleStore(t *testing.T) {
	db, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	store, err := rules.NewStore(ctx, db)
	if err != nil {
		t.Fatalf("Failed to create rule store: %v", err)
	}

	created, _, err := store.Create(ctx, model.RuleInput{Misspelling: "nite", Correction: "night"})
	if err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}
	if err := store.RecordApplied(ctx, created.ID); err != nil {
		t.Fatalf("Failed to record usage: %v", err)
	}
	if err := store.RecordRejected(ctx, "builtin:fone"); err != nil {
		t.Fatalf("Failed to record builtin usage: %v", err)
	}

	reopened, err := rules.NewStore(ctx, db)
	if err != nil {
		t.Fatalf("Failed to reopen rule store: %v", err)
	}
	got, err := reopened.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Rule missing after reopen: %v", err)
	}
	if got.Usage.TimesApplied != 1 || got.Usage.LastUsed == nil {
		t.Errorf("Usage not persisted: %+v", got.Usage)
	}
	fone, err := reopened.Get(ctx, "builtin:fone")
	if err != nil {
		t.Fatalf("Failed to get builtin: %v", err)
	}
	if fone.Usage.TimesRejected != 1 {
		t.Errorf("Builtin usage not persisted: %+v", fone.Usage)
	}
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	db, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	store, err := rules.NewStore(ctx, db)
	if err != nil {
		t.Fatalf("Failed to create rule store: %v", err)
	}
	created, _, err := store.Create(ctx, model.RuleInput{Misspelling: "thru", Correction: "through"})
	if err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := store.RecordApplied(ctx, created.ID); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := db.Load(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent operation failed: %v", err)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if snap.Rules[0].Usage.TimesApplied != 10 {
		t.Errorf("Expected 10 applications, got %d", snap.Rules[0].Usage.TimesApplied)
	}
}
