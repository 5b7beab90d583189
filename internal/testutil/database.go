// Package testutil provides test helpers for the phonocorrect packages.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"github.com/Veraticus/phonocorrect/internal/storage"
)

// TestStore is a rule store backed by a throwaway SQLite database.
type TestStore struct {
	DB    *storage.SQLiteStorage
	Store *rules.Store
	Rules []model.Rule
	t     *testing.T
}

// TestStoreOptions configures SetupTestStoreWithOptions.
type TestStoreOptions struct {
	// Now fixes the store clock. Zero means time.Now.
	Now time.Time

	Seed []model.RuleInput

	// InMemory uses ":memory:" instead of a file under t.TempDir.
	InMemory bool
}

// SetupTestStore creates a migrated database with the given rules seeded.
//
// Example:
//
//	ts := testutil.SetupTestStore(t, testutil.NewRuleBuilder().
//		WithFixture(testutil.FixtureTexting).
//		Build())
func SetupTestStore(t *testing.T, seed []model.RuleInput) *TestStore {
	t.Helper()
	return SetupTestStoreWithOptions(t, TestStoreOptions{Seed: seed})
}

// SetupTestStoreWithOptions creates a test store with custom options.
func SetupTestStoreWithOptions(t *testing.T, opts TestStoreOptions) *TestStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "rules.db")
	if opts.InMemory {
		dbPath = ":memory:"
	}

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	var storeOpts []rules.Option
	if !opts.Now.IsZero() {
		fixed := opts.Now
		storeOpts = append(storeOpts, rules.WithClock(func() time.Time { return fixed }))
	}

	store, err := rules.NewStore(ctx, db, storeOpts...)
	if err != nil {
		t.Fatalf("failed to open rule store: %v", err)
	}

	ts := &TestStore{DB: db, Store: store, t: t}
	for _, in := range opts.Seed {
		rule, _, err := store.Create(ctx, in)
		if err != nil {
			t.Fatalf("failed to seed rule %q -> %q: %v", in.Misspelling, in.Correction, err)
		}
		ts.Rules = append(ts.Rules, *rule)
	}
	return ts
}

// MustFind returns the seeded rule for misspelling or fails the test.
func (ts *TestStore) MustFind(misspelling string) model.Rule {
	ts.t.Helper()
	for _, r := range ts.Rules {
		if r.Misspelling == misspelling {
			return r
		}
	}
	ts.t.Fatalf("no seeded rule for %q", misspelling)
	return model.Rule{}
}

// Reopen loads a fresh rule store from the same database.
func (ts *TestStore) Reopen() *rules.Store {
	ts.t.Helper()
	store, err := rules.NewStore(context.Background(), ts.DB)
	if err != nil {
		ts.t.Fatalf("failed to reopen rule store: %v", err)
	}
	return store
}
