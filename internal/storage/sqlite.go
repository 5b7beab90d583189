package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Ensure SQLiteStorage implements the rule store's persistence port.
var _ rules.Persistence = (*SQLiteStorage)(nil)

// SQLiteStorage persists rule store snapshots in SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Load reads the user rules and built-in usage counters.
func (s *SQLiteStorage) Load(ctx context.Context) (*rules.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	ruleSet, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	usage, err := s.loadBuiltinUsage(ctx)
	if err != nil {
		return nil, err
	}

	return &rules.Snapshot{Rules: ruleSet, BuiltinUsage: usage}, nil
}

func (s *SQLiteStorage) loadRules(ctx context.Context) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, misspelling, correction, is_regex, case_sensitive, enabled,
		       description, category, examples, times_applied, times_rejected,
		       last_used, created_at, updated_at
		FROM rules
		ORDER BY position, created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Rule
	for rows.Next() {
		var (
			r        model.Rule
			examples string
			lastUsed sql.NullTime
		)
		if err := rows.Scan(
			&r.ID, &r.Misspelling, &r.Correction, &r.IsRegex, &r.CaseSensitive, &r.Enabled,
			&r.Description, &r.Category, &examples, &r.Usage.TimesApplied, &r.Usage.TimesRejected,
			&lastUsed, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if examples != "" {
			if err := json.Unmarshal([]byte(examples), &r.Examples); err != nil {
				return nil, fmt.Errorf("failed to decode examples for rule %s: %w", r.ID, err)
			}
		}
		if len(r.Examples) == 0 {
			r.Examples = nil
		}
		r.Usage.LastUsed = nullTimePtr(lastUsed)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return out, nil
}

func (s *SQLiteStorage) loadBuiltinUsage(ctx context.Context) (map[string]model.Usage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, times_applied, times_rejected, last_used
		FROM builtin_usage
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query builtin usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	usage := make(map[string]model.Usage)
	for rows.Next() {
		var (
			id       string
			u        model.Usage
			lastUsed sql.NullTime
		)
		if err := rows.Scan(&id, &u.TimesApplied, &u.TimesRejected, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan builtin usage: %w", err)
		}
		u.LastUsed = nullTimePtr(lastUsed)
		usage[id] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating builtin usage: %w", err)
	}
	return usage, nil
}

// Save replaces the stored state with snapshot in a single transaction.
func (s *SQLiteStorage) Save(ctx context.Context, snapshot *rules.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = saveRulesTx(ctx, tx, snapshot.Rules); err != nil {
		return err
	}
	if err = saveBuiltinUsageTx(ctx, tx, snapshot.BuiltinUsage); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func saveRulesTx(ctx context.Context, tx *sql.Tx, ruleSet []model.Rule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rules (
			id, misspelling, correction, is_regex, case_sensitive, enabled,
			description, category, examples, times_applied, times_rejected,
			last_used, created_at, updated_at, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare rule insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range ruleSet {
		examples := r.Examples
		if examples == nil {
			examples = []string{}
		}
		encoded, err := json.Marshal(examples)
		if err != nil {
			return fmt.Errorf("failed to encode examples for rule %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Misspelling, r.Correction, r.IsRegex, r.CaseSensitive, r.Enabled,
			r.Description, r.Category, string(encoded), r.Usage.TimesApplied, r.Usage.TimesRejected,
			timePtrValue(r.Usage.LastUsed), r.CreatedAt, r.UpdatedAt, i,
		); err != nil {
			return fmt.Errorf("failed to insert rule %s: %w", r.ID, err)
		}
	}
	return nil
}

func saveBuiltinUsageTx(ctx context.Context, tx *sql.Tx, usage map[string]model.Usage) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM builtin_usage`); err != nil {
		return fmt.Errorf("failed to clear builtin usage: %w", err)
	}
	for id, u := range usage {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO builtin_usage (rule_id, times_applied, times_rejected, last_used)
			VALUES (?, ?, ?, ?)
		`, id, u.TimesApplied, u.TimesRejected, timePtrValue(u.LastUsed)); err != nil {
			return fmt.Errorf("failed to insert builtin usage for %s: %w", id, err)
		}
	}
	return nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func timePtrValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
