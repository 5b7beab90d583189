package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS rules (
					id TEXT PRIMARY KEY,
					misspelling TEXT NOT NULL,
					correction TEXT NOT NULL,
					is_regex INTEGER NOT NULL DEFAULT 0,
					case_sensitive INTEGER NOT NULL DEFAULT 0,
					enabled INTEGER NOT NULL DEFAULT 1,
					description TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT 'custom',
					examples TEXT NOT NULL DEFAULT '[]',
					times_applied INTEGER NOT NULL DEFAULT 0,
					times_rejected INTEGER NOT NULL DEFAULT 0,
					last_used DATETIME,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_rules_created_at ON rules(created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Track usage of built-in rules",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS builtin_usage (
					rule_id TEXT PRIMARY KEY,
					times_applied INTEGER NOT NULL DEFAULT 0,
					times_rejected INTEGER NOT NULL DEFAULT 0,
					last_used DATETIME
				)
			`); err != nil {
				return fmt.Errorf("failed to create builtin_usage table: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Preserve insertion order for rules created in one batch",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE rules ADD COLUMN position INTEGER NOT NULL DEFAULT 0`); err != nil {
				return fmt.Errorf("failed to add position column: %w", err)
			}
			if _, err := tx.Exec(`UPDATE rules SET position = rowid`); err != nil {
				return fmt.Errorf("failed to backfill positions: %w", err)
			}
			slog.Info("Added rule position column")
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
