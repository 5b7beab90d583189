// Package storage persists the rule store in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRule  = errors.New("invalid rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSnapshot checks the fields the schema requires before writing.
func validateSnapshot(snap *rules.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}

	seen := make(map[string]bool, len(snap.Rules))
	for i, r := range snap.Rules {
		if err := validateRule(&r); err != nil {
			return fmt.Errorf("rule at index %d: %w", i, err)
		}
		if seen[r.ID] {
			return fmt.Errorf("rule at index %d: %w: duplicate id %q", i, ErrInvalidRule, r.ID)
		}
		seen[r.ID] = true
	}
	for id := range snap.BuiltinUsage {
		if err := validateString(id, "builtin rule id"); err != nil {
			return err
		}
	}
	return nil
}

// validateRule validates a single rule row.
func validateRule(r *model.Rule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	if r.IsBuiltin() {
		return fmt.Errorf("%w: built-in rule %q cannot be stored", ErrInvalidRule, r.ID)
	}
	if strings.TrimSpace(r.Misspelling) == "" {
		return fmt.Errorf("%w: missing misspelling", ErrInvalidRule)
	}
	if strings.TrimSpace(r.Correction) == "" {
		return fmt.Errorf("%w: missing correction", ErrInvalidRule)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrInvalidRule)
	}
	return nil
}
