package engine

import (
	"context"

	"github.com/Veraticus/phonocorrect/internal/model"
)

// RuleSource supplies the rule snapshot and receives feedback.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]model.Rule, error)
	RecordApplied(ctx context.Context, ruleID string) error
	RecordRejected(ctx context.Context, ruleID string) error
}
