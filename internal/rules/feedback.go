package rules

import (
	"context"

	"github.com/Veraticus/phonocorrect/internal/model"
)

// RecordApplied counts one accepted suggestion for the rule and stamps LastUsed.
func (s *Store) RecordApplied(ctx context.Context, ruleID string) error {
	return s.recordUsage(ctx, ruleID, true)
}

// RecordRejected counts one rejected suggestion for the rule.
func (s *Store) RecordRejected(ctx context.Context, ruleID string) error {
	return s.recordUsage(ctx, ruleID, false)
}

func (s *Store) recordUsage(ctx context.Context, ruleID string, applied bool) error {
	return s.mutate(ctx, func(next *Snapshot) error {
		bump := func(u *model.Usage) {
			if applied {
				u.TimesApplied++
				now := s.now()
				u.LastUsed = &now
			} else {
				u.TimesRejected++
			}
		}

		if idx := indexOf(next.Rules, ruleID); idx >= 0 {
			bump(&next.Rules[idx].Usage)
			return nil
		}
		if s.isKnownBuiltin(ruleID) {
			u := next.BuiltinUsage[ruleID]
			bump(&u)
			next.BuiltinUsage[ruleID] = u
			return nil
		}
		return notFound(ruleID)
	})
}
