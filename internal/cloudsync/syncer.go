package cloudsync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/rules"
)

// RuleSet is the part of the rule store a sync needs.
type RuleSet interface {
	WriteExport(ctx context.Context, w io.Writer) error
	Replace(ctx context.Context, data []byte) (*rules.ImportReport, error)
}

// DefaultRetryOptions retries transient transport errors a few times.
var DefaultRetryOptions = common.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 250 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2,
}

// Syncer pushes the local rule set to a Client and pulls it back.
// A pull is last-write-wins: the remote document replaces the local user rules.
type Syncer struct {
	client Client
	rules  RuleSet
	retry  common.RetryOptions
}

// NewSyncer creates a Syncer. A zero retry uses DefaultRetryOptions.
func NewSyncer(client Client, ruleSet RuleSet, retry common.RetryOptions) *Syncer {
	if retry == (common.RetryOptions{}) {
		retry = DefaultRetryOptions
	}
	return &Syncer{client: client, rules: ruleSet, retry: retry}
}

// Push exports the user rules and uploads them.
func (s *Syncer) Push(ctx context.Context) (Ack, error) {
	var buf bytes.Buffer
	if err := s.rules.WriteExport(ctx, &buf); err != nil {
		return Ack{}, fmt.Errorf("%w: export: %w", common.ErrSyncFailed, err)
	}

	var ack Ack
	err := common.WithRetry(ctx, func() error {
		var pushErr error
		ack, pushErr = s.client.Push(ctx, buf.Bytes())
		return pushErr
	}, s.retry)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: push: %w", common.ErrSyncFailed, err)
	}

	slog.Info("Pushed rules", "revision", ack.Revision, "bytes", ack.Bytes)
	return ack, nil
}

// Pull downloads the remote document and makes it the local rule set.
// A malformed remote document leaves the local rules unchanged.
func (s *Syncer) Pull(ctx context.Context) (*rules.ImportReport, error) {
	var data []byte
	err := common.WithRetry(ctx, func() error {
		var pullErr error
		data, pullErr = s.client.Pull(ctx)
		return pullErr
	}, s.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: pull: %w", common.ErrSyncFailed, err)
	}

	report, err := s.rules.Replace(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: apply remote rules: %w", common.ErrSyncFailed, err)
	}

	slog.Info("Pulled rules",
		"revision", revision(data),
		"imported", report.Imported,
		"kept", report.Overwritten,
		"failed", report.Failed)
	return report, nil
}
