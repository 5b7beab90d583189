// Package engine turns the active rule set into suggestions for a text buffer
// and feeds accept and reject decisions back into rule usage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/pattern"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration options for the engine.
type Config struct {
	Bands              pattern.Bands
	UserBaseConfidence float64
	Concurrency        int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Bands:              pattern.DefaultBands(),
		UserBaseConfidence: pattern.UserBaseConfidence,
		Concurrency:        4,
	}
}

// Engine checks text against the active rules and records feedback.
type Engine struct {
	rules   RuleSource
	metrics *Metrics
	config  Config
}

// New creates an engine with the default configuration.
func New(rules RuleSource, metrics *Metrics) *Engine {
	return NewWithConfig(rules, metrics, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(rules RuleSource, metrics *Metrics, config Config) *Engine {
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Engine{
		rules:   rules,
		metrics: metrics,
		config:  config,
	}
}

func (e *Engine) matcher(ctx context.Context) (*pattern.Matcher, error) {
	active, err := e.rules.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}
	return pattern.NewMatcher(active,
		pattern.WithBands(e.config.Bands),
		pattern.WithUserBaseConfidence(e.config.UserBaseConfidence),
	), nil
}

func (e *Engine) check(ctx context.Context, m *pattern.Matcher, text string) model.SuggestionSet {
	start := time.Now()
	suggestions := m.Match(text)

	bands := make(map[string]int)
	for _, s := range suggestions {
		bands[s.Band]++
	}
	e.metrics.recordMatch(ctx, time.Since(start), bands)

	return model.SuggestionSet{
		Version:     Fingerprint(text),
		Suggestions: suggestions,
	}
}

// Check matches text against a snapshot of the active rules.
func (e *Engine) Check(ctx context.Context, text string) (model.SuggestionSet, error) {
	m, err := e.matcher(ctx)
	if err != nil {
		return model.SuggestionSet{}, err
	}
	return e.check(ctx, m, text), nil
}

// CheckAll matches every text against one rule snapshot, in parallel.
// Results are returned in input order.
func (e *Engine) CheckAll(ctx context.Context, texts []string) ([]model.SuggestionSet, error) {
	m, err := e.matcher(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.SuggestionSet, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.check(gctx, m, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("Checked texts", "count", len(texts), "rules", m.Len())
	return results, nil
}

// Accept applies s to text and records the acceptance against its rule.
// Nothing is recorded when the apply fails; the caller should re-check.
func (e *Engine) Accept(ctx context.Context, set model.SuggestionSet, s model.Suggestion, text string) (string, error) {
	updated, err := Apply(set, s, text)
	if err != nil {
		if errors.Is(err, common.ErrStaleOffset) {
			e.metrics.recordStale(ctx)
		}
		return text, err
	}

	if err := e.rules.RecordApplied(ctx, s.RuleID); err != nil {
		return text, fmt.Errorf("failed to record accepted suggestion: %w", err)
	}
	e.metrics.recordAccepted(ctx, s.Pattern)

	slog.Debug("Accepted suggestion",
		"rule_id", s.RuleID,
		"original", s.Original,
		"suggestion", s.Suggestion)
	return updated, nil
}

// Reject records that the user dismissed s. The text is not touched.
func (e *Engine) Reject(ctx context.Context, s model.Suggestion) error {
	if err := e.rules.RecordRejected(ctx, s.RuleID); err != nil {
		return fmt.Errorf("failed to record rejected suggestion: %w", err)
	}
	e.metrics.recordRejected(ctx, s.Pattern)
	return nil
}
