package pattern

import (
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithBands sets the thresholds used to label suggestions.
func WithBands(b Bands) Option {
	return func(m *Matcher) { m.bands = b }
}

// WithUserBaseConfidence sets the base confidence for rules without one.
func WithUserBaseConfidence(c float64) Option {
	return func(m *Matcher) { m.userBase = c }
}

// compiledRule is a rule with its expression and confidence resolved.
type compiledRule struct {
	re         *regexp.Regexp
	correction *regexp.Regexp
	rule       model.Rule
	confidence float64
	wholeWords bool
}

// Matcher evaluates text against a snapshot of rules. It is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	rules    []compiledRule
	bands    Bands
	userBase float64
}

// NewMatcher precompiles every enabled rule. Rules that fail to compile are
// skipped with a warning.
func NewMatcher(ruleSet []model.Rule, opts ...Option) *Matcher {
	m := &Matcher{
		bands:    DefaultBands(),
		userBase: UserBaseConfidence,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.rules = make([]compiledRule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if !rule.Enabled {
			continue
		}
		re, err := common.CompileRulePattern(rule.Misspelling, rule.IsRegex, rule.CaseSensitive)
		if err != nil {
			slog.Warn("Skipping rule with invalid pattern",
				"rule_id", rule.ID,
				"pattern", rule.Misspelling,
				"error", err)
			continue
		}
		base := rule.Confidence
		if base == 0 {
			base = m.userBase
		}
		m.rules = append(m.rules, compiledRule{
			rule:       rule,
			re:         re,
			correction: correctionPattern(rule),
			confidence: Confidence(base, rule.Usage),
			wholeWords: common.MatchesWholeWords(rule.Misspelling, rule.IsRegex),
		})
	}

	return m
}

// Len returns the number of rules the matcher evaluates.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// candidate is a suggestion with the position of the rule that produced it.
type candidate struct {
	suggestion model.Suggestion
	order      int
}

// Match scans text with every rule and returns the surviving suggestions
// sorted by StartIndex. The result depends only on text and the rule snapshot.
func (m *Matcher) Match(text string) []model.Suggestion {
	var candidates []candidate
	for order, cr := range m.rules {
		var applied [][]int
		for _, loc := range common.FindWholeWords(cr.re, text, cr.wholeWords) {
			start, end := loc[0], loc[1]
			if applied == nil {
				applied = appliedCorrections(cr, text)
			}
			if withinAny(applied, start, end) {
				continue
			}
			original := text[start:end]
			candidates = append(candidates, candidate{
				order: order,
				suggestion: model.Suggestion{
					Original:    original,
					Suggestion:  cr.rule.Correction,
					StartIndex:  start,
					EndIndex:    end,
					Pattern:     patternLabel(cr.rule),
					Confidence:  cr.confidence,
					Explanation: explain(original, cr.rule),
					RuleID:      cr.rule.ID,
					Band:        m.bands.Label(cr.confidence),
				},
			})
		}
	}

	kept := resolveOverlaps(candidates)
	slices.SortFunc(kept, func(a, b model.Suggestion) int {
		return cmp.Compare(a.StartIndex, b.StartIndex)
	})
	return kept
}

// resolveOverlaps greedily keeps the best candidates so that no two kept spans
// overlap. Better means higher confidence, then earlier start, then longer
// span, then earlier rule.
func resolveOverlaps(candidates []candidate) []model.Suggestion {
	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.suggestion.Confidence, a.suggestion.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(a.suggestion.StartIndex, b.suggestion.StartIndex); c != 0 {
			return c
		}
		if c := cmp.Compare(b.suggestion.Len(), a.suggestion.Len()); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	kept := make([]model.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		overlaps := slices.ContainsFunc(kept, func(k model.Suggestion) bool {
			return k.Overlaps(c.suggestion)
		})
		if !overlaps {
			kept = append(kept, c.suggestion)
		}
	}
	return kept
}

// correctionPattern matches the rule's correction as written, folding case
// unless the rule is case sensitive.
func correctionPattern(rule model.Rule) *regexp.Regexp {
	words := strings.Fields(rule.Correction)
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	src := strings.Join(words, `\s+`)
	if !rule.CaseSensitive {
		src = `(?i)` + src
	}
	return regexp.MustCompile(src)
}

// appliedCorrections returns the whole-word spans of text that already read
// as the rule's correction. A match inside one of them is the rule's own
// output and is not proposed again, so "lot" -> "a lot" stops after one apply.
func appliedCorrections(cr compiledRule, text string) [][]int {
	if cr.correction == nil {
		return [][]int{}
	}
	return common.FindWholeWords(cr.correction, text, true)
}

func withinAny(spans [][]int, start, end int) bool {
	for _, sp := range spans {
		if sp[0] <= start && end <= sp[1] {
			return true
		}
	}
	return false
}

func patternLabel(rule model.Rule) string {
	if rule.Category != "" {
		return rule.Category
	}
	return model.CategoryCustom
}

func explain(original string, rule model.Rule) string {
	if rule.Description != "" {
		return rule.Description
	}
	if rules.SoundsAlike(original, rule.Correction) {
		return fmt.Sprintf("%q sounds like %q", original, rule.Correction)
	}
	if rule.IsRegex {
		return fmt.Sprintf("matches your pattern %s; did you mean %q?", rule.Misspelling, rule.Correction)
	}
	return fmt.Sprintf("%q is commonly written as %q", original, rule.Correction)
}
