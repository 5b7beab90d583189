// Package model defines the core data structures for the phonocorrect engine.
package model

import (
	"strings"
	"time"
)

// Rule categories used as the suggestion pattern label.
const (
	CategoryPhonetic  = "phonetic"
	CategoryHomophone = "homophone"
	CategoryGrammar   = "grammar"
	CategoryCustom    = "custom"
)

// BuiltinIDPrefix marks rule IDs that belong to the built-in table.
const BuiltinIDPrefix = "builtin:"

// Usage tracks how often suggestions produced by a rule were accepted or rejected.
type Usage struct {
	LastUsed      *time.Time `json:"lastUsed"`
	TimesApplied  int        `json:"timesApplied"`
	TimesRejected int        `json:"timesRejected"`
}

// AcceptRatio returns timesApplied / max(1, timesApplied+timesRejected).
func (u Usage) AcceptRatio() float64 {
	total := u.TimesApplied + u.TimesRejected
	if total < 1 {
		total = 1
	}
	return float64(u.TimesApplied) / float64(total)
}

// Rule is a single misspelling -> correction pattern.
// Confidence is the base confidence used by the matcher; zero selects the
// matcher's default for user rules.
type Rule struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Usage         Usage     `json:"usage"`
	ID            string    `json:"id"`
	Misspelling   string    `json:"misspelling"`
	Correction    string    `json:"correction"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Examples      []string  `json:"examples,omitempty"`
	Confidence    float64   `json:"confidence,omitempty"`
	IsRegex       bool      `json:"isRegex"`
	CaseSensitive bool      `json:"caseSensitive"`
	Enabled       bool      `json:"enabled"`
}

// IsBuiltin reports whether the rule comes from the built-in table.
func (r Rule) IsBuiltin() bool {
	return len(r.ID) > len(BuiltinIDPrefix) && strings.HasPrefix(r.ID, BuiltinIDPrefix)
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	c := r
	if r.Examples != nil {
		c.Examples = append([]string(nil), r.Examples...)
	}
	if r.Usage.LastUsed != nil {
		t := *r.Usage.LastUsed
		c.Usage.LastUsed = &t
	}
	return c
}

// RuleInput is the user-supplied payload for creating a rule.
type RuleInput struct {
	Enabled       *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Misspelling   string   `json:"misspelling" yaml:"misspelling"`
	Correction    string   `json:"correction" yaml:"correction"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category      string   `json:"category,omitempty" yaml:"category,omitempty"`
	Examples      []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	IsRegex       bool     `json:"isRegex" yaml:"is_regex,omitempty"`
	CaseSensitive bool     `json:"caseSensitive" yaml:"case_sensitive,omitempty"`
}

// IsEnabled returns the requested enabled state, defaulting to true.
func (in RuleInput) IsEnabled() bool {
	return in.Enabled == nil || *in.Enabled
}

// RulePatch carries optional field updates for an existing rule.
// Nil fields are left untouched.
type RulePatch struct {
	Misspelling   *string
	Correction    *string
	IsRegex       *bool
	CaseSensitive *bool
	Enabled       *bool
	Description   *string
	Category      *string
	Examples      *[]string
}

// Apply merges the patch into rule and returns the merged copy.
func (p RulePatch) Apply(rule Rule) Rule {
	merged := rule.Clone()
	if p.Misspelling != nil {
		merged.Misspelling = *p.Misspelling
	}
	if p.Correction != nil {
		merged.Correction = *p.Correction
	}
	if p.IsRegex != nil {
		merged.IsRegex = *p.IsRegex
	}
	if p.CaseSensitive != nil {
		merged.CaseSensitive = *p.CaseSensitive
	}
	if p.Enabled != nil {
		merged.Enabled = *p.Enabled
	}
	if p.Description != nil {
		merged.Description = *p.Description
	}
	if p.Category != nil {
		merged.Category = *p.Category
	}
	if p.Examples != nil {
		merged.Examples = append([]string(nil), (*p.Examples)...)
	}
	return merged
}

// Input converts a rule back into the input form used for validation and export.
func (r Rule) Input() RuleInput {
	enabled := r.Enabled
	return RuleInput{
		Misspelling:   r.Misspelling,
		Correction:    r.Correction,
		IsRegex:       r.IsRegex,
		CaseSensitive: r.CaseSensitive,
		Enabled:       &enabled,
		Description:   r.Description,
		Category:      r.Category,
		Examples:      append([]string(nil), r.Examples...),
	}
}
