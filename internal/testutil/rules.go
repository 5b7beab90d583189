package testutil

import (
	"github.com/Veraticus/phonocorrect/internal/model"
)

// Fixture is a named set of rule inputs for common test scenarios.
type Fixture string

// Available fixtures.
const (
	FixtureTexting   Fixture = "texting"
	FixtureHomophone Fixture = "homophone"
	FixtureRegex     Fixture = "regex"
)

var fixtures = map[Fixture][]model.RuleInput{
	FixtureTexting: {
		{Misspelling: "pls", Correction: "please"},
		{Misspelling: "thx", Correction: "thanks"},
		{Misspelling: "l8r", Correction: "later"},
	},
	FixtureHomophone: {
		{Misspelling: "there car", Correction: "their car", Category: model.CategoryHomophone},
		{Misspelling: "to late", Correction: "too late", Category: model.CategoryHomophone},
	},
	FixtureRegex: {
		{Misspelling: `\bgr+eat\b`, Correction: "great", IsRegex: true},
		{Misspelling: `colou?r`, Correction: "colour", IsRegex: true, CaseSensitive: true},
	},
}

// RuleBuilder assembles rule inputs with a fluent API.
type RuleBuilder struct {
	inputs []model.RuleInput
}

// NewRuleBuilder creates an empty builder.
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{}
}

// With adds a literal rule.
func (b *RuleBuilder) With(misspelling, correction string) *RuleBuilder {
	b.inputs = append(b.inputs, model.RuleInput{Misspelling: misspelling, Correction: correction})
	return b
}

// WithRegex adds a regex rule.
func (b *RuleBuilder) WithRegex(pattern, correction string) *RuleBuilder {
	b.inputs = append(b.inputs, model.RuleInput{Misspelling: pattern, Correction: correction, IsRegex: true})
	return b
}

// WithDisabled adds a literal rule that starts disabled.
func (b *RuleBuilder) WithDisabled(misspelling, correction string) *RuleBuilder {
	disabled := false
	b.inputs = append(b.inputs, model.RuleInput{Misspelling: misspelling, Correction: correction, Enabled: &disabled})
	return b
}

// WithFixture adds every rule of a fixture.
func (b *RuleBuilder) WithFixture(f Fixture) *RuleBuilder {
	b.inputs = append(b.inputs, fixtures[f]...)
	return b
}

// Build returns a copy of the collected inputs.
func (b *RuleBuilder) Build() []model.RuleInput {
	return append([]model.RuleInput(nil), b.inputs...)
}
