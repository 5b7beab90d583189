package model

// TemplateDifficulty grades how advanced a rule template is.
type TemplateDifficulty string

// Template difficulty levels.
const (
	DifficultyBeginner     TemplateDifficulty = "beginner"
	DifficultyIntermediate TemplateDifficulty = "intermediate"
	DifficultyAdvanced     TemplateDifficulty = "advanced"
)

// IsValid reports whether d is a known difficulty.
func (d TemplateDifficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// RuleTemplate is a named, versioned bundle of rules shipped with the product.
// Templates are reference data: applying one only creates new user rules.
type RuleTemplate struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Version     string             `yaml:"version"`
	Category    string             `yaml:"category"`
	Difficulty  TemplateDifficulty `yaml:"difficulty"`
	Description string             `yaml:"description"`
	Rules       []RuleInput        `yaml:"rules"`
}
