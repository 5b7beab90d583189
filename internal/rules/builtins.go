package rules

import (
	"github.com/Veraticus/phonocorrect/internal/model"
)

// builtin is one row of the fixed correction table.
type builtin struct {
	slug        string
	misspelling string
	correction  string
	category    string
	description string
	confidence  float64
	isRegex     bool
}

var builtinTable = []builtin{
	// Phonetic spellings - written the way the word sounds
	{slug: "fone", misspelling: "fone", correction: "phone", category: model.CategoryPhonetic, confidence: 0.95,
		description: `"ph" makes an "f" sound`},
	{slug: "foto", misspelling: "foto", correction: "photo", category: model.CategoryPhonetic, confidence: 0.92,
		description: `"ph" makes an "f" sound`},
	{slug: "fotograph", misspelling: "fotograph", correction: "photograph", category: model.CategoryPhonetic, confidence: 0.92,
		description: `"ph" makes an "f" sound`},
	{slug: "fizzix", misspelling: "fizzix", correction: "physics", category: model.CategoryPhonetic, confidence: 0.88,
		description: `"ph" makes an "f" sound and "y" can sound like "i"`},
	{slug: "nite", misspelling: "nite", correction: "night", category: model.CategoryPhonetic, confidence: 0.93,
		description: `"igh" makes a long "i" sound`},
	{slug: "thru", misspelling: "thru", correction: "through", category: model.CategoryPhonetic, confidence: 0.90,
		description: `"ough" can sound like "oo"`},
	{slug: "tho", misspelling: "tho", correction: "though", category: model.CategoryPhonetic, confidence: 0.87,
		description: `"ough" can sound like a long "o"`},
	{slug: "enuff", misspelling: "enuff", correction: "enough", category: model.CategoryPhonetic, confidence: 0.94,
		description: `"ough" can sound like "uff"`},
	{slug: "laff", misspelling: "laff", correction: "laugh", category: model.CategoryPhonetic, confidence: 0.92,
		description: `"augh" can sound like "aff"`},
	{slug: "sed", misspelling: "sed", correction: "said", category: model.CategoryPhonetic, confidence: 0.86,
		description: `"ai" in said sounds like a short "e"`},
	{slug: "wen", misspelling: "wen", correction: "when", category: model.CategoryPhonetic, confidence: 0.88,
		description: `"wh" is often pronounced "w"`},
	{slug: "wich", misspelling: "wich", correction: "which", category: model.CategoryPhonetic, confidence: 0.89,
		description: `"wh" is often pronounced "w"`},
	{slug: "becuz", misspelling: "becuz", correction: "because", category: model.CategoryPhonetic, confidence: 0.93,
		description: `"au" and "se" spell the "uz" sound`},
	{slug: "shud", misspelling: "shud", correction: "should", category: model.CategoryPhonetic, confidence: 0.91,
		description: `"ould" sounds like "ud"`},
	{slug: "wud", misspelling: "wud", correction: "would", category: model.CategoryPhonetic, confidence: 0.91,
		description: `"ould" sounds like "ud"`},
	{slug: "skool", misspelling: "skool", correction: "school", category: model.CategoryPhonetic, confidence: 0.93,
		description: `"ch" can make a "k" sound`},
	{slug: "kwik", misspelling: "kwik", correction: "quick", category: model.CategoryPhonetic, confidence: 0.92,
		description: `"qu" makes a "kw" sound`},
	{slug: "nuthing", misspelling: "nuthing", correction: "nothing", category: model.CategoryPhonetic, confidence: 0.90,
		description: `"o" can make a short "u" sound`},
	{slug: "sumthing", misspelling: "sumthing", correction: "something", category: model.CategoryPhonetic, confidence: 0.90,
		description: `"o" can make a short "u" sound`},
	{slug: "luv", misspelling: "luv", correction: "love", category: model.CategoryPhonetic, confidence: 0.89,
		description: `"o" with a silent "e" can make a short "u" sound`},
	{slug: "nolij", misspelling: "nolij", correction: "knowledge", category: model.CategoryPhonetic, confidence: 0.87,
		description: `silent "k" and "dge" spelling the "j" sound`},
	{slug: "sikology", misspelling: "sikology", correction: "psychology", category: model.CategoryPhonetic, confidence: 0.86,
		description: `silent "p" and "ch" making a "k" sound`},
	{slug: "recieve", misspelling: "recieve", correction: "receive", category: model.CategoryPhonetic, confidence: 0.95,
		description: `"i" before "e" except after "c"`},
	{slug: "beleive", misspelling: "beleive", correction: "believe", category: model.CategoryPhonetic, confidence: 0.94,
		description: `"i" before "e" except after "c"`},
	{slug: "seperate", misspelling: "seperate", correction: "separate", category: model.CategoryPhonetic, confidence: 0.93,
		description: `the unstressed vowel in separate is an "a"`},
	{slug: "tommorow", misspelling: "tommorow", correction: "tomorrow", category: model.CategoryPhonetic, confidence: 0.93,
		description: `one "m", two "r"s`},
	{slug: "neccessary", misspelling: "neccessary", correction: "necessary", category: model.CategoryPhonetic, confidence: 0.92,
		description: `one "c", two "s"s`},
	{slug: "definitely", misspelling: `\bdefin[ai]te?ly\b`, correction: "definitely", category: model.CategoryPhonetic,
		confidence: 0.90, isRegex: true, description: `definitely contains the word "finite"`},

	// Homophone phrases - sound right, spelled as a different word
	{slug: "your-welcome", misspelling: "your welcome", correction: "you're welcome", category: model.CategoryHomophone,
		confidence: 0.90, description: `"you're" is short for "you are"`},
	{slug: "their-own", misspelling: "there own", correction: "their own", category: model.CategoryHomophone,
		confidence: 0.88, description: `"their" shows belonging`},
	{slug: "too-much", misspelling: "to much", correction: "too much", category: model.CategoryHomophone,
		confidence: 0.87, description: `"too" means "more than enough"`},
	{slug: "too-many", misspelling: "to many", correction: "too many", category: model.CategoryHomophone,
		confidence: 0.87, description: `"too" means "more than enough"`},
	{slug: "piece-of-cake", misspelling: "peace of cake", correction: "piece of cake", category: model.CategoryHomophone,
		confidence: 0.91, description: `"piece" is a portion, "peace" is calm`},
	{slug: "sneak-peek", misspelling: "sneak peak", correction: "sneak peek", category: model.CategoryHomophone,
		confidence: 0.90, description: `"peek" is a quick look, "peak" is a summit`},
	{slug: "intents-and-purposes", misspelling: "for all intensive purposes", correction: "for all intents and purposes",
		category: model.CategoryHomophone, confidence: 0.92, description: `the phrase is "intents and purposes"`},

	// Grammar slips that come from how speech sounds
	{slug: "would-of", misspelling: "would of", correction: "would have", category: model.CategoryGrammar,
		confidence: 0.94, description: `"would've" sounds like "would of"`},
	{slug: "could-of", misspelling: "could of", correction: "could have", category: model.CategoryGrammar,
		confidence: 0.94, description: `"could've" sounds like "could of"`},
	{slug: "should-of", misspelling: "should of", correction: "should have", category: model.CategoryGrammar,
		confidence: 0.94, description: `"should've" sounds like "should of"`},
	{slug: "must-of", misspelling: "must of", correction: "must have", category: model.CategoryGrammar,
		confidence: 0.93, description: `"must've" sounds like "must of"`},
	{slug: "alot", misspelling: "alot", correction: "a lot", category: model.CategoryGrammar,
		confidence: 0.92, description: `"a lot" is two words`},
}

// Builtins returns the fixed built-in correction table with zeroed usage.
// Built-ins are always active and are never stored as user rules.
func Builtins() []model.Rule {
	out := make([]model.Rule, 0, len(builtinTable))
	for _, b := range builtinTable {
		out = append(out, model.Rule{
			ID:          model.BuiltinIDPrefix + b.slug,
			Misspelling: b.misspelling,
			Correction:  b.correction,
			Category:    b.category,
			Description: b.description,
			Confidence:  b.confidence,
			IsRegex:     b.isRegex,
			Enabled:     true,
		})
	}
	return out
}
