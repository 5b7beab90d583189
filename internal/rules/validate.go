package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/antzucaro/matchr"
)

// MaxPatternLength bounds the size of a misspelling pattern, in characters.
const MaxPatternLength = 1000

// minSoundAlikeScore is the Jaro-Winkler score above which two spellings are
// treated as sounding alike even without a shared metaphone code.
const minSoundAlikeScore = 0.80

// nestedQuantifier finds a quantified group that itself contains a quantifier, e.g. (a+)+.
var nestedQuantifier = regexp.MustCompile(`\((?:[^()\\]|\\.)*[+*](?:[^()\\]|\\.)*\)[+*{]`)

// Warnings are non-fatal findings about an otherwise valid rule.
type Warnings []string

// Validate checks a rule definition. Hard failures are returned as a
// *common.ValidationError listing every violated constraint; soft findings
// are returned as warnings alongside a nil error.
func Validate(in model.RuleInput) (Warnings, error) {
	var errs []common.FieldError

	misspelling := strings.TrimSpace(in.Misspelling)
	correction := strings.TrimSpace(in.Correction)

	if misspelling == "" {
		errs = append(errs, common.FieldError{Field: "misspelling", Message: "must not be empty"})
	} else if utf8.RuneCountInString(in.Misspelling) > MaxPatternLength {
		errs = append(errs, common.FieldError{
			Field:   "misspelling",
			Message: fmt.Sprintf("must be at most %d characters", MaxPatternLength),
		})
	}
	if correction == "" {
		errs = append(errs, common.FieldError{Field: "correction", Message: "must not be empty"})
	}

	var compiled *regexp.Regexp
	if misspelling != "" && in.IsRegex {
		re, err := common.CompileRulePattern(in.Misspelling, true, in.CaseSensitive)
		if err != nil {
			errs = append(errs, common.FieldError{
				Field:   "misspelling",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
		compiled = re
	}

	if len(errs) > 0 {
		return nil, &common.ValidationError{Errors: errs}
	}

	var warnings Warnings
	if compiled != nil {
		if raw, err := regexp.Compile(in.Misspelling); err == nil && raw.MatchString("") {
			warnings = append(warnings, "pattern matches the empty string; empty matches are ignored")
		}
		if nestedQuantifier.MatchString(in.Misspelling) {
			warnings = append(warnings, "pattern nests quantifiers and may backtrack catastrophically on other regex engines")
		}
	}
	if common.NormalizeKey(misspelling) == common.NormalizeKey(correction) {
		warnings = append(warnings, "correction is identical to the misspelling")
		return warnings, nil
	}
	if !in.IsRegex && !SoundsAlike(misspelling, correction) {
		warnings = append(warnings, fmt.Sprintf("%q does not sound like %q; this may not be a phonetic misspelling", misspelling, correction))
	}
	if matchesWithin(compiled, in, correction) {
		warnings = append(warnings, "correction contains the misspelling; it will not be proposed where the correction already appears")
	}

	return warnings, nil
}

// matchesWithin reports whether the misspelling pattern finds a match inside
// the correction text.
func matchesWithin(compiled *regexp.Regexp, in model.RuleInput, correction string) bool {
	re := compiled
	if re == nil {
		var err error
		if re, err = common.CompileRulePattern(in.Misspelling, in.IsRegex, in.CaseSensitive); err != nil {
			return false
		}
	}
	return len(common.FindWholeWords(re, correction, common.MatchesWholeWords(in.Misspelling, in.IsRegex))) > 0
}

// SoundsAlike reports whether two spellings share a Double Metaphone code or
// are close by Jaro-Winkler similarity.
func SoundsAlike(a, b string) bool {
	a = common.NormalizeKey(a)
	b = common.NormalizeKey(b)
	if codesOverlap(metaphoneCodes(a), metaphoneCodes(b)) {
		return true
	}
	return matchr.JaroWinkler(a, b, false) >= minSoundAlikeScore
}

func metaphoneCodes(s string) map[string]struct{} {
	joined := strings.ReplaceAll(s, " ", "")
	codes := make(map[string]struct{}, 2)
	p, sec := matchr.DoubleMetaphone(joined)
	if p != "" {
		codes[p] = struct{}{}
	}
	if sec != "" {
		codes[sec] = struct{}{}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
