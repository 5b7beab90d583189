package common

import (
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// HasBoundary reports whether a regular expression already anchors itself
// with ^, $, \A, \z, \b or \B. Escaped characters and character classes
// such as [^x] or \$ are not anchors. A pattern that does not parse has none.
func HasBoundary(pattern string) bool {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return false
	}
	return hasAnchor(re)
}

func hasAnchor(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	for _, sub := range re.Sub {
		if hasAnchor(sub) {
			return true
		}
	}
	return false
}

// MatchesWholeWords reports whether RulePattern wraps the rule in word
// boundaries, so its matches must also pass IsWholeWord.
func MatchesWholeWords(misspelling string, isRegex bool) bool {
	return !isRegex || !HasBoundary(misspelling)
}

// IsWholeWord reports whether text[start:end] is not glued to a letter or
// digit on either side. RE2's \b only knows ASCII word characters, so
// "na" matches inside "naïve" and "café" inside "cafés"; this check uses
// Unicode letters and digits instead.
func IsWholeWord(text string, start, end int) bool {
	if start > 0 {
		first, _ := utf8.DecodeRuneInString(text[start:])
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isUnicodeWordRune(first) && isUnicodeWordRune(prev) {
			return false
		}
	}
	if end < len(text) {
		last, _ := utf8.DecodeLastRuneInString(text[:end])
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isUnicodeWordRune(last) && isUnicodeWordRune(next) {
			return false
		}
	}
	return true
}

// RulePattern builds the regular expression source for a rule.
//
// Literal misspellings are quoted, inner whitespace matches any whitespace run,
// and a \b is added on each side that starts or ends with an ASCII word
// character. Regex misspellings are used as written; unless they carry their
// own anchors, whole-word matching is left to IsWholeWord, because a \b next
// to a pattern edge such as \$ would never match.
func RulePattern(misspelling string, isRegex, caseSensitive bool) string {
	var src string
	if isRegex {
		src = misspelling
	} else {
		trimmed := strings.TrimSpace(misspelling)
		words := whitespaceRun.Split(trimmed, -1)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		src = strings.Join(words, `\s+`)
		if first, _ := utf8.DecodeRuneInString(trimmed); isWordRune(first) {
			src = `\b` + src
		}
		if last, _ := utf8.DecodeLastRuneInString(trimmed); isWordRune(last) {
			src += `\b`
		}
	}
	if !caseSensitive {
		src = `(?i)` + src
	}
	return src
}

// CompileRulePattern compiles the expression produced by RulePattern.
// Regex rules without their own anchors prefer the longest match at each
// position, so an alternation like "te|teh" yields the whole word.
func CompileRulePattern(misspelling string, isRegex, caseSensitive bool) (*regexp.Regexp, error) {
	re, err := regexp.Compile(RulePattern(misspelling, isRegex, caseSensitive))
	if err != nil {
		return nil, err
	}
	if isRegex && !HasBoundary(misspelling) {
		re.Longest()
	}
	return re, nil
}

// FindWholeWords returns the non-empty matches of re in text that pass
// IsWholeWord when wholeWords is set.
func FindWholeWords(re *regexp.Regexp, text string, wholeWords bool) [][]int {
	var out [][]int
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if wholeWords && !IsWholeWord(text, loc[0], loc[1]) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

// isWordRune matches the ASCII word class used by RE2's \b. Literals that
// start or end with a non-ASCII letter get no \b on that side and rely on
// IsWholeWord instead.
func isWordRune(r rune) bool {
	return r < utf8.RuneSelf && isUnicodeWordRune(r)
}

func isUnicodeWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
