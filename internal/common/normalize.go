package common

import "strings"

// NormalizeKey prepares a rule field for duplicate comparison:
// trims surrounding whitespace, lower-cases and collapses inner whitespace.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DuplicateKey is the identity used to detect duplicate rules.
func DuplicateKey(misspelling, correction string) string {
	return NormalizeKey(misspelling) + "\x00" + NormalizeKey(correction)
}
