// Package normalize provides the string normalization applied before any
// equality or substring comparison in matching and merging, making the
// engine resilient to punctuation and casing noise in extracted values.
package normalize

import (
	"strings"
	"unicode"
)

// Reference normalizes a shipment/BOL/PRO reference: trim, uppercase,
// strip everything that is not a letter or digit. Nil in, nil out.
func Reference(value *string) *string {
	if value == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(*value)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	return &out
}

// Scac normalizes a Standard Carrier Alpha Code: trim, uppercase, strip
// non-letters, truncate to 4 characters. Nil in, nil out.
func Scac(value *string) *string {
	if value == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(*value)) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
		if b.Len() == 4 {
			break
		}
	}
	out := b.String()
	return &out
}

// Text normalizes free text: trim, lowercase, collapse internal runs of
// whitespace to single spaces. Nil in, nil out.
func Text(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.ToLower(strings.TrimSpace(*value))
	out = strings.Join(strings.FieldsFunc(out, unicode.IsSpace), " ")
	return &out
}

// TitleCase capitalizes the first letter of each word and lowercases the
// rest, for display labels.
func TitleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
