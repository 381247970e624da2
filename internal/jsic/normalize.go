package jsic

import (
	"strings"
	"unicode"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeDescription turns line breaks into spaces, collapses whitespace
// runs into one ASCII space and trims. nil stays nil.
func NormalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	s := lineBreaks.Replace(*desc)
	s = strings.Join(strings.FieldsFunc(s, isSpace), " ")
	return &s
}

// NormalizeDescriptions returns a copy of rows with every Desc normalized.
func NormalizeDescriptions(rows []RawRow) []RawRow {
	out := make([]RawRow, len(rows))
	for i, r := range rows {
		r.Desc = NormalizeDescription(r.Desc)
		out[i] = r
	}
	return out
}

// isSpace reports unicode.IsSpace runes and the ASCII separators U+001C
// through U+001F.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
