package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName reduces a category name to its comparison key: trimmed,
// lower-cased, diacritics stripped. "Día de Juegos" and "dia de juegos"
// fold to the same key.
func FoldName(name string) string {
	name = strings.TrimSpace(name)
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}
	return strings.ToLower(name)
}

// SanitizeFilterNames trims, drops empties, and de-duplicates filter
// category names case/diacritic-insensitively while preserving the
// first-seen original casing.
func SanitizeFilterNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := FoldName(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, name)
	}
	return result
}
