package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldSearchTerm lowercases and strips diacritics so that "Peñalolén"
// matches "penalolen". Customer data is Chilean Spanish.
func FoldSearchTerm(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
