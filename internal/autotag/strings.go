package autotag

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// leading articles moved to the end before comparing, so "The Band" and
// "Band, The" compare equal
var articles = []string{"the", "a", "an"}

// normalize folds case and accents, drops punctuation and collapses spaces.
func normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '&':
			b.WriteString(" and ")
		default:
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())

	if len(words) > 1 {
		for _, a := range articles {
			if words[0] == a {
				words = append(words[1:], a)
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// StringDistance returns a normalized edit distance between two strings in
// [0, 1]. Zero means equal after normalization.
func StringDistance(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	a, b = normalize(a), normalize(b)
	if a == b {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	d := float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
	return min(d, 1)
}
