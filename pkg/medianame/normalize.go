package medianame

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanTitle normalizes a title for comparison.
// Lowercases, strips accents, leading articles and punctuation, and collapses whitespace.
func CleanTitle(title string) string {
	s := removeAccents(strings.ToLower(title))

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.NewReplacer("-", " ", ".", " ", "_", " ").Replace(s)

	// "Léon: The Professional" -> strip the article from each part
	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripLeadingArticle(part)
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SearchQuery prepares a parsed title for a provider text search.
// Underscores become spaces. Dots are treated as separators only in a
// title with no spaces that is not an acronym ("Mr.Robot" but not "S.W.A.T.");
// otherwise the title is kept as parsed, so "A.I. Artificial Intelligence"
// is searched as is.
func SearchQuery(title string) string {
	s := strings.ReplaceAll(title, "_", " ")
	if !strings.ContainsRune(strings.TrimSpace(title), ' ') && dotSeparated(s) {
		s = strings.ReplaceAll(s, ".", " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

func dotSeparated(s string) bool {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' })
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if utf8.RuneCountInString(strings.TrimSpace(p)) > 1 {
			return true
		}
	}
	return false
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func stripLeadingArticle(s string) string {
	s = strings.TrimSpace(s)
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, art) {
			return strings.TrimPrefix(s, art)
		}
	}
	return s
}
