package services

import (
	"strings"
	"unicode"
)

// normalizeText lower-cases the input, maps every non-alphanumeric rune to a
// space, collapses space runs, and trims. All keyword comparisons, the
// canonical main-term phrase, and the provider batch texts are built on this
// form.
func normalizeText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// containsWholeToken reports whether token occurs in text on word boundaries.
// Both arguments must already be normalized. Padding both sides with spaces
// keeps "ham" from matching inside "birmingham" while still allowing
// multi-word tokens like "milton keynes".
func containsWholeToken(text, token string) bool {
	return strings.Contains(" "+text+" ", " "+token+" ")
}

// canonicalPhrase builds the expected main-term text for a scope:
// normalized category display name followed by normalized location name.
func canonicalPhrase(categoryDisplayName, locationName string) string {
	return strings.TrimSpace(normalizeText(categoryDisplayName) + " " + normalizeText(locationName))
}
