package slug

import (
	"regexp"
	"strings"
)

var (
	slugRegexp   = regexp.MustCompile(`[^a-z0-9]+`)
	handleRegexp = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// MaxHandleLength is the longest product handle accepted by the storefront.
const MaxHandleLength = 255

var foldReplacer = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ä", "a", "å", "a", "ã", "a",
	"ç", "c", "è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
	"ñ", "n", "ò", "o", "ó", "o", "ô", "o", "ö", "o", "ø", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u", "ğ", "g", "ş", "s", "ß", "ss",
)

// Normalize turns free text or a loosely typed handle into a product handle:
// lowercase ASCII, words joined by single hyphens.
//
// Examples:
//   - "Classic Tee" → "classic-tee"
//   - "Crème Brûlée Mug" → "creme-brulee-mug"
//   - "  hoodie--GREY " → "hoodie-grey"
func Normalize(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = foldReplacer.Replace(out)
	out = slugRegexp.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// IsHandle reports whether s is already a well-formed product handle.
func IsHandle(s string) bool {
	return len(s) > 0 && len(s) <= MaxHandleLength && handleRegexp.MatchString(s)
}
