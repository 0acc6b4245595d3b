package csvkit

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxTextLength = 10000

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// CleanText strips HTML tags, trims whitespace and truncates overly long
// free-text values. Spreadsheet exports routinely smuggle markup in.
func CleanText(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) > maxTextLength {
		cut := maxTextLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// IsValidUUID reports whether s parses as a UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// GenerateKey derives a URL-safe key from a display name: lowercase, fold
// common diacritics, collapse everything else to hyphens, then append a short
// random suffix so regenerated keys never collide.
func GenerateKey(name string) string {
	slug := Slugify(name)
	if slug == "" {
		slug = "game"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return slug + "-" + suffix
}

// Slugify lowercases and hyphenates a name without a suffix.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == 'å' || r == 'ä':
			b.WriteByte('a')
			lastHyphen = false
		case r == 'ö':
			b.WriteByte('o')
			lastHyphen = false
		case r == 'é' || r == 'è' || r == 'ê':
			b.WriteByte('e')
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
