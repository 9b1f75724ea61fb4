package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldASCII strips combining marks so "José" becomes "Jose".
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func slugPart(s string) string {
	folded := strings.ToLower(foldASCII(strings.TrimSpace(s)))

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// ProfileSlug builds the public profile slug firstname-lastname-<epoch ms>.
func ProfileSlug(firstName, lastName string, now time.Time) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{slugPart(firstName), slugPart(lastName)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "student")
	}
	return fmt.Sprintf("%s-%d", strings.Join(parts, "-"), now.UnixMilli())
}

// DisplayName title-cases a person's name for letters and receipts.
func DisplayName(parts ...string) string {
	joined := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return cases.Title(language.English).String(strings.ToLower(joined))
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
