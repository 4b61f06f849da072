// Package textutil holds the text normalization helpers shared by the site
// parsers and the artifact sinks: diacritics stripping, filename
// sanitization, HTML text cleanup and Czech date handling.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CzechDateLayout is the day.month.year format used by both bulletin boards.
const CzechDateLayout = "02.01.2006"

// ISODateLayout is the YYYY-MM-DD form used in filenames and records.
const ISODateLayout = "2006-01-02"

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	unsafeNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

	stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// StripDiacritics removes combining marks, keeping letter case
// ("Žádost" becomes "Zadost").
func StripDiacritics(s string) string {
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases the text with diacritics removed. Used for the
// searchable title variant stored alongside import records.
func Normalize(s string) string {
	return strings.ToLower(StripDiacritics(s))
}

// SanitizeFilename rewrites an attachment's display name into the safe
// character set: diacritics stripped, spaces to underscores, apostrophes
// dropped, everything outside [A-Za-z0-9_-] removed. The extension is
// sanitized the same way with the dot preserved. Idempotent.
func SanitizeFilename(name string) string {
	if name == "" {
		return name
	}
	base, ext := splitExt(name)
	return sanitizePart(base) + sanitizePart(ext)
}

func splitExt(name string) (string, string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}

func sanitizePart(s string) string {
	dotted := strings.HasPrefix(s, ".")
	s = strings.TrimPrefix(s, ".")
	s = StripDiacritics(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "'", "")
	s = unsafeNamePattern.ReplaceAllString(s, "")
	if dotted {
		return "." + s
	}
	return s
}

// CleanHTMLText decodes entities, strips tags and collapses whitespace runs
// to single spaces, trimming both ends.
func CleanHTMLText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, " ")
	return CollapseWhitespace(s)
}

// CollapseWhitespace reduces internal whitespace runs to single spaces and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// CapitalizeFirst uppercases the first rune and keeps the rest untouched.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ParseCzechDate parses a DD.MM.YYYY token into a calendar date.
func ParseCzechDate(s string) (time.Time, error) {
	return time.Parse(CzechDateLayout, strings.TrimSpace(s))
}
