package textutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Žádost", "Zadost"},
		{"Veřejná vyhláška", "Verejna vyhlaska"},
		{"příloha č. 2", "priloha c. 2"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripDiacritics(tt.in))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "verejna vyhlaska", Normalize("Veřejná VYHLÁŠKA"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"diacritics and spaces", "Žádost o vydání.pdf", "Zadost_o_vydani.pdf"},
		{"apostrophe dropped", "o'brien report.doc", "obrien_report.doc"},
		{"unsafe chars removed", "a+b(c)&d.pdf", "abcd.pdf"},
		{"no extension", "příloha č 1", "priloha_c_1"},
		{"extension sanitized", "scan.p df", "scan.p_df"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{"Žádost o vydání.pdf", "a+b(c)&d.pdf", "už_sanitizovane-jmeno.txt"}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		assert.Equal(t, once, SanitizeFilename(once))
	}
}

func TestSanitizeFilenameCharset(t *testing.T) {
	out := SanitizeFilename("Všelijaký % divný / název (v2).tar.gz")
	for _, r := range out {
		ok := r == '_' || r == '-' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		assert.Truef(t, ok, "unexpected rune %q in %q", r, out)
	}
}

func TestCleanHTMLText(t *testing.T) {
	in := "  <b>Ve&#345;ejn&aacute;</b>\n  vyhl&aacute;&scaron;ka <br/> "
	assert.Equal(t, "Veřejná vyhláška", CleanHTMLText(in))
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "Záměr obce", CapitalizeFirst("záměr obce"))
	assert.Equal(t, "", CapitalizeFirst(""))
}

func TestParseCzechDate(t *testing.T) {
	d, err := ParseCzechDate(" 03.05.2024 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseCzechDate("2024-05-03")
	assert.Error(t, err)
}
