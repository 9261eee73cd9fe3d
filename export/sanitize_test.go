package export

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"Plain title", "Plain title"},
		{"2024-01-15 Release Notes", "2024-01-15 Release Notes"},
		{"What / why?", "What why"},
		{"a:b<c>d\"e|f*g\\h", "abcdefgh"},
		{"  spaced   out  ", "spaced out"},
		{"", "Untitled"},
		{"///", "Untitled"},
		{"Ünïcödé stays 😊", "Ünïcödé stays 😊"},
	}

	for _, c := range cases {
		got := sanitizeTitle(c.input)
		if got != c.expected {
			t.Errorf("sanitizeTitle(%q) = %q, want %q", c.input, got, c.expected)
		}
	}
}

func TestSanitizeTitleKeepsDates(t *testing.T) {
	got := sanitizeTitle("2024-01-15 Release Notes")
	if !strings.Contains(got, "2024-01-15") {
		t.Errorf("date was mangled: %q", got)
	}
}

func TestSanitizeTitleCapsLength(t *testing.T) {
	long := strings.Repeat("a", 400)
	got := sanitizeTitle(long)
	if len(got) > 150 {
		t.Errorf("title not capped, len=%d", len(got))
	}
}

func TestSanitizeTitleCapsOnRuneBoundary(t *testing.T) {
	// the cap lands mid-rune here; the cut must not leave a dangling UTF-8 byte
	got := sanitizeTitle(strings.Repeat("x", 149) + "日本語の長いタイトル")
	if len(got) > 150 {
		t.Errorf("title not capped, len=%d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("dia gram.png"); got != "dia gram.png" {
		t.Errorf("unexpected: %q", got)
	}
	if got := sanitizeFilename("???"); got != "unnamed" {
		t.Errorf("all-invalid filename should become unnamed, got %q", got)
	}
}

func TestFolderName(t *testing.T) {
	got := folderName("Team Page: 2024", ContentID("12345"))
	if got != "Team Page 2024_12345" {
		t.Errorf("unexpected folder name: %q", got)
	}
}
