package export

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// sanitizeTitle strips only characters that are truly invalid in folder names, keeping
// everything else -- digits, dates, unicode -- intact.  "2024-01-15 Release Notes" must
// still contain "2024-01-15" afterwards.
func sanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '|', '?', '*', '/', '\\':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, title)

	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if cleaned == "" {
		return "Untitled"
	}

	// Keep folder names from getting silly on deep trees.  Cut on a rune boundary; a
	// dangling UTF-8 byte makes an invalid filename on some filesystems.
	if len(cleaned) > 150 {
		cut := 150
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = strings.TrimSpace(cleaned[:cut])
	}

	return cleaned
}

// sanitizeFilename applies the same character rules to attachment filenames.
func sanitizeFilename(filename string) string {
	cleaned := sanitizeTitle(filename)
	if cleaned == "Untitled" && filename != "Untitled" {
		return "unnamed"
	}
	return cleaned
}

// folderName computes a page's output folder: sanitized title plus the page ID, which
// keeps folders unique even when sibling titles collide after sanitization.
func folderName(title string, id ContentID) string {
	return fmt.Sprintf("%s_%s", sanitizeTitle(title), id)
}
