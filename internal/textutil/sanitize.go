package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName turns a match folder or replay name into a safe export
// file name. Path separators, colons and asterisks become dashes; quotes,
// wildcards, redirections and control characters are dropped. Leading dots
// are trimmed so the result never names a hidden file.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimLeft(strings.TrimSpace(cleaned), ".")
}
