package storage

import (
	"strings"
	"unicode/utf8"
)

// NormalizeIdent converts an arbitrary header name into a safe SQL
// identifier:
//   - lower
//   - separators (space - . / \ : ;) collapse to a single underscore
//   - everything outside [a-z0-9_] is dropped
//   - leading/trailing underscores are trimmed
//
// Backends quote identifiers anyway; normalization keeps column names
// portable across dialects and shells.
func NormalizeIdent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';' {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			lastUnderscore = (r == '_')
			continue
		}

		// Drop everything else.
	}

	return strings.Trim(b.String(), "_")
}

// TruncateIdent enforces backend identifier length limits while preserving
// UTF-8 validity.
func TruncateIdent(s string) string {
	const maxLen = 63
	if len(s) <= maxLen {
		return s
	}
	b := []byte(s)
	cut := maxLen
	for cut > 0 && !utf8.Valid(b[:cut]) {
		cut--
	}
	if cut <= 0 {
		return s[:maxLen]
	}
	return string(b[:cut])
}
