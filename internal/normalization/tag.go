package normalization

import (
	"strings"

	apperrors "github.com/learnloop/learnloop-backend/internal/pkg/errors"
)

// maxTagLen keeps tag names short enough for downstream search URLs.
const maxTagLen = 50

// unsafe characters are percent-encoded because tag names end up inside
// query strings built for external source APIs.
const unsafeChars = "&?#%+"

// Tag canonicalizes a free-text tag or keyword: lowercase, trimmed,
// truncated to 50 characters, with URL-unsafe characters percent-encoded.
// "Python", " python " and "python" all collapse to the same value; every
// tag written to storage or matched against interests must pass through
// here.
func Tag(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", apperrors.ErrEmptyTag
	}
	// Truncate by runes, not bytes; Cyrillic tags are two bytes per
	// character and a byte slice would cut mid-rune.
	if runes := []rune(name); len(runes) > maxTagLen {
		name = string(runes[:maxTagLen])
	}
	if strings.ContainsAny(name, unsafeChars) {
		var b strings.Builder
		for i := 0; i < len(name); i++ {
			c := name[i]
			if strings.IndexByte(unsafeChars, c) >= 0 {
				b.WriteByte('%')
				b.WriteByte("0123456789ABCDEF"[c>>4])
				b.WriteByte("0123456789ABCDEF"[c&0xF])
			} else {
				b.WriteByte(c)
			}
		}
		name = b.String()
	}
	return name, nil
}

// ParseInputString lowercases and trims free-form user input.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
