package rangeserve

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateKey checks that key is a clean, relative, slash-separated object
// key. The empty key is handled by callers (it names the root index) and is
// rejected here.
//
// Rejected keys wrap ErrInvalidInput with the reason.
func ValidateKey(key string) error {
	reason := keyProblem(key)
	if reason == "" {
		return nil
	}
	return fmt.Errorf("validate key %q: %w: %s", key, ErrInvalidInput, reason)
}

func keyProblem(key string) string {
	switch {
	case key == "" || key == "." || key == "/":
		return "empty key"
	case !utf8.ValidString(key):
		return "not valid UTF-8"
	case strings.HasPrefix(key, "/"):
		return "absolute key"
	case strings.HasSuffix(key, "/"):
		return "trailing slash"
	case strings.Contains(key, ".."):
		// also rejects names like "a..b"
		return "contains '..'"
	case strings.Contains(key, "//"):
		return "empty segment"
	case strings.ContainsAny(key, `\?#~`):
		return `contains one of \ ? # ~`
	}

	for _, seg := range strings.Split(key, "/") {
		if seg == "." {
			return "'.' segment"
		}
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return "control or space character"
		}
	}

	return ""
}
