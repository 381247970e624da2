package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// e-Stat API application IDs and other keys, in query strings or
	// key=value error text.
	appIDKVRe = regexp.MustCompile(`(?i)\b(app[_-]?id|api[_-]?key)\b\s*[:=]\s*[^\s"'&]+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = appIDKVRe.ReplaceAllString(out, "${1}=<redacted>")
	return strings.TrimSpace(out)
}
