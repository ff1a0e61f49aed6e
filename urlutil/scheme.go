// Package urlutil provides scheme helpers for hyperlink targets.
// URLs are compared byte for byte; the only rewrite performed here is the
// http to https scheme upgrade.
package urlutil

import "strings"

// Scheme returns the lower-cased scheme of rawURL, or "" when rawURL does
// not start with a syntactically valid scheme followed by ':'.
func Scheme(rawURL string) string {
	for i := 0; i < len(rawURL); i++ {
		c := rawURL[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return ""
			}
		case c == ':':
			if i == 0 {
				return ""
			}
			return strings.ToLower(rawURL[:i])
		default:
			return ""
		}
	}
	return ""
}

// IsHTTPScheme returns true if the URL has an http or https scheme.
// Returns false for empty strings and non-HTTP schemes.
func IsHTTPScheme(rawURL string) bool {
	scheme := Scheme(rawURL)
	return scheme == "http" || scheme == "https"
}

// SecureCounterpart returns rawURL with an http scheme rewritten to https.
// An https URL is returned unchanged. ok is false for every other scheme,
// meaning the URL is not checked at all.
func SecureCounterpart(rawURL string) (secure string, ok bool) {
	switch Scheme(rawURL) {
	case "https":
		return rawURL, true
	case "http":
		return "https" + rawURL[len("http"):], true
	default:
		return "", false
	}
}
