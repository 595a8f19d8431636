package store

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrTitleRequired is returned when a bookmark title is empty after trimming.
	ErrTitleRequired = errors.New("title is required")

	// ErrURLRequired is returned when a bookmark URL is empty after trimming.
	ErrURLRequired = errors.New("url is required")

	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
)

// ValidateBookmark checks that title and url are non-empty after trimming.
func ValidateBookmark(title, url string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(url) == "" {
		return ErrURLRequired
	}
	return nil
}

// NormalizeURL trims surrounding whitespace and prepends https:// when the
// value carries no recognizable scheme. "example.com" becomes
// "https://example.com"; "http://example.com" is left alone.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if schemeRe.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}
