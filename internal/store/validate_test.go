package store_test

import (
	"errors"
	"testing"

	"github.com/marksapp/marks/internal/store"
)

func TestValidateBookmark(t *testing.T) {
	if err := store.ValidateBookmark("Title", "https://example.com"); err != nil {
		t.Errorf("valid bookmark: %v", err)
	}
	if err := store.ValidateBookmark("", "https://example.com"); !errors.Is(err, store.ErrTitleRequired) {
		t.Errorf("empty title: err = %v", err)
	}
	if err := store.ValidateBookmark("  ", "https://example.com"); !errors.Is(err, store.ErrTitleRequired) {
		t.Errorf("whitespace title: err = %v", err)
	}
	if err := store.ValidateBookmark("Title", ""); !errors.Is(err, store.ErrURLRequired) {
		t.Errorf("empty url: err = %v", err)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/path  ", "https://example.com/path"},
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"ftp://example.com", "ftp://example.com"},
		{"chrome-extension://abc", "chrome-extension://abc"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := store.NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
