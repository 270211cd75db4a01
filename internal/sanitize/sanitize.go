// Package sanitize cleans and validates free-text input submitted through the
// public membership forms before it is persisted.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxInputLength = 1000
	MaxEmailLength = 254
	MinNameLength  = 2
	MaxNameLength  = 100
)

var (
	scriptTagPattern  = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	jsSchemePattern   = regexp.MustCompile(`(?i)javascript:`)
	eventAttrPattern  = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	emailPattern      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneStripPattern = regexp.MustCompile(`[\s\-()]`)
	phonePattern      = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	tierIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Input trims s, removes script tags, javascript: schemes and inline event
// handlers, and truncates the result to MaxInputLength runes.
func Input(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = scriptTagPattern.ReplaceAllString(s, "")
	s = jsSchemePattern.ReplaceAllString(s, "")
	s = eventAttrPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return truncate(s, MaxInputLength)
}

// OptionalInput sanitizes s and returns nil when nothing is left.
func OptionalInput(s string) *string {
	out := Input(s)
	if out == "" {
		return nil
	}
	return &out
}

// Email lowercases and sanitizes s and reports whether it is a valid address.
func Email(s string) (string, bool) {
	email := strings.ToLower(Input(s))
	if email == "" || len(email) > MaxEmailLength {
		return email, false
	}
	return email, emailPattern.MatchString(email)
}

func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Phone strips spaces, dashes and parentheses and validates an E.164-like number.
func Phone(s string) (string, bool) {
	phone := phoneStripPattern.ReplaceAllString(strings.TrimSpace(s), "")
	return phone, phonePattern.MatchString(phone)
}

func IsValidName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinNameLength && n <= MaxNameLength
}

func IsValidTierID(s string) bool {
	return tierIDPattern.MatchString(s)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
