package platform

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

var opaqueSchemes = []string{"mailto:", "tel:", "sms:"}

// allowedSchemes are the link targets a public profile may carry.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
	"sms":    true,
}

// HasScheme reports whether raw starts with a URL scheme.
func HasScheme(raw string) bool {
	if schemeRe.MatchString(raw) {
		return true
	}
	lower := strings.ToLower(raw)
	for _, s := range opaqueSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// NormalizeURL validates a custom link target. A value without a scheme
// gets "https://" when it looks like a domain or path (contains "." or "/");
// anything else without a scheme is rejected, as is any scheme outside
// http, https, mailto, tel and sms.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyInput
	}
	if !HasScheme(s) {
		if !strings.ContainsAny(s, "./") {
			return "", fmt.Errorf("%w: %q is not a link", ErrInvalidInput, s)
		}
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a link", ErrInvalidInput, raw)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", fmt.Errorf("%w: %q links are not allowed", ErrInvalidInput, u.Scheme)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidInput, raw)
	}
	return s, nil
}

// WithScheme prefixes "https://" when raw has no scheme. Used for
// onboarding's additional links, which are not otherwise validated.
func WithScheme(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || HasScheme(s) {
		return s
	}
	return "https://" + s
}
