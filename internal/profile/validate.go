package profile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrPlanLimit     = errors.New("plan limit reached")
	ErrUsernameTaken = errors.New("username taken")
	ErrNotFound      = errors.New("profile not found")
)

const (
	MaxBioLength   = 160
	MaxNameLength  = 100
	MaxTitleLength = 100
	MaxLabelLength = 60
	MinSlugLength  = 3
	MaxSlugLength  = 30
	maxPhoneLength = 30
	maxThemeLength = 40
	maxURLLength   = 2048
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reserved are path segments the public "/:username" route cannot shadow.
var reserved = map[string]bool{
	"admin": true, "api": true, "auth": true, "dashboard": true, "onboarding": true,
	"pricing": true, "contact": true, "u": true, "media": true, "static": true,
	"login": true, "logout": true, "settings": true, "healthz": true,
}

// ValidateSlug checks the format of a username. Availability is checked
// separately against the store.
func ValidateSlug(slug string) error {
	n := len(slug)
	if n < MinSlugLength || n > MaxSlugLength {
		return fmt.Errorf("%w: username must be %d to %d characters", ErrInvalidInput, MinSlugLength, MaxSlugLength)
	}
	if !slugRe.MatchString(slug) {
		return fmt.Errorf("%w: username may only contain letters, numbers, '-' and '_'", ErrInvalidInput)
	}
	if reserved[strings.ToLower(slug)] {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidInput, slug)
	}
	return nil
}

func checkLength(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, max)
	}
	return nil
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
