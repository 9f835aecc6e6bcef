package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shoptally/shoptally/pkg/cryptox"
)

const (
	// DefaultPasswordExpirationDays forces rotation after 90 days.
	DefaultPasswordExpirationDays = 90

	// DefaultPasswordHistoryLimit bounds how many prior hashes are retained.
	DefaultPasswordHistoryLimit = 5

	minPasswordLength = 8
)

var (
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrPasswordNoUpper      = errors.New("password must contain an uppercase letter")
	ErrPasswordNoLower      = errors.New("password must contain a lowercase letter")
	ErrPasswordNoDigit      = errors.New("password must contain a digit")
	ErrPasswordNoSpecial    = errors.New("password must contain a special character")
	ErrPasswordContainsName = errors.New("password must not contain your name")
	ErrPasswordReused       = errors.New("password was used recently")
)

// IsPasswordExpired reports whether the password has aged past
// expirationDays, counted in whole days. A nil timestamp means the record
// predates expiration tracking and is treated as not expired.
func IsPasswordExpired(lastUpdated *time.Time, now time.Time, expirationDays int) bool {
	if lastUpdated == nil || expirationDays <= 0 {
		return false
	}
	days := int(now.Sub(*lastUpdated).Hours() / 24)
	return days >= expirationDays
}

// CheckPasswordHistory reports whether candidate matches any stored hash.
// Sequential compare is intentional: the history is bounded (default 5) and
// each compare is an argon2 evaluation.
func CheckPasswordHistory(ctx context.Context, candidate string, historyHashes []string) (bool, error) {
	for _, hash := range historyHashes {
		err := cryptox.VerifyPassword(candidate, hash)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return false, err
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// AddToPasswordHistory prepends newHash and truncates to limit. The input
// slice is not mutated.
func AddToPasswordHistory(newHash string, history []string, limit int) []string {
	out := make([]string, 0, len(history)+1)
	out = append(out, newHash)
	out = append(out, history...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ValidateComplexity enforces the password policy: minimum length 8 with
// upper, lower, digit, and special characters, and no case-insensitive
// occurrence of any part of the user's name.
func ValidateComplexity(password, name string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasLower:
		return ErrPasswordNoLower
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSpecial:
		return ErrPasswordNoSpecial
	}

	lowered := strings.ToLower(password)
	for _, part := range strings.Fields(strings.ToLower(name)) {
		// Short name fragments ("j", "de") would reject too much.
		if len(part) < 3 {
			continue
		}
		if strings.Contains(lowered, part) {
			return ErrPasswordContainsName
		}
	}

	return nil
}
