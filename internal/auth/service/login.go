package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/internal/auth/store"
	"github.com/shoptally/shoptally/pkg/cryptox"
)

const (
	// DefaultLockoutThreshold arms a lockout after this many consecutive
	// failures.
	DefaultLockoutThreshold = 5

	// DefaultLockoutDuration is how long an armed lockout holds.
	DefaultLockoutDuration = 15 * time.Minute
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so callers cannot distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked means the lockout window is in effect; returned even
	// for a correct password.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountDisabled means the account has been deactivated.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrPasswordExpired means the credentials were correct but the password
	// aged out; no session may be issued until it is changed.
	ErrPasswordExpired = errors.New("password expired")
)

// LoginResult is the outcome of a successful first factor.
type LoginResult struct {
	User domain.User

	// MFARequired means no session was issued; the caller must complete the
	// second factor with a temp token.
	MFARequired bool
}

// LoginService drives the login state machine:
// exists -> active -> locked -> password -> expired -> session or MFA
// challenge. Lockout counters are updated through a single conditional store
// write so concurrent failures cannot race past the threshold.
type LoginService struct {
	Store store.Store

	// LockoutThreshold and LockoutDuration default to the package constants
	// when zero.
	LockoutThreshold int
	LockoutDuration  time.Duration

	// PasswordExpirationDays defaults to DefaultPasswordExpirationDays when
	// zero; negative disables the expiry gate.
	PasswordExpirationDays int
}

func (s *LoginService) threshold() int {
	if s.LockoutThreshold > 0 {
		return s.LockoutThreshold
	}
	return DefaultLockoutThreshold
}

func (s *LoginService) lockoutDuration() time.Duration {
	if s.LockoutDuration > 0 {
		return s.LockoutDuration
	}
	return DefaultLockoutDuration
}

func (s *LoginService) expirationDays() int {
	switch {
	case s.PasswordExpirationDays > 0:
		return s.PasswordExpirationDays
	case s.PasswordExpirationDays < 0:
		return 0
	default:
		return DefaultPasswordExpirationDays
	}
}

// Login runs the first factor. On success with MFA disabled the caller
// issues a session; with MFA enabled the caller issues a temp token instead.
// Account-level failures still return the matched user so the caller can
// attribute the audit entry.
func (s *LoginService) Login(ctx context.Context, email, password string, now time.Time) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	// Disabled beats everything else, including a correct password.
	if !user.IsActive {
		return LoginResult{User: user}, ErrAccountDisabled
	}

	if user.Locked(now) {
		return LoginResult{User: user}, ErrAccountLocked
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, fmt.Errorf("verify password: %w", err)
		}
		failure, ferr := s.Store.Users().RecordLoginFailure(ctx, user.ID,
			s.threshold(), now.Add(s.lockoutDuration()))
		if ferr != nil {
			return LoginResult{}, fmt.Errorf("record login failure: %w", ferr)
		}
		// The failure that armed the lock reports the lockout, not a
		// generic credential error.
		if failure.LockUntil != nil && now.Before(*failure.LockUntil) {
			return LoginResult{User: user}, ErrAccountLocked
		}
		return LoginResult{User: user}, ErrInvalidCredentials
	}

	if IsPasswordExpired(user.PasswordLastUpdated, now, s.expirationDays()) {
		return LoginResult{User: user}, ErrPasswordExpired
	}

	if err := s.Store.Users().RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return LoginResult{}, fmt.Errorf("record login success: %w", err)
	}

	return LoginResult{
		User:        user,
		MFARequired: user.MFAEnabled(),
	}, nil
}
