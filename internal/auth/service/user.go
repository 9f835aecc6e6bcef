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
	"github.com/shoptally/shoptally/pkg/idx"
)

// ErrEmailTaken wraps store.ErrAlreadyExists for identity collisions.
var ErrEmailTaken = errors.New("email or phone already registered")

// UserService owns account lifecycle: registration, password rotation, and
// profile reads.
type UserService struct {
	Store store.Store

	// PasswordHistoryLimit defaults to DefaultPasswordHistoryLimit when zero.
	PasswordHistoryLimit int
}

func (s *UserService) historyLimit() int {
	if s.PasswordHistoryLimit > 0 {
		return s.PasswordHistoryLimit
	}
	return DefaultPasswordHistoryLimit
}

// RegisterParams carries a new account's fields.
type RegisterParams struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register creates an account with a hashed password and seeds the password
// history so the initial password cannot be immediately reused.
func (s *UserService) Register(ctx context.Context, p RegisterParams, now time.Time) (domain.User, error) {
	if err := ValidateComplexity(p.Password, p.Name); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:                  idx.New().String(),
		Name:                strings.TrimSpace(p.Name),
		Email:               strings.ToLower(strings.TrimSpace(p.Email)),
		PasswordHash:        hash,
		PasswordLastUpdated: &now,
		IsActive:            true,
		Role:                domain.RoleUser,
		SubscriptionPlan:    "free",
		SubscriptionStatus:  "active",
	}
	if phone := strings.TrimSpace(p.Phone); phone != "" {
		user.Phone = &phone
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.PasswordHistory().Replace(ctx, user.ID, []string{hash})
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// ChangePassword rotates the password after re-verifying the current one.
// The new password must pass complexity checks and must not match any hash
// in the bounded history window (which includes the current password).
func (s *UserService) ChangePassword(ctx context.Context, user domain.User, currentPassword, newPassword string, now time.Time) error {
	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("verify current password: %w", err)
	}

	if err := ValidateComplexity(newPassword, user.Name); err != nil {
		return err
	}

	history, err := s.Store.PasswordHistory().ListHashes(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load password history: %w", err)
	}
	// Older records may predate history seeding.
	if len(history) == 0 {
		history = []string{user.PasswordHash}
	}

	reused, err := CheckPasswordHistory(ctx, newPassword, history)
	if err != nil {
		return fmt.Errorf("check password history: %w", err)
	}
	if reused {
		return ErrPasswordReused
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	newHistory := AddToPasswordHistory(newHash, history, s.historyLimit())

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, newHash, now); err != nil {
			return fmt.Errorf("update password hash: %w", err)
		}
		return tx.PasswordHistory().Replace(ctx, user.ID, newHistory)
	})
}

// Profile loads a user by id.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// Deactivate disables an account; existing sessions are rejected by the auth
// middleware's is_active check on the next request.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	return s.Store.Users().SetActive(ctx, userID, false)
}

// Reactivate re-enables a previously disabled account.
func (s *UserService) Reactivate(ctx context.Context, userID string) error {
	return s.Store.Users().SetActive(ctx, userID, true)
}
