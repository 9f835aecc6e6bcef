package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/internal/auth/store"
	"github.com/shoptally/shoptally/pkg/cryptox"
)

const (
	recoveryCodeCount = 10
	recoveryCodeBytes = cryptox.TokenSize128

	totpPeriod     = 30
	totpSecretSize = 20 // bytes of entropy per RFC 4226 recommendation
	totpSkew       = 2  // accept codes up to ±2 steps (±60s) of clock drift
)

var (
	ErrInvalidTOTPCode     = errors.New("invalid TOTP code")
	ErrTOTPReplayed        = errors.New("TOTP code already used")
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	ErrMFANotEnabled       = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled   = errors.New("MFA already enabled for this user")
	ErrMFANotPending       = errors.New("MFA setup not started")
)

var totpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// MFAService owns TOTP provisioning and verification. Secrets are sealed
// with the SecretBox before they touch the database; recovery codes are
// stored as fingerprints only.
type MFAService struct {
	Store  store.Store
	Box    *cryptox.SecretBox
	Issuer string // issuer label shown in authenticator apps
}

// SanitizeTOTPCode strips whitespace and rejects anything that is not
// exactly six digits. Authenticator apps commonly display "123 456".
func SanitizeTOTPCode(code string) (string, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if !totpCodePattern.MatchString(code) {
		return "", ErrInvalidTOTPCode
	}
	return code, nil
}

// Setup provisions a fresh TOTP secret for the user. The secret is stored
// encrypted as the temp secret and MFA stays off until VerifySetup commits
// it. Re-running Setup replaces any prior pending secret.
func (s *MFAService) Setup(ctx context.Context, user domain.User) (domain.MFAProvision, error) {
	if user.MFAEnabled() {
		return domain.MFAProvision{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAProvision{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	sealed, err := s.Box.Seal([]byte(key.Secret()))
	if err != nil {
		return domain.MFAProvision{}, fmt.Errorf("seal TOTP secret: %w", err)
	}
	if err := s.Store.Users().UpdateMFATempSecret(ctx, user.ID, sealed); err != nil {
		return domain.MFAProvision{}, fmt.Errorf("store temp secret: %w", err)
	}

	return domain.MFAProvision{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
	}, nil
}

// VerifySetup commits a pending enrolment: validates the submitted code
// against the temp secret, promotes it to the active secret, and issues the
// recovery codes (returned in plaintext exactly once).
func (s *MFAService) VerifySetup(ctx context.Context, user domain.User, code string, now time.Time) (domain.MFAEnrolment, error) {
	if user.MFAEnabled() {
		return domain.MFAEnrolment{}, ErrMFAAlreadyEnabled
	}
	if len(user.MFATempSecret) == 0 {
		return domain.MFAEnrolment{}, ErrMFANotPending
	}

	secret, err := s.Box.Open(user.MFATempSecret)
	if err != nil {
		return domain.MFAEnrolment{}, fmt.Errorf("open temp secret: %w", err)
	}

	step, err := verifyTOTP(string(secret), code, now, user.MFALastTOTPStep)
	if err != nil {
		return domain.MFAEnrolment{}, err
	}

	codes := make([]string, recoveryCodeCount)
	for i := range codes {
		c, err := cryptox.GenerateToken(recoveryCodeBytes)
		if err != nil {
			return domain.MFAEnrolment{}, fmt.Errorf("generate recovery code: %w", err)
		}
		codes[i] = c
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// The committed secret is re-sealed so it carries a fresh nonce.
		sealed, err := s.Box.Seal(secret)
		if err != nil {
			return fmt.Errorf("seal committed secret: %w", err)
		}
		if err := tx.Users().CommitMFASecret(ctx, user.ID, sealed, now); err != nil {
			return fmt.Errorf("commit secret: %w", err)
		}
		if err := tx.Users().UpdateMFALastStep(ctx, user.ID, step); err != nil {
			return fmt.Errorf("record TOTP step: %w", err)
		}

		// Drop any codes left over from a previous enrolment.
		if err := tx.RecoveryCodes().DeleteAll(ctx, user.ID); err != nil {
			return fmt.Errorf("clear recovery codes: %w", err)
		}
		for _, c := range codes {
			if err := tx.RecoveryCodes().Create(ctx, user.ID, cryptox.FingerprintToken(c)); err != nil {
				return fmt.Errorf("store recovery code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.MFAEnrolment{}, err
	}

	return domain.MFAEnrolment{RecoveryCodes: codes}, nil
}

// VerifyLogin checks the second factor during login against the committed
// secret, rejecting replays of already-used steps.
func (s *MFAService) VerifyLogin(ctx context.Context, user domain.User, code string, now time.Time) error {
	if !user.MFAEnabled() || len(user.MFASecretEnc) == 0 {
		return ErrMFANotEnabled
	}

	secret, err := s.Box.Open(user.MFASecretEnc)
	if err != nil {
		return fmt.Errorf("open TOTP secret: %w", err)
	}

	step, err := verifyTOTP(string(secret), code, now, user.MFALastTOTPStep)
	if err != nil {
		return err
	}

	if err := s.Store.Users().UpdateMFALastStep(ctx, user.ID, step); err != nil {
		return fmt.Errorf("record TOTP step: %w", err)
	}
	return nil
}

// ConsumeRecoveryCode burns a recovery code as the second factor. Each code
// works exactly once.
func (s *MFAService) ConsumeRecoveryCode(ctx context.Context, user domain.User, code string) error {
	if !user.MFAEnabled() {
		return ErrMFANotEnabled
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidRecoveryCode
	}

	ok, err := s.Store.RecoveryCodes().Consume(ctx, user.ID, cryptox.FingerprintToken(code))
	if err != nil {
		return fmt.Errorf("consume recovery code: %w", err)
	}
	if !ok {
		return ErrInvalidRecoveryCode
	}
	return nil
}

// Disable turns MFA off. The current password and a valid TOTP code are
// verified independently and BOTH must succeed before any state changes.
func (s *MFAService) Disable(ctx context.Context, user domain.User, password, code string, now time.Time) error {
	if !user.MFAEnabled() || len(user.MFASecretEnc) == 0 {
		return ErrMFANotEnabled
	}

	// Run both checks before acting so a failure of either leaves MFA on.
	pwErr := cryptox.VerifyPassword(password, user.PasswordHash)
	if pwErr != nil && !errors.Is(pwErr, cryptox.ErrPasswordMismatch) {
		return fmt.Errorf("verify password: %w", pwErr)
	}

	secret, err := s.Box.Open(user.MFASecretEnc)
	if err != nil {
		return fmt.Errorf("open TOTP secret: %w", err)
	}
	_, totpErr := verifyTOTP(string(secret), code, now, user.MFALastTOTPStep)

	if pwErr != nil {
		return ErrInvalidCredentials
	}
	if totpErr != nil {
		return totpErr
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RecoveryCodes().DeleteAll(ctx, user.ID); err != nil {
			return fmt.Errorf("delete recovery codes: %w", err)
		}
		if err := tx.Users().DisableMFA(ctx, user.ID); err != nil {
			return fmt.Errorf("disable MFA: %w", err)
		}
		return nil
	})
}

// verifyTOTP validates code against secret within the ±totpSkew window and
// returns the matched step counter. Steps at or before lastStep are rejected
// so an intercepted code cannot be replayed.
func verifyTOTP(secret, code string, now time.Time, lastStep int64) (int64, error) {
	code, err := SanitizeTOTPCode(code)
	if err != nil {
		return 0, err
	}

	currentStep := now.Unix() / totpPeriod
	for delta := int64(-totpSkew); delta <= totpSkew; delta++ {
		step := currentStep + delta
		expected, err := totp.GenerateCodeCustom(secret, time.Unix(step*totpPeriod, 0), totp.ValidateOpts{
			Period:    totpPeriod,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, fmt.Errorf("compute TOTP: %w", err)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			if step <= lastStep {
				return 0, ErrTOTPReplayed
			}
			return step, nil
		}
	}
	return 0, ErrInvalidTOTPCode
}
