// Package recaptcha verifies client recaptcha responses against Google's
// siteverify endpoint. With no secret configured the verifier is disabled
// and accepts everything, which keeps development and test setups friction
// free.
package recaptcha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const verifyURL = "https://www.google.com/recaptcha/api/siteverify"

var (
	// ErrFailed means the provider rejected the token.
	ErrFailed = errors.New("recaptcha: verification failed")

	// ErrUnavailable means the provider could not be reached; callers map
	// this to a generic upstream error without leaking provider internals.
	ErrUnavailable = errors.New("recaptcha: provider unavailable")
)

// Verifier checks recaptcha tokens. The zero value is a disabled verifier.
type Verifier struct {
	secret string
	client *resty.Client
}

// New creates a Verifier. An empty secret yields a disabled verifier whose
// Verify always succeeds.
func New(secret string) *Verifier {
	v := &Verifier{secret: secret}
	if secret != "" {
		v.client = resty.New().SetTimeout(10 * time.Second)
	}
	return v
}

// Enabled reports whether verification is active.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify checks the token with the provider. remoteIP is optional.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrFailed
	}

	var result struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secret,
			"response": token,
			"remoteip": remoteIP,
		}).
		SetResult(&result).
		Post(verifyURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode())
	}
	if !result.Success {
		return ErrFailed
	}
	return nil
}
