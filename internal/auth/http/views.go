package http

import (
	"net/http"

	"github.com/shoptally/shoptally/internal/auth/audit"
	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/httpx"
)

// profileView maps a domain user to its public representation. Credential and
// MFA secret material never leaves the domain type.
func profileView(u domain.User) authsdk.UserProfile {
	p := authsdk.UserProfile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		MFAEnabled: u.MFAEnabled(),
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		Sub: authsdk.SubscriptionInfo{
			Plan:      u.SubscriptionPlan,
			Status:    u.SubscriptionStatus,
			ExpiresAt: u.SubscriptionExpiresAt,
		},
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	return p
}

// auditEntry builds a recorder entry from the request. userID may be empty
// for pre-authentication events.
func auditEntry(r *http.Request, userID, action, module string, metadata map[string]any) audit.Entry {
	e := audit.Entry{
		Action:    action,
		Module:    module,
		IP:        httpx.ClientIP(r),
		UserAgent: r.UserAgent(),
		Metadata:  metadata,
	}
	if userID != "" {
		e.UserID = &userID
	}
	return e
}
