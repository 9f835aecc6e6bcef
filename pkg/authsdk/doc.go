/*
Package authsdk provides a typed client SDK for the ShopTally authentication
service, plus the shared error envelope used by the service's HTTP handlers.

# Overview

The Client wraps the auth API's cookie-based session flow: it keeps the
session and CSRF cookies in an internal jar, echoes the CSRF token on
state-changing requests, and carries the MFA temp token between Login and
CompleteMFA.

	client, err := authsdk.NewClient(authsdk.ClientConfig{
		BaseURL: "https://api.example.com",
	})

	// First factor
	login, err := client.Login(ctx, authsdk.LoginRequest{
		Email:    "owner@example.com",
		Password: "hunter2!A",
	})

	// Second factor, when the account has MFA enabled
	if login.MFARequired {
		user, err := client.CompleteMFA(ctx, authsdk.MFACompleteRequest{
			Code: "123456",
		})
	}

# Errors

All failures are returned as *APIError values carrying the HTTP status, a
machine-readable code, and a user-safe message:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeAccountLocked {
		// back off until the lockout window elapses
	}

The server handlers use the same APIError type to render responses, so the
wire format and the SDK's view of it cannot drift apart.
*/
package authsdk
