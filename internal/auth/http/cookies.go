package http

import (
	"net/http"
	"time"
)

// SessionCookieName carries the session JWT. HttpOnly so scripts can never
// read it; CSRF protection comes from the double-submit cookie instead.
const SessionCookieName = "token"

// CookieConfig controls how the session cookie is issued.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Off for local development.
	Secure bool

	// TTL is the cookie max-age. Kept independent from the JWT expiry so the
	// browser can hold the cookie slightly shorter than the token lives.
	TTL time.Duration
}

func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
