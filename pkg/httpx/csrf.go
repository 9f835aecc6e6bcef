package httpx

import (
	"crypto/subtle"
	"net/http"
	"slices"

	"github.com/shoptally/shoptally/pkg/cryptox"
	"github.com/shoptally/shoptally/pkg/slogx"
)

const (
	// CSRFCookieName is readable by frontend JS so it can echo the value.
	CSRFCookieName = "XSRF-TOKEN"
	// CSRFHeaderName is the header the client must echo the cookie into.
	CSRFHeaderName = "x-csrf-token"
)

// CSRFConfig controls the double-submit-cookie middleware.
type CSRFConfig struct {
	// Secure marks the token cookie Secure. Enable outside development.
	Secure bool

	// ExemptPaths are state-changing endpoints that skip the header check,
	// e.g. the session refresh endpoint which is protected by SameSite alone.
	ExemptPaths []string
}

// CSRFGuard implements stateless double-submit-cookie protection. Every
// response carries a random XSRF-TOKEN cookie; state-changing requests must
// echo it in the x-csrf-token header. Validity is proven by equality between
// cookie and header, not by any server-side store, so the guard depends on
// cookie confidentiality (SameSite=Lax plus a CORS allow-list upstream).
func CSRFGuard(cfg CSRFConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			cookie, err := r.Cookie(CSRFCookieName)
			token := ""
			if err == nil {
				token = cookie.Value
			}

			// Seed a token for clients that don't have one yet.
			if token == "" {
				fresh, genErr := generateCSRFToken()
				if genErr != nil {
					log.Error("csrf: token generation failed", "err", genErr)
					WriteJSON(w, http.StatusInternalServerError, map[string]any{
						"success": false,
						"message": "Internal server error",
					})
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    fresh,
					Path:     "/",
					Secure:   cfg.Secure,
					HttpOnly: false, // the client must be able to read it back
					SameSite: http.SameSiteLaxMode,
				})
				token = fresh
			}

			if safeMethod(r.Method) || slices.Contains(cfg.ExemptPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(CSRFHeaderName)
			if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
				log.Warn("csrf: token mismatch", "path", r.URL.Path)
				WriteJSON(w, http.StatusForbidden, map[string]any{
					"success": false,
					"message": "Invalid CSRF token",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func generateCSRFToken() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize256)
}
