package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/internal/auth/store"
	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/httpx"
	"github.com/shoptally/shoptally/pkg/jwtx"
	"github.com/shoptally/shoptally/pkg/slogx"
)

type ctxKey string

// ctxKeyUser carries the loaded domain.User for downstream handlers so they
// don't hit the store a second time.
const ctxKeyUser ctxKey = "auth_user"

func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.User)
	return u, ok
}

// RequireSession authenticates a request from the session cookie. It verifies
// the JWT, enforces the session token kind, loads the account, and rejects
// inactive accounts and tokens issued before the last password change (so a
// password rotation invalidates every previously issued session).
func RequireSession(v jwtx.Verifier, st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			claims, err := v.Verify(cookie.Value)
			if err != nil {
				log.Warn("session verify failed", "err", err)
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}
			if err := claims.RequireKind(jwtx.KindSession); err != nil {
				log.Warn("wrong token kind for session", "kind", claims.Kind)
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			user, err := st.Users().GetUserByID(ctx, claims.Subject)
			if err != nil {
				// Deleted accounts present the same as bad tokens.
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}
			if !user.IsActive {
				authsdk.ErrAccountDisabled.WriteError(w)
				return
			}
			// iat has second precision, so compare at second granularity or a
			// cookie issued in the same instant as the change would bounce.
			if user.PasswordLastUpdated != nil &&
				claims.IssuedTime().Before(user.PasswordLastUpdated.Truncate(time.Second)) {
				log.Info("session predates password change", "user_id", user.ID)
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyRole, string(user.Role))
			ctx = context.WithValue(ctx, ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTempToken authenticates the MFA completion request from a bearer
// temp token issued at first-factor success. A full session token is rejected
// here just as a temp token is rejected by RequireSession.
func RequireTempToken(v jwtx.Verifier, st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("temp token verify failed", "err", err)
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}
			if err := claims.RequireKind(jwtx.KindMFAPending); err != nil {
				log.Warn("wrong token kind for MFA completion", "kind", claims.Kind)
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			user, err := st.Users().GetUserByID(ctx, claims.Subject)
			if err != nil {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}
			if !user.IsActive {
				authsdk.ErrAccountDisabled.WriteError(w)
				return
			}

			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
			ctx = context.WithValue(ctx, ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
