package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxKey string

const (
	// CtxKeyUserID carries the authenticated user's id.
	CtxKeyUserID ctxKey = "user_id"
	// CtxKeyRole carries the authenticated user's role.
	CtxKeyRole ctxKey = "role"
)

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ClientIP extracts the originating client address, honouring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
