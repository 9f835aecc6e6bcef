// Package httpx holds transport-level helpers shared by handlers: JSON
// responses, middleware chaining, CSRF protection, and rate limiting.
package httpx

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to h so the first listed middleware is the
// outermost: Chain(h, a, b) == a(b(h)).
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
