package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/contextkeys"
	"github.com/garagehq/gearbox/pkg/httputil"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "gearbox_session"

// SessionMiddleware resolves the request's session into an authorization
// context. The context is rebuilt from current data on every request; it is
// never cached across requests.
type SessionMiddleware struct {
	gate     *authz.Gate
	optional bool // If true, allow requests without a session
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(gate *authz.Gate, optional bool) *SessionMiddleware {
	return &SessionMiddleware{
		gate:     gate,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with session resolution
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing session")
			return
		}

		authCtx, err := m.gate.Context(r.Context(), token)
		if err != nil {
			// Indeterminate, not a deny. The backing stores are unavailable
			// and the caller should retry.
			httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "authorization unavailable")
			return
		}
		if authCtx == nil {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		ctx = contextkeys.WithSessionToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken pulls the session token from the request, preferring the
// session cookie and falling back to a Bearer authorization header
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetAuthContext extracts the authorization context from the request
func GetAuthContext(r *http.Request) *authz.AuthContext {
	ctx := r.Context().Value(contextkeys.AuthKey)
	if ctx == nil {
		return nil
	}
	authCtx, ok := ctx.(*authz.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// RequireAction creates middleware that authorizes a specific action before
// the handler runs. The gate is consulted per request with the raw token so
// the decision always reflects the directory's current state.
func RequireAction(gate *authz.Gate, action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := contextkeys.GetSessionToken(r.Context())
			if token == "" {
				token = ExtractToken(r)
			}

			_, err := gate.Require(r.Context(), token, action)
			if err != nil {
				WriteAuthzError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteAuthzError maps gate errors onto HTTP responses. Missing sessions get
// 401, denied actions get 403, and anything else is the backing stores being
// unavailable, which is 503 rather than a deny.
func WriteAuthzError(w http.ResponseWriter, err error) {
	var unauthorized *authz.UnauthorizedError
	if errors.As(err, &unauthorized) {
		if unauthorized.NoSession() {
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}
		httputil.WriteForbidden(w, "insufficient permissions")
		return
	}
	httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "authorization unavailable")
}
