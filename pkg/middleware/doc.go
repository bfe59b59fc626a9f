// Package middleware provides HTTP middleware for session resolution and
// per-action authorization.
//
// SessionMiddleware resolves the opaque session token into an
// *authz.AuthContext and stores it on the request context. RequireAction
// wraps handlers that map one-to-one onto a single authorizable action;
// handlers with target-dependent decisions call the gate themselves via
// Gate.RequireForTarget.
package middleware
