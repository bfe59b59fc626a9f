// Package session provides session resolver implementations: an opaque-token
// store backed by Redis, and an OIDC ID-token resolver for deployments that
// delegate identity to an external provider.
package session
