package session

import (
	"context"

	"github.com/garagehq/gearbox/pkg/authz"
)

// Store issues and revokes opaque sessions in addition to resolving them.
// RedisStore implements it; OIDC deployments resolve bearer tokens directly
// and have no store, since token lifecycle belongs to the identity provider.
type Store interface {
	authz.SessionResolver

	// Create issues a new opaque session token for the actor
	Create(ctx context.Context, actorID string) (string, error)

	// Revoke invalidates the session token
	Revoke(ctx context.Context, token string) error
}
