package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// tokenVerifier is the slice of *oidc.IDTokenVerifier the resolver uses
type tokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// OIDCResolver resolves sessions from OIDC ID tokens issued by an external
// identity provider. The raw ID token is the session token; the token's
// subject claim is the actor id.
type OIDCResolver struct {
	verifier tokenVerifier
}

// NewOIDCResolver discovers the OIDC provider and creates a resolver
func NewOIDCResolver(ctx context.Context, issuerURL, clientID string) (*OIDCResolver, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &OIDCResolver{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// ResolveActorID verifies the ID token and returns its subject. Expired,
// malformed, or otherwise invalid tokens resolve to "" rather than an error:
// not being logged in is an expected steady state, not a failure. A failure
// to reach the provider's keyset is different: the token may well be valid,
// so the outcome is indeterminate and surfaces as an error.
func (r *OIDCResolver) ResolveActorID(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	idToken, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if keysetUnavailable(err) {
			return "", fmt.Errorf("failed to verify session token: %w", err)
		}
		return "", nil
	}
	return idToken.Subject, nil
}

// keysetUnavailable reports whether a verification error means the provider
// could not be reached rather than that the token is invalid
func keysetUnavailable(err error) bool {
	var expired *oidc.TokenExpiredError
	if errors.As(err, &expired) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// go-oidc wraps remote keyset failures with this prefix and does not
	// expose a typed error for them.
	return strings.Contains(err.Error(), "fetching keys")
}
