package authz

import (
	"context"
	"fmt"
)

// ContextBuilder composes the session resolver and the profile directory
// into request-scoped AuthContext values. Session and directory handles are
// explicit dependencies so checks are deterministic under test; nothing is
// read from ambient globals.
type ContextBuilder struct {
	sessions  SessionResolver
	directory Directory
}

// NewContextBuilder creates a context builder
func NewContextBuilder(sessions SessionResolver, directory Directory) *ContextBuilder {
	return &ContextBuilder{sessions: sessions, directory: directory}
}

// Build resolves the session token into an AuthContext. It returns
// (nil, nil) when there is no authenticated, organization-attached actor
// behind the token: missing or expired session, unknown or soft-deleted
// actor, an actor not yet attached to any organization, or an actor whose
// organization has been suspended. A non-nil error
// means the directory or resolver failed and the check is indeterminate.
func (b *ContextBuilder) Build(ctx context.Context, token string) (*AuthContext, error) {
	actorID, err := b.sessions.ResolveActorID(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if actorID == "" {
		return nil, nil
	}

	actor, err := b.directory.FindActorByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up actor %s: %w", actorID, err)
	}
	if actor == nil || actor.Deleted() {
		return nil, nil
	}
	if actor.OrganizationID == "" {
		// An orgless actor can perform no authorization-gated action.
		return nil, nil
	}

	active, err := b.directory.OrganizationActive(ctx, actor.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check organization %s: %w", actor.OrganizationID, err)
	}
	if !active {
		// Members of a suspended organization are locked out the same way
		// as orgless actors.
		return nil, nil
	}

	return &AuthContext{
		UserID:         actor.ID,
		Role:           actor.Role,
		OrganizationID: actor.OrganizationID,
	}, nil
}

// BuildWithTarget resolves the session and a target actor into a single
// AuthContext. Cross-tenant targets resolve to (nil, nil) exactly like
// unknown targets; the two cases are intentionally indistinguishable so
// callers cannot probe for the existence of actors in other organizations.
func (b *ContextBuilder) BuildWithTarget(ctx context.Context, token, targetUserID string) (*AuthContext, error) {
	base, err := b.Build(ctx, token)
	if err != nil || base == nil {
		return nil, err
	}

	target, err := b.directory.FindActorByID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up target actor %s: %w", targetUserID, err)
	}
	if target == nil || target.Deleted() {
		return nil, nil
	}
	if target.OrganizationID != base.OrganizationID {
		return nil, nil
	}

	base.TargetUserID = target.ID
	base.TargetUserRole = target.Role
	return base, nil
}
