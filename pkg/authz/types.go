package authz

import (
	"context"
	"time"
)

// Role represents an actor's membership role within an organization
type Role string

const (
	RoleUser  Role = "user"  // Regular workshop staff, no administrative capability
	RoleAdmin Role = "admin" // Can manage plain users and organization settings
	RoleOwner Role = "owner" // Full access, including ownership transfer
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// Action represents an operation subject to authorization
type Action string

const (
	ActionUserRead       Action = "user:read"
	ActionUserUpdate     Action = "user:update"
	ActionUserRoleChange Action = "user:role_change"
	ActionUserDelete     Action = "user:delete"
	ActionUserInvite     Action = "user:invite"
	ActionOrgRead        Action = "org:read"
	ActionOrgUpdate      Action = "org:update"
	ActionOwnerTransfer  Action = "org:transfer_ownership"
	ActionAdminSettings  Action = "admin:settings"
)

// Actions returns the closed set of authorizable actions
func Actions() []Action {
	return []Action{
		ActionUserRead,
		ActionUserUpdate,
		ActionUserRoleChange,
		ActionUserDelete,
		ActionUserInvite,
		ActionOrgRead,
		ActionOrgUpdate,
		ActionOwnerTransfer,
		ActionAdminSettings,
	}
}

// Actor represents an authenticated user as recorded in the profile directory
type Actor struct {
	ID             string     `json:"id"`
	Email          string     `json:"email,omitempty"`
	FullName       string     `json:"full_name,omitempty"`
	Role           Role       `json:"role"`
	OrganizationID string     `json:"organization_id,omitempty"` // empty until the actor joins an organization
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the actor has been soft-deleted
func (a *Actor) Deleted() bool {
	return a != nil && a.DeletedAt != nil
}

// Directory is the read interface to actor records. The authorization core
// never caches directory answers beyond a single check, so a role revoked
// mid-session takes effect on the very next check.
type Directory interface {
	// FindActorByID returns the actor record, or (nil, nil) when no record
	// exists. Soft-deleted actors are returned with DeletedAt set.
	FindActorByID(ctx context.Context, id string) (*Actor, error)

	// ListActorsByOrganization returns all non-deleted actors belonging to
	// the organization.
	ListActorsByOrganization(ctx context.Context, orgID string) ([]*Actor, error)

	// OrganizationActive reports whether the organization exists and is not
	// suspended. Members of inactive organizations hold no authorization.
	OrganizationActive(ctx context.Context, orgID string) (bool, error)
}

// SessionResolver maps an opaque session token to an actor id.
type SessionResolver interface {
	// ResolveActorID returns the authenticated actor's id, or "" with a nil
	// error when the token is missing, expired, or invalid. A non-nil error
	// means the resolver itself failed, not that the caller is logged out.
	ResolveActorID(ctx context.Context, token string) (string, error)
}

// AuthContext holds the resolved identity for a single authorization check.
// It is built fresh per check and never persisted or shared across requests.
type AuthContext struct {
	UserID         string `json:"user_id"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id"`

	// Target fields are set only when the check concerns another actor.
	TargetUserID   string `json:"target_user_id,omitempty"`
	TargetUserRole Role   `json:"target_user_role,omitempty"`
}

// HasTarget reports whether the context carries a target actor
func (c *AuthContext) HasTarget() bool {
	return c != nil && c.TargetUserID != ""
}
