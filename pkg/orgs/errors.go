package orgs

import "errors"

var (
	// ErrOrgNotFound indicates the organization does not exist
	ErrOrgNotFound = errors.New("organization not found")

	// ErrMemberNotFound indicates no active member matched the query
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvitationNotFound indicates the invitation token is unknown
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationExpired indicates the invitation has passed its expiry
	ErrInvitationExpired = errors.New("invitation expired")

	// ErrInvitationAccepted indicates the invitation was already used
	ErrInvitationAccepted = errors.New("invitation already accepted")

	// ErrAlreadyAttached indicates the actor already belongs to an
	// organization; attachment is set once and never re-pointed
	ErrAlreadyAttached = errors.New("actor already belongs to an organization")

	// ErrNotOwner indicates the actor named as the transferring owner does
	// not currently hold the owner role
	ErrNotOwner = errors.New("actor is not an owner")

	// ErrInvalidRole indicates a role outside the closed role set
	ErrInvalidRole = errors.New("invalid role")
)
