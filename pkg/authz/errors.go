package authz

import (
	"errors"
	"fmt"
)

// UnauthorizedError is returned by the Gate when a protected operation must
// be refused. The message is deliberately role-agnostic: it never reveals
// which permission rule was evaluated or what roles other actors hold.
type UnauthorizedError struct {
	// Action is the denied action; zero when no valid session existed.
	Action Action
}

func (e *UnauthorizedError) Error() string {
	if e.Action == "" {
		return "unauthorized: no valid session"
	}
	return fmt.Sprintf("unauthorized: cannot perform %s", e.Action)
}

// NoSession reports whether the failure was a missing session rather than a
// denied action
func (e *UnauthorizedError) NoSession() bool {
	return e.Action == ""
}

// IsUnauthorized reports whether err is an authorization refusal
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// LastOwnerError is returned when a mutation would leave an organization
// with members but no owner. Distinct from UnauthorizedError because the
// actor is otherwise authorized; callers should surface its message as-is.
type LastOwnerError struct {
	UserID         string
	OrganizationID string
}

func (e *LastOwnerError) Error() string {
	return "cannot remove the last owner of an organization"
}

// IsLastOwnerViolation reports whether err is a last-owner refusal
func IsLastOwnerViolation(err error) bool {
	var loe *LastOwnerError
	return errors.As(err, &loe)
}
