package authz

import (
	"context"
	"fmt"
)

// OwnershipChecker guards the invariant that an organization with members
// always retains at least one owner. It runs a point-in-time count against
// the directory, so callers must consult it before committing any mutation
// that demotes, deletes, or transfers away an owner, even when Can already
// allowed the action.
type OwnershipChecker struct {
	directory Directory
}

// NewOwnershipChecker creates an ownership checker
func NewOwnershipChecker(directory Directory) *OwnershipChecker {
	return &OwnershipChecker{directory: directory}
}

// IsLastOwner reports whether userID is the sole remaining owner of the
// organization. Soft-deleted actors never count toward ownership.
func (c *OwnershipChecker) IsLastOwner(ctx context.Context, userID, orgID string) (bool, error) {
	actors, err := c.directory.ListActorsByOrganization(ctx, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to list actors for organization %s: %w", orgID, err)
	}

	owners := 0
	among := false
	for _, a := range actors {
		if a.Deleted() || a.Role != RoleOwner {
			continue
		}
		owners++
		if a.ID == userID {
			among = true
		}
	}
	return among && owners == 1, nil
}
