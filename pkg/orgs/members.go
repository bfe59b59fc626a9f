package orgs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garagehq/gearbox/pkg/authz"
)

// MemberService covers membership reads and mutations
type MemberService interface {
	ListMembers(ctx context.Context, orgID string) ([]*authz.Actor, error)
	UpdateMemberRole(ctx context.Context, orgID, userID string, role authz.Role) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	TransferOwnership(ctx context.Context, orgID, fromUserID, toUserID string) error
}

// ListMembers retrieves all active members of an organization
func (s *PostgresService) ListMembers(ctx context.Context, orgID string) ([]*authz.Actor, error) {
	query := `
		SELECT id, email, full_name, role, organization_id, created_at
		FROM actors
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*authz.Actor
	for rows.Next() {
		member := &authz.Actor{}
		var email, fullName sql.NullString
		if err := rows.Scan(
			&member.ID, &email, &fullName, &member.Role,
			&member.OrganizationID, &member.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if email.Valid {
			member.Email = email.String
		}
		if fullName.Valid {
			member.FullName = fullName.String
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// UpdateMemberRole changes a member's role. If the change would demote the
// organization's only owner, it fails with *authz.LastOwnerError; the count
// and the write share one transaction so concurrent demotions cannot slip
// past each other.
func (s *PostgresService) UpdateMemberRole(ctx context.Context, orgID, userID string, role authz.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	roles, owners, err := lockMembers(ctx, tx, orgID)
	if err != nil {
		return err
	}

	current, ok := roles[userID]
	if !ok {
		return ErrMemberNotFound
	}
	if current == authz.RoleOwner && role != authz.RoleOwner && owners == 1 {
		return &authz.LastOwnerError{UserID: userID, OrganizationID: orgID}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE actors SET role = $1 WHERE id = $2 AND organization_id = $3 AND deleted_at IS NULL`,
		role, userID, orgID,
	); err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return tx.Commit()
}

// RemoveMember soft-deletes a member. Removing the only owner fails with
// *authz.LastOwnerError under the same transactional guard as role changes.
func (s *PostgresService) RemoveMember(ctx context.Context, orgID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	roles, owners, err := lockMembers(ctx, tx, orgID)
	if err != nil {
		return err
	}

	current, ok := roles[userID]
	if !ok {
		return ErrMemberNotFound
	}
	if current == authz.RoleOwner && owners == 1 {
		return &authz.LastOwnerError{UserID: userID, OrganizationID: orgID}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE actors SET deleted_at = NOW() WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`,
		userID, orgID,
	); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return tx.Commit()
}

// TransferOwnership promotes toUserID to owner and demotes fromUserID to
// admin in a single transaction, so the organization never passes through an
// ownerless state.
func (s *PostgresService) TransferOwnership(ctx context.Context, orgID, fromUserID, toUserID string) error {
	if fromUserID == toUserID {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	roles, _, err := lockMembers(ctx, tx, orgID)
	if err != nil {
		return err
	}

	if roles[fromUserID] != authz.RoleOwner {
		return ErrNotOwner
	}
	if _, ok := roles[toUserID]; !ok {
		return ErrMemberNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE actors SET role = $1 WHERE id = $2 AND organization_id = $3 AND deleted_at IS NULL`,
		authz.RoleOwner, toUserID, orgID,
	); err != nil {
		return fmt.Errorf("failed to promote new owner: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE actors SET role = $1 WHERE id = $2 AND organization_id = $3 AND deleted_at IS NULL`,
		authz.RoleAdmin, fromUserID, orgID,
	); err != nil {
		return fmt.Errorf("failed to demote previous owner: %w", err)
	}

	return tx.Commit()
}

// lockMembers locks the organization's active member rows and returns their
// roles and the current owner count
func lockMembers(ctx context.Context, tx *sql.Tx, orgID string) (map[string]authz.Role, int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, role FROM actors WHERE organization_id = $1 AND deleted_at IS NULL FOR UPDATE`,
		orgID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock members: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]authz.Role)
	owners := 0
	for rows.Next() {
		var id string
		var role authz.Role
		if err := rows.Scan(&id, &role); err != nil {
			return nil, 0, fmt.Errorf("failed to scan member row: %w", err)
		}
		roles[id] = role
		if role == authz.RoleOwner {
			owners++
		}
	}

	return roles, owners, rows.Err()
}
