package orgs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garagehq/gearbox/pkg/authz"
)

// InvitationService covers the invitation lifecycle
type InvitationService interface {
	CreateInvitation(ctx context.Context, invitation *Invitation) error
	GetInvitation(ctx context.Context, token string) (*Invitation, error)
	ListInvitations(ctx context.Context, orgID string) ([]*Invitation, error)
	AcceptInvitation(ctx context.Context, token, userID string) error
	RevokeInvitation(ctx context.Context, orgID, id string) error
	CleanupExpiredInvitations(ctx context.Context) (int64, error)
}

// CreateInvitation creates a new invitation. Re-inviting the same email
// replaces the pending invitation's token and expiry.
func (s *PostgresService) CreateInvitation(ctx context.Context, invitation *Invitation) error {
	if !invitation.Role.Valid() {
		return ErrInvalidRole
	}

	invitation.ID = uuid.NewString()
	invitation.Token = uuid.NewString()
	if invitation.InvitedAt.IsZero() {
		invitation.InvitedAt = time.Now()
	}
	if invitation.ExpiresAt.IsZero() {
		invitation.ExpiresAt = time.Now().Add(7 * 24 * time.Hour)
	}

	query := `
		INSERT INTO org_invitations (id, org_id, email, role, token, invited_by, invited_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (org_id, email) DO UPDATE
		SET token = EXCLUDED.token, invited_at = EXCLUDED.invited_at, expires_at = EXCLUDED.expires_at
	`
	_, err := s.db.ExecContext(ctx, query,
		invitation.ID, invitation.OrgID, invitation.Email, invitation.Role,
		invitation.Token, invitation.InvitedBy, invitation.InvitedAt, invitation.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by token
func (s *PostgresService) GetInvitation(ctx context.Context, token string) (*Invitation, error) {
	query := `
		SELECT id, org_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM org_invitations
		WHERE token = $1
	`
	invitation := &Invitation{}
	var acceptedAt sql.NullTime
	var acceptedBy sql.NullString
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&invitation.ID, &invitation.OrgID, &invitation.Email, &invitation.Role,
		&invitation.Token, &invitation.InvitedBy, &invitation.InvitedAt, &invitation.ExpiresAt,
		&acceptedAt, &acceptedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		t := acceptedAt.Time
		invitation.AcceptedAt = &t
	}
	if acceptedBy.Valid {
		b := acceptedBy.String
		invitation.AcceptedBy = &b
	}

	return invitation, nil
}

// ListInvitations retrieves all pending invitations for an organization
func (s *PostgresService) ListInvitations(ctx context.Context, orgID string) ([]*Invitation, error) {
	query := `
		SELECT id, org_id, email, role, token, invited_by, invited_at, expires_at
		FROM org_invitations
		WHERE org_id = $1 AND accepted_at IS NULL
		ORDER BY invited_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		invitation := &Invitation{}
		if err := rows.Scan(
			&invitation.ID, &invitation.OrgID, &invitation.Email, &invitation.Role,
			&invitation.Token, &invitation.InvitedBy, &invitation.InvitedAt, &invitation.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, invitation)
	}

	return invitations, rows.Err()
}

// AcceptInvitation attaches the actor to the inviting organization with the
// invited role. Attachment is set once: an actor who already belongs to an
// organization cannot accept.
func (s *PostgresService) AcceptInvitation(ctx context.Context, token, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, org_id, role, expires_at, accepted_at
		FROM org_invitations
		WHERE token = $1
		FOR UPDATE
	`
	var id, orgID string
	var role authz.Role
	var expiresAt time.Time
	var acceptedAt sql.NullTime

	err = tx.QueryRowContext(ctx, query, token).Scan(&id, &orgID, &role, &expiresAt, &acceptedAt)
	if err == sql.ErrNoRows {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		return ErrInvitationAccepted
	}
	if time.Now().After(expiresAt) {
		return ErrInvitationExpired
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE actors SET organization_id = $1, role = $2
		 WHERE id = $3 AND organization_id IS NULL AND deleted_at IS NULL`,
		orgID, role, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach actor: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyAttached
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE org_invitations SET accepted_at = NOW(), accepted_by = $1 WHERE id = $2`,
		userID, id,
	); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	return tx.Commit()
}

// RevokeInvitation revokes a pending invitation. The organization id scopes
// the delete so one tenant cannot revoke another tenant's invitations.
func (s *PostgresService) RevokeInvitation(ctx context.Context, orgID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM org_invitations WHERE id = $1 AND org_id = $2 AND accepted_at IS NULL`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

// CleanupExpiredInvitations removes expired, unaccepted invitations
func (s *PostgresService) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM org_invitations WHERE expires_at < NOW() AND accepted_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired invitations: %w", err)
	}
	return result.RowsAffected()
}
