package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garagehq/gearbox/pkg/authz"
)

// PostgresDirectory reads actor records from PostgreSQL
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a new PostgreSQL-backed directory
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// FindActorByID returns the actor record, or (nil, nil) when no record
// exists. Soft-deleted actors are returned with DeletedAt set so callers can
// decide how to treat them.
func (d *PostgresDirectory) FindActorByID(ctx context.Context, id string) (*authz.Actor, error) {
	query := `
		SELECT id, email, full_name, role, organization_id, created_at, deleted_at
		FROM actors
		WHERE id = $1
	`
	actor, err := scanActor(d.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find actor: %w", err)
	}
	return actor, nil
}

// ListActorsByOrganization returns all non-deleted actors belonging to the
// organization
func (d *PostgresDirectory) ListActorsByOrganization(ctx context.Context, orgID string) ([]*authz.Actor, error) {
	query := `
		SELECT id, email, full_name, role, organization_id, created_at, deleted_at
		FROM actors
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := d.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	defer rows.Close()

	var actors []*authz.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, actor)
	}

	return actors, rows.Err()
}

// OrganizationActive reports whether the organization exists with status
// active. A missing row reads as inactive so members of an unknown
// organization hold no authorization.
func (d *PostgresDirectory) OrganizationActive(ctx context.Context, orgID string) (bool, error) {
	query := `
		SELECT status
		FROM organizations
		WHERE id = $1
	`
	var status string
	err := d.db.QueryRowContext(ctx, query, orgID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check organization status: %w", err)
	}
	return status == "active", nil
}

// scanActor scans an actor from a database row
func scanActor(scanner interface {
	Scan(dest ...interface{}) error
}) (*authz.Actor, error) {
	var actor authz.Actor
	var email, fullName, orgID sql.NullString
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&actor.ID,
		&email,
		&fullName,
		&actor.Role,
		&orgID,
		&actor.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		actor.Email = email.String
	}
	if fullName.Valid {
		actor.FullName = fullName.String
	}
	if orgID.Valid {
		actor.OrganizationID = orgID.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		actor.DeletedAt = &t
	}

	return &actor, nil
}
