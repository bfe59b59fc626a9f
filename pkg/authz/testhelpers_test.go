package authz

import (
	"context"
	"errors"
	"time"

	"github.com/garagehq/gearbox/pkg/audit"
)

// fakeResolver maps session tokens to actor ids
type fakeResolver struct {
	tokens map[string]string
	err    error
}

func (r *fakeResolver) ResolveActorID(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.tokens[token], nil
}

// fakeDirectory serves actor records from memory
type fakeDirectory struct {
	actors        map[string]*Actor
	suspendedOrgs map[string]bool
	err           error
}

func (d *fakeDirectory) FindActorByID(_ context.Context, id string) (*Actor, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.actors[id], nil
}

func (d *fakeDirectory) ListActorsByOrganization(_ context.Context, orgID string) ([]*Actor, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*Actor
	for _, a := range d.actors {
		if a.OrganizationID == orgID && !a.Deleted() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *fakeDirectory) OrganizationActive(_ context.Context, orgID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return !d.suspendedOrgs[orgID], nil
}

// recordingAuditLogger captures audit events in memory
type recordingAuditLogger struct {
	events []*audit.Event
}

func (l *recordingAuditLogger) Log(_ context.Context, event *audit.Event) error {
	l.events = append(l.events, event)
	return nil
}

func (l *recordingAuditLogger) LogDecision(ctx context.Context, userID, orgID, action string, status audit.EventStatus, message string) error {
	eventType := audit.EventTypeAuthzDecision
	if status == audit.EventStatusDenied {
		eventType = audit.EventTypeAuthzAccessDenied
	}
	return l.Log(ctx, &audit.Event{
		EventType:      eventType,
		Status:         status,
		UserID:         userID,
		OrganizationID: orgID,
		Action:         action,
		Message:        message,
	})
}

func (l *recordingAuditLogger) LogMembershipChange(ctx context.Context, eventType audit.EventType, userID, orgID, targetUserID string, message string) error {
	return l.Log(ctx, &audit.Event{
		EventType:      eventType,
		Status:         audit.EventStatusSuccess,
		UserID:         userID,
		OrganizationID: orgID,
		TargetUserID:   targetUserID,
		Message:        message,
	})
}

func (l *recordingAuditLogger) Close() error { return nil }

var errDirectoryDown = errors.New("directory unavailable")

func deletedAt(t time.Time) *time.Time { return &t }
