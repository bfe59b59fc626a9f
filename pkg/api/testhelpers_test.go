package api

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/directory"
	"github.com/garagehq/gearbox/pkg/observability"
	"github.com/garagehq/gearbox/pkg/orgs"
)

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

// eventsOfType filters recorded events by type
func (l *recordingAuditLogger) eventsOfType(eventType audit.EventType) []*audit.Event {
	var out []*audit.Event
	for _, e := range l.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeResolver maps tokens to actor ids
type fakeResolver struct {
	sessions map[string]string
	revoked  map[string]bool
	err      error
}

func newFakeResolver(sessions map[string]string) *fakeResolver {
	return &fakeResolver{sessions: sessions, revoked: make(map[string]bool)}
}

func (r *fakeResolver) ResolveActorID(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.revoked[token] {
		return "", nil
	}
	return r.sessions[token], nil
}

func (r *fakeResolver) Create(_ context.Context, actorID string) (string, error) {
	token := "token-" + actorID
	r.sessions[token] = actorID
	return token, nil
}

func (r *fakeResolver) Revoke(_ context.Context, token string) error {
	r.revoked[token] = true
	return nil
}

// fakeOrgService implements orgs.Service in memory for handler tests
type fakeOrgService struct {
	org         *orgs.Organization
	dir         *directory.MemoryDirectory
	invitations map[string]*orgs.Invitation // keyed by token

	lastRoleChange  string
	removedMembers  []string
	transferredTo   string
	acceptedActorID string
}

func newFakeOrgService(org *orgs.Organization, dir *directory.MemoryDirectory) *fakeOrgService {
	return &fakeOrgService{
		org:         org,
		dir:         dir,
		invitations: make(map[string]*orgs.Invitation),
	}
}

func (s *fakeOrgService) CreateOrganization(_ context.Context, org *orgs.Organization) error {
	s.org = org
	return nil
}

func (s *fakeOrgService) GetOrganization(_ context.Context, id string) (*orgs.Organization, error) {
	if s.org == nil || s.org.ID != id {
		return nil, orgs.ErrOrgNotFound
	}
	return s.org, nil
}

func (s *fakeOrgService) GetOrganizationBySlug(_ context.Context, slug string) (*orgs.Organization, error) {
	if s.org == nil || s.org.Slug != slug {
		return nil, orgs.ErrOrgNotFound
	}
	return s.org, nil
}

func (s *fakeOrgService) UpdateOrganization(_ context.Context, org *orgs.Organization) error {
	if s.org == nil || s.org.ID != org.ID {
		return orgs.ErrOrgNotFound
	}
	s.org = org
	return nil
}

func (s *fakeOrgService) ListMembers(ctx context.Context, orgID string) ([]*authz.Actor, error) {
	return s.dir.ListActorsByOrganization(ctx, orgID)
}

func (s *fakeOrgService) UpdateMemberRole(ctx context.Context, orgID, userID string, role authz.Role) error {
	actor, _ := s.dir.FindActorByID(ctx, userID)
	if actor == nil || actor.OrganizationID != orgID {
		return orgs.ErrMemberNotFound
	}
	if actor.Role == authz.RoleOwner && role != authz.RoleOwner && s.countOwners(ctx, orgID) == 1 {
		return &authz.LastOwnerError{UserID: userID, OrganizationID: orgID}
	}
	actor.Role = role
	s.dir.Put(*actor)
	s.lastRoleChange = userID
	return nil
}

func (s *fakeOrgService) RemoveMember(ctx context.Context, orgID, userID string) error {
	actor, _ := s.dir.FindActorByID(ctx, userID)
	if actor == nil || actor.OrganizationID != orgID {
		return orgs.ErrMemberNotFound
	}
	if actor.Role == authz.RoleOwner && s.countOwners(ctx, orgID) == 1 {
		return &authz.LastOwnerError{UserID: userID, OrganizationID: orgID}
	}
	now := time.Now()
	actor.DeletedAt = &now
	s.dir.Put(*actor)
	s.removedMembers = append(s.removedMembers, userID)
	return nil
}

func (s *fakeOrgService) TransferOwnership(ctx context.Context, orgID, fromUserID, toUserID string) error {
	from, _ := s.dir.FindActorByID(ctx, fromUserID)
	to, _ := s.dir.FindActorByID(ctx, toUserID)
	if from == nil || from.Role != authz.RoleOwner {
		return orgs.ErrNotOwner
	}
	if to == nil || to.OrganizationID != orgID {
		return orgs.ErrMemberNotFound
	}
	to.Role = authz.RoleOwner
	from.Role = authz.RoleAdmin
	s.dir.Put(*to)
	s.dir.Put(*from)
	s.transferredTo = toUserID
	return nil
}

func (s *fakeOrgService) CreateInvitation(_ context.Context, invitation *orgs.Invitation) error {
	invitation.ID = "inv-" + invitation.Email
	invitation.Token = "invite-" + invitation.Email
	invitation.ExpiresAt = time.Now().Add(7 * 24 * time.Hour)
	s.invitations[invitation.Token] = invitation
	return nil
}

func (s *fakeOrgService) GetInvitation(_ context.Context, token string) (*orgs.Invitation, error) {
	invitation, ok := s.invitations[token]
	if !ok {
		return nil, orgs.ErrInvitationNotFound
	}
	return invitation, nil
}

func (s *fakeOrgService) ListInvitations(_ context.Context, orgID string) ([]*orgs.Invitation, error) {
	var out []*orgs.Invitation
	for _, invitation := range s.invitations {
		if invitation.OrgID == orgID && invitation.AcceptedAt == nil {
			out = append(out, invitation)
		}
	}
	return out, nil
}

func (s *fakeOrgService) AcceptInvitation(ctx context.Context, token, userID string) error {
	invitation, ok := s.invitations[token]
	if !ok {
		return orgs.ErrInvitationNotFound
	}
	if time.Now().After(invitation.ExpiresAt) {
		return orgs.ErrInvitationExpired
	}
	actor, _ := s.dir.FindActorByID(ctx, userID)
	if actor != nil && actor.OrganizationID != "" {
		return orgs.ErrAlreadyAttached
	}
	if actor != nil {
		actor.OrganizationID = invitation.OrgID
		actor.Role = invitation.Role
		s.dir.Put(*actor)
	}
	now := time.Now()
	invitation.AcceptedAt = &now
	s.acceptedActorID = userID
	return nil
}

func (s *fakeOrgService) RevokeInvitation(_ context.Context, orgID, id string) error {
	for token, invitation := range s.invitations {
		if invitation.ID == id && invitation.OrgID == orgID {
			delete(s.invitations, token)
			return nil
		}
	}
	return orgs.ErrInvitationNotFound
}

func (s *fakeOrgService) CleanupExpiredInvitations(_ context.Context) (int64, error) {
	return 0, nil
}

func (s *fakeOrgService) countOwners(ctx context.Context, orgID string) int {
	actors, _ := s.dir.ListActorsByOrganization(ctx, orgID)
	owners := 0
	for _, a := range actors {
		if a.Role == authz.RoleOwner {
			owners++
		}
	}
	return owners
}

// testEnv wires a server over in-memory dependencies
type testEnv struct {
	server   *Server
	dir      *directory.MemoryDirectory
	resolver *fakeResolver
	orgSvc   *fakeOrgService
	audits   *recordingAuditLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := directory.NewMemoryDirectory()
	dir.Put(authz.Actor{ID: "u-owner", Email: "owner@example.com", Role: authz.RoleOwner, OrganizationID: "org-1"})
	dir.Put(authz.Actor{ID: "u-admin", Email: "admin@example.com", Role: authz.RoleAdmin, OrganizationID: "org-1"})
	dir.Put(authz.Actor{ID: "u-user", Email: "user@example.com", Role: authz.RoleUser, OrganizationID: "org-1"})
	dir.Put(authz.Actor{ID: "u-outsider", Email: "outsider@example.com", Role: authz.RoleOwner, OrganizationID: "org-2"})
	dir.Put(authz.Actor{ID: "u-fresh", Email: "fresh@example.com", Role: authz.RoleUser})

	resolver := newFakeResolver(map[string]string{
		"owner-token": "u-owner",
		"admin-token": "u-admin",
		"user-token":  "u-user",
		"fresh-token": "u-fresh",
	})

	org := &orgs.Organization{
		ID:       "org-1",
		Name:     "Hilltop Garage",
		Slug:     "hilltop-garage",
		PlanTier: orgs.PlanFree,
		Status:   orgs.OrgStatusActive,
	}
	orgSvc := newFakeOrgService(org, dir)

	gate := authz.NewGate(resolver, dir)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	server := NewServer(gate, orgSvc, dir, resolver, resolver, logger)

	return &testEnv{
		server:   server,
		dir:      dir,
		resolver: resolver,
		orgSvc:   orgSvc,
		audits:   &recordingAuditLogger{},
	}
}
