package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/contextkeys"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/middleware"
	"github.com/garagehq/gearbox/pkg/orgs"
)

// CreateInvitationRequest is the request body for creating invitations
type CreateInvitationRequest struct {
	Email string     `json:"email"`
	Role  authz.Role `json:"role"`
}

// CreateInvitation invites an email address into the caller's organization
func (s *Server) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || req.Email == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = authz.RoleUser
	}

	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.Require(r.Context(), token, authz.ActionUserInvite)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	// Inviting straight into the owner role is reserved to owners.
	if req.Role == authz.RoleOwner && authCtx.Role != authz.RoleOwner {
		httputil.WriteForbidden(w, "insufficient permissions")
		return
	}

	invitation := &orgs.Invitation{
		OrgID:     authCtx.OrganizationID,
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: authCtx.UserID,
	}
	if err := s.orgService.CreateInvitation(r.Context(), invitation); err != nil {
		writeServiceError(w, r, err)
		return
	}

	audit.FromContext(r.Context()).LogMembershipChange(r.Context(),
		audit.EventTypeMemberInvite,
		authCtx.UserID, authCtx.OrganizationID, "",
		"invited "+req.Email+" as "+string(req.Role))

	httputil.WriteCreated(w, invitation)
}

// ListInvitations lists pending invitations for the caller's organization
func (s *Server) ListInvitations(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.Require(r.Context(), token, authz.ActionUserInvite)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	invitations, err := s.orgService.ListInvitations(r.Context(), authCtx.OrganizationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, invitations)
}

// RevokeInvitation revokes a pending invitation in the caller's organization
func (s *Server) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.Require(r.Context(), token, authz.ActionUserInvite)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	if err := s.orgService.RevokeInvitation(r.Context(), authCtx.OrganizationID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// AcceptInvitation attaches the calling actor to the inviting organization.
// The actor has no organization yet, so only the session itself is checked.
func (s *Server) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	inviteToken := mux.Vars(r)["token"]

	sessionToken := middleware.ExtractToken(r)
	if sessionToken == "" {
		httputil.WriteUnauthorized(w, "missing session")
		return
	}

	actorID, err := s.resolver.ResolveActorID(r.Context(), sessionToken)
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "authorization unavailable")
		return
	}
	if actorID == "" {
		httputil.WriteUnauthorized(w, "invalid or expired session")
		return
	}

	actor, err := s.directory.FindActorByID(r.Context(), actorID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if actor == nil || actor.Deleted() {
		httputil.WriteUnauthorized(w, "invalid or expired session")
		return
	}

	if err := s.orgService.AcceptInvitation(r.Context(), inviteToken, actorID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	audit.FromContext(r.Context()).LogMembershipChange(r.Context(),
		audit.EventTypeMemberInviteAccept,
		actorID, "", "",
		"invitation accepted")

	httputil.WriteNoContent(w)
}
