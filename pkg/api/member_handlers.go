package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/contextkeys"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/middleware"
)

// UpdateRoleRequest is the request body for member role changes
type UpdateRoleRequest struct {
	Role authz.Role `json:"role"`
}

// ListMembers lists the active members of the caller's organization
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.Require(r.Context(), token, authz.ActionUserRead)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	members, err := s.orgService.ListMembers(r.Context(), authCtx.OrganizationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, members)
}

// GetMember returns a single member of the caller's organization. Unknown
// and cross-tenant ids both produce the same refusal.
func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["user_id"]

	token := contextkeys.GetSessionToken(r.Context())
	_, err := s.gate.RequireForTarget(r.Context(), token, authz.ActionUserRead, targetID)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	actor, err := s.directory.FindActorByID(r.Context(), targetID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, actor)
}

// UpdateMemberRole changes a member's role
func (s *Server) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["user_id"]

	var req UpdateRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || !req.Role.Valid() {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid role")
		return
	}

	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.RequireForTarget(r.Context(), token, authz.ActionUserRoleChange, targetID)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	// Granting owner is reserved to owners; admins passing the matrix check
	// must not escalate a user into an owner.
	if req.Role == authz.RoleOwner && authCtx.Role != authz.RoleOwner {
		httputil.WriteForbidden(w, "insufficient permissions")
		return
	}

	if err := s.orgService.UpdateMemberRole(r.Context(), authCtx.OrganizationID, targetID, req.Role); err != nil {
		writeServiceError(w, r, err)
		return
	}

	audit.FromContext(r.Context()).LogMembershipChange(r.Context(),
		audit.EventTypeMemberRoleChange,
		authCtx.UserID, authCtx.OrganizationID, targetID,
		"member role changed to "+string(req.Role))

	httputil.WriteNoContent(w)
}

// RemoveMember soft-deletes a member from the caller's organization
func (s *Server) RemoveMember(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["user_id"]

	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.RequireForTarget(r.Context(), token, authz.ActionUserDelete, targetID)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	if err := s.orgService.RemoveMember(r.Context(), authCtx.OrganizationID, targetID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	audit.FromContext(r.Context()).LogMembershipChange(r.Context(),
		audit.EventTypeMemberRemove,
		authCtx.UserID, authCtx.OrganizationID, targetID,
		"member removed")

	httputil.WriteNoContent(w)
}
