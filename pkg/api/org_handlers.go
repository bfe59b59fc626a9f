package api

import (
	"net/http"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/contextkeys"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/middleware"
	"github.com/garagehq/gearbox/pkg/orgs"
)

// UpdateOrgRequest is the request body for organization updates
type UpdateOrgRequest struct {
	Name     *string        `json:"name,omitempty"`
	PlanTier *orgs.PlanTier `json:"plan_tier,omitempty"`
}

// TransferOwnershipRequest is the request body for ownership transfers
type TransferOwnershipRequest struct {
	ToUserID string `json:"to_user_id"`
}

// GetOrganization returns the caller's organization
func (s *Server) GetOrganization(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.Require(r.Context(), token, authz.ActionOrgRead)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	org, err := s.orgService.GetOrganization(r.Context(), authCtx.OrganizationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, org)
}

// UpdateOrganization updates the organization's name and plan
func (s *Server) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.Require(r.Context(), token, authz.ActionOrgUpdate)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	var req UpdateOrgRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := s.orgService.GetOrganization(r.Context(), authCtx.OrganizationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.PlanTier != nil {
		org.PlanTier = *req.PlanTier
	}

	if err := s.orgService.UpdateOrganization(r.Context(), org); err != nil {
		writeServiceError(w, r, err)
		return
	}

	audit.FromContext(r.Context()).Log(r.Context(), &audit.Event{
		EventType:      audit.EventTypeOrgUpdate,
		Status:         audit.EventStatusSuccess,
		UserID:         authCtx.UserID,
		OrganizationID: authCtx.OrganizationID,
		RequestID:      contextkeys.GetRequestID(r.Context()),
	})

	httputil.WriteSuccess(w, org)
}

// TransferOwnership promotes another member to owner and demotes the caller
// to admin
func (s *Server) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req TransferOwnershipRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || req.ToUserID == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := contextkeys.GetSessionToken(r.Context())
	authCtx, err := s.gate.RequireForTarget(r.Context(), token, authz.ActionOwnerTransfer, req.ToUserID)
	if err != nil {
		middleware.WriteAuthzError(w, err)
		return
	}

	if err := s.orgService.TransferOwnership(r.Context(), authCtx.OrganizationID, authCtx.UserID, req.ToUserID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	audit.FromContext(r.Context()).LogMembershipChange(r.Context(),
		audit.EventTypeOwnershipTransfer,
		authCtx.UserID, authCtx.OrganizationID, req.ToUserID,
		"organization ownership transferred")

	httputil.WriteNoContent(w)
}
