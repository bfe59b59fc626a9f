package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/contextkeys"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/orgs"
)

// writeServiceError maps organization service errors onto HTTP responses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case authz.IsLastOwnerViolation(err):
		auditLastOwnerRefusal(r, err)
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, orgs.ErrOrgNotFound),
		errors.Is(err, orgs.ErrMemberNotFound),
		errors.Is(err, orgs.ErrInvitationNotFound):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, orgs.ErrInvitationExpired):
		httputil.WriteErrorMessage(w, http.StatusGone, err.Error())
	case errors.Is(err, orgs.ErrInvitationAccepted),
		errors.Is(err, orgs.ErrAlreadyAttached):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, orgs.ErrNotOwner):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, orgs.ErrInvalidRole):
		httputil.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}

// auditLastOwnerRefusal records a refused owner demotion or removal in the
// audit trail
func auditLastOwnerRefusal(r *http.Request, err error) {
	var violation *authz.LastOwnerError
	if !errors.As(err, &violation) {
		return
	}
	ctx := r.Context()
	event := &audit.Event{
		Timestamp:      time.Now().UTC(),
		EventType:      audit.EventTypeAuthzLastOwner,
		Status:         audit.EventStatusDenied,
		TargetUserID:   violation.UserID,
		OrganizationID: violation.OrganizationID,
		RequestID:      contextkeys.GetRequestID(ctx),
		Message:        err.Error(),
	}
	_ = audit.FromContext(ctx).Log(ctx, event)
}
