package api

import (
	"net/http"
	"time"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/contextkeys"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/middleware"
)

// GetCurrentUser returns the authenticated actor's profile and resolved role
func (s *Server) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "invalid or expired session")
		return
	}

	actor, err := s.directory.FindActorByID(r.Context(), authCtx.UserID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if actor == nil || actor.Deleted() {
		httputil.WriteUnauthorized(w, "invalid or expired session")
		return
	}

	httputil.WriteSuccess(w, actor)
}

// Logout revokes the current session
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	if token != "" && s.sessions != nil {
		if err := s.sessions.Revoke(r.Context(), token); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
	}

	if authCtx := middleware.GetAuthContext(r); authCtx != nil {
		ctx := r.Context()
		_ = audit.FromContext(ctx).Log(ctx, &audit.Event{
			Timestamp:      time.Now().UTC(),
			EventType:      audit.EventTypeSessionRevoke,
			Status:         audit.EventStatusSuccess,
			UserID:         authCtx.UserID,
			OrganizationID: authCtx.OrganizationID,
			RequestID:      contextkeys.GetRequestID(ctx),
		})
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	httputil.WriteNoContent(w)
}
