package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/middleware"
	"github.com/garagehq/gearbox/pkg/observability"
	"github.com/garagehq/gearbox/pkg/orgs"
	"github.com/garagehq/gearbox/pkg/session"
)

// Server is the HTTP API surface over the authorization gate and the
// organization service
type Server struct {
	router     *mux.Router
	gate       *authz.Gate
	orgService orgs.Service
	directory  authz.Directory
	resolver   authz.SessionResolver
	sessions   session.Store // nil when sessions are issued by an external IdP
	logger     *observability.Logger
}

// NewServer creates a new API server and registers its routes
func NewServer(gate *authz.Gate, orgService orgs.Service, directory authz.Directory, resolver authz.SessionResolver, sessions session.Store, logger *observability.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		gate:       gate,
		orgService: orgService,
		directory:  directory,
		resolver:   resolver,
		sessions:   sessions,
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

// Router returns the server's HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)

	// Invitation acceptance only needs a valid session: the accepting actor
	// has no organization yet, so the org-scoped middleware would refuse it.
	s.router.HandleFunc("/v1/invitations/{token}/accept", s.AcceptInvitation).Methods("POST")

	v1 := s.router.PathPrefix("/v1").Subrouter()
	authed := middleware.NewSessionMiddleware(s.gate, false)
	v1.Use(authed.Handler)

	v1.HandleFunc("/auth/me", s.GetCurrentUser).Methods("GET")
	v1.HandleFunc("/auth/logout", s.Logout).Methods("POST")

	v1.HandleFunc("/org", s.GetOrganization).Methods("GET")
	v1.HandleFunc("/org", s.UpdateOrganization).Methods("PUT")
	v1.HandleFunc("/org/transfer", s.TransferOwnership).Methods("POST")

	v1.HandleFunc("/org/members", s.ListMembers).Methods("GET")
	v1.HandleFunc("/org/members/{user_id}", s.GetMember).Methods("GET")
	v1.HandleFunc("/org/members/{user_id}/role", s.UpdateMemberRole).Methods("PUT")
	v1.HandleFunc("/org/members/{user_id}", s.RemoveMember).Methods("DELETE")

	v1.HandleFunc("/org/invitations", s.CreateInvitation).Methods("POST")
	v1.HandleFunc("/org/invitations", s.ListInvitations).Methods("GET")
	v1.HandleFunc("/org/invitations/{id}", s.RevokeInvitation).Methods("DELETE")
}
