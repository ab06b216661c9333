package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cashbet-backoffice/internal/api"
	"cashbet-backoffice/internal/config"
	"cashbet-backoffice/internal/hierarchy"
	"cashbet-backoffice/internal/report"
	"cashbet-backoffice/internal/session"
)

// Server wires the dashboard handlers to their dependencies.
type Server struct {
	cfg       *config.Config
	session   *session.Store
	client    *api.Client
	hierarchy *hierarchy.Service
	report    *report.View
}

// New creates the dashboard server.
func New(cfg *config.Config, sess *session.Store, client *api.Client, tree *hierarchy.Service, view *report.View) *Server {
	return &Server{
		cfg:       cfg,
		session:   sess,
		client:    client,
		hierarchy: tree,
		report:    view,
	}
}

// Handler builds the route table. Login is the only public route; everything
// else sits behind the role gate.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.gate(s.handleLogout))

	mux.HandleFunc("POST /register", s.gate(s.handleRegister))
	mux.HandleFunc("GET /tree", s.gate(s.handleTree))
	mux.HandleFunc("PUT /tree/{id}", s.gate(s.handleUpdateNode))
	mux.HandleFunc("DELETE /tree/{id}", s.gate(s.handleDeleteNode))
	mux.HandleFunc("POST /tree/{id}/transfer", s.gate(s.handleTransfer))

	mux.HandleFunc("GET /users", s.gate(s.handleUsers))
	mux.HandleFunc("GET /users/{id}", s.gate(s.handleUser))
	mux.HandleFunc("DELETE /users", s.gate(s.handleDeleteByUsername))
	mux.HandleFunc("GET /balance", s.gate(s.handleBalance))
	mux.HandleFunc("GET /profile", s.gate(s.handleProfile))

	mux.HandleFunc("GET /transfers", s.gate(s.handleTransfers))
	mux.HandleFunc("GET /transfers/agent", s.gate(s.handleAgentTransfers))
	mux.HandleFunc("GET /transfers/history", s.gate(s.handleTransferHistory))

	mux.HandleFunc("GET /report", s.gate(s.handleReport))

	return otelhttp.NewHandler(Logging(mux), "cashbet-backoffice")
}
