package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"cashbet-backoffice/internal/api"
	"cashbet-backoffice/internal/hierarchy"
	"cashbet-backoffice/internal/model"
	"cashbet-backoffice/internal/policy"
	"cashbet-backoffice/internal/report"
	"cashbet-backoffice/internal/session"
)

// writeJSON writes a success envelope with the given payload fields.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeFailure writes the uniform failure envelope.
func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"status":  status,
		"message": message,
	})
}

// writeError maps a domain error onto the failure envelope.
func writeError(w http.ResponseWriter, err error) {
	writeFailure(w, statusOf(err), err.Error())
}

// statusOf maps domain and backend errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, hierarchy.ErrInvalidAmount),
		errors.Is(err, hierarchy.ErrInvalidDirection),
		errors.Is(err, hierarchy.ErrNotHydrated),
		errors.Is(err, report.ErrMissingDate):
		return http.StatusBadRequest
	case errors.Is(err, hierarchy.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, hierarchy.ErrMutationInFlight):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status > 0 {
			return apiErr.Status
		}
		return http.StatusBadGateway // network: backend unreachable
	}
	return http.StatusInternalServerError
}

// decodeBody decodes a JSON request body, rejecting unknown garbage early.
func decodeBody(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// handleLogin authenticates the operator, establishes the session and sets
// the credential cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid login request")
		return
	}

	result, err := s.client.Directory().Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.session.Init(session.Identity{
		ID:       result.User.ID,
		Username: result.User.Username,
		Role:     result.User.Role,
	}, result.Token)
	session.WriteCookie(w, s.cfg.Session.CookieName, result.Token, s.cfg.Session.TTL, s.cfg.Session.Secure)

	log.Info().Str("username", result.User.Username).Str("role", string(result.User.Role)).Msg("Operator logged in")
	writeJSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// handleLogout tears down the session. The backend call is best effort;
// local teardown happens regardless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Directory().Logout(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Backend logout failed, clearing session anyway")
	}
	s.session.Clear()
	session.ClearCookie(w, s.cfg.Session.CookieName, s.cfg.Session.Secure)
	writeJSON(w, http.StatusOK, nil)
}

// handleTree re-hydrates the hierarchy from the backend and returns the
// nested tree. A root without children is a valid single-node tree.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if err := s.hierarchy.Hydrate(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	root, ok := s.hierarchy.Snapshot()
	if !ok {
		writeFailure(w, http.StatusNotFound, "hierarchy is empty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": root})
}

// handleUpdateNode renames a node, changes its role, or sets a new
// password. An omitted password stays unchanged.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")

	var req struct {
		Username string     `json:"username"`
		Role     model.Role `json:"role"`
		Password string     `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid update request")
		return
	}

	identity, err := s.session.Identity()
	if err != nil {
		writeError(w, err)
		return
	}
	// An absent role means unchanged and needs no assignment check. The
	// operator may keep their own role, but may only assign roles strictly
	// below their own to anyone else. The backend re-checks.
	if req.Role != "" && nodeID != identity.ID && !policy.CanAssignRole(identity.Role, req.Role) {
		writeFailure(w, http.StatusBadRequest, "cannot assign a role at or above your own")
		return
	}

	if err := s.hierarchy.Rename(r.Context(), nodeID, req.Username, req.Role, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleDeleteNode deletes a node and its entire subtree.
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.hierarchy.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleTransfer moves balance between the operator and a node.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    float64 `json:"amount"`
		Direction string  `json:"direction"`
		Note      string  `json:"note"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid transfer request")
		return
	}

	identity, err := s.session.Identity()
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.hierarchy.Transfer(r.Context(), identity.ID, r.PathValue("id"), req.Amount, req.Direction, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transfer":        result.Transfer,
		"updatedSender":   result.UpdatedSender,
		"updatedReceiver": result.UpdatedReceiver,
	})
}

// handleRegister creates a new account under the operator.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string     `json:"username"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid register request")
		return
	}

	identity, err := s.session.Identity()
	if err != nil {
		writeError(w, err)
		return
	}
	if !policy.CanAssignRole(identity.Role, req.Role) {
		writeFailure(w, http.StatusBadRequest, "cannot assign a role at or above your own")
		return
	}

	if err := s.client.Directory().Register(r.Context(), req.Username, req.Password, req.Role, identity.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

// handleUsers lists accounts, optionally filtered by role.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	var (
		users []model.UserNode
		err   error
	)
	if role := r.URL.Query().Get("role"); role != "" {
		users, err = s.client.Directory().UsersByRole(r.Context(), model.Role(role))
	} else {
		users, err = s.client.Directory().AllUsers(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// handleUser returns one account's details.
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.client.Directory().UserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// handleDeleteByUsername removes an account addressed by username.
func (s *Server) handleDeleteByUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeFailure(w, http.StatusBadRequest, "username is required")
		return
	}
	if err := s.client.Directory().DeleteByUsername(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleBalance returns one account's current balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.client.Directory().Balance(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": balance})
}

// handleProfile returns one account's profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.client.Directory().Profile(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// handleTransfers lists all transfers visible to the operator.
func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.client.Ledger().AllTransfers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transfers": transfers})
}

// handleAgentTransfers lists the agent transaction ledger.
func (s *Server) handleAgentTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.client.Ledger().AgentTransfers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agentTransactions": transfers})
}

// handleTransferHistory lists one account's transfers for one day.
func (s *Server) handleTransferHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	transfers, err := s.client.Ledger().TransferHistory(r.Context(), q.Get("username"), q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transferHistory": transfers})
}

// handleReport loads the daily report for a date and returns the flat
// casino view (sorted and paginated per the query) together with the
// per-system view for the selected system.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if err := s.report.Load(r.Context(), q.Get("date")); err != nil {
		writeError(w, err)
		return
	}

	rows := s.report.CasinoRows()
	if key := q.Get("sort"); key != "" {
		direction := q.Get("dir")
		if direction != report.Desc {
			direction = report.Asc
		}
		rows = report.Sort(rows, key, direction)
	}

	page := intParam(q.Get("page"), 1)
	pageSize := intParam(q.Get("size"), 10)
	total := len(rows)
	rows = report.Paginate(rows, page, pageSize)

	selection := q.Get("system")
	if selection == "" {
		selection = report.AllSystems
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"casino":          rows,
		"total":           total,
		"page":            page,
		"allowed_systems": s.report.Systems(),
		"each_system":     s.report.FilterBySystem(selection),
	})
}

// intParam parses a positive integer query parameter with a fallback.
func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return fallback
		}
	}
	if n < 1 {
		return fallback
	}
	return n
}
