// Package session holds the authenticated operator's identity and bearer
// credential for the lifetime of a login. The store is explicit state with
// explicit init and teardown; nothing else in the process caches identity.
package session

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"cashbet-backoffice/internal/model"
)

// ErrNoSession is returned when an operation needs an active session and none exists.
var ErrNoSession = errors.New("no active session")

// Identity is the canonical session shape: the user object from the login
// response, flattened. Role lives at the top level.
type Identity struct {
	ID       string
	Username string
	Role     model.Role
}

// Store is a mutex-guarded session holder. Safe for concurrent readers and
// writers; the HTTP surface and the refresh path both touch it.
type Store struct {
	mu       sync.RWMutex
	identity Identity
	token    string
	active   bool
}

// NewStore creates an empty, inactive session store.
func NewStore() *Store {
	return &Store{}
}

// Init establishes a session after a successful login.
func (s *Store) Init(id Identity, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	s.token = token
	s.active = true
}

// Clear tears the session down on logout or rejected credentials.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = Identity{}
	s.token = ""
	s.active = false
}

// Active reports whether a session is established.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Identity returns the cached operator identity.
// Returns ErrNoSession when no login has occurred.
func (s *Store) Identity() (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return Identity{}, ErrNoSession
	}
	return s.identity, nil
}

// Token returns the current bearer credential, or "" when absent.
// Absence is not an error here: some backend endpoints are public and the
// server performs the authoritative check.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken swaps in a refreshed bearer credential without touching identity.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// UpdateIdentity patches the cached identity after the operator renames
// their own account. No-op when the session is inactive.
func (s *Store) UpdateIdentity(username string, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.identity.Username = username
	s.identity.Role = role
}

// WriteCookie sets the session cookie carrying the bearer credential.
func WriteCookie(w http.ResponseWriter, name, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie extracts the bearer credential from the request, or "" when missing.
func ReadCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
