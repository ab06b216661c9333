package api

import (
	"context"
	"net/http"

	"cashbet-backoffice/internal/model"
)

// Directory wraps the `/auth/*` endpoints: login, registration and the
// user directory the hierarchy tree hydrates from.
type Directory struct {
	c *Client
}

// LoginResult is the successful login response.
type LoginResult struct {
	Token   string         `json:"token"`
	User    model.UserNode `json:"user"`
	Message string         `json:"message"`
}

// Login authenticates the operator and returns the issued credential and
// identity. The caller owns establishing the session from the result.
func (d *Directory) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResult
	if err := d.c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the server-side session.
func (d *Directory) Logout(ctx context.Context) error {
	return d.c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
}

// Register creates a new account under the given creator.
func (d *Directory) Register(ctx context.Context, username, password string, role model.Role, creatorID string) error {
	body := map[string]any{
		"username": username,
		"password": password,
		"role":     role,
		"id":       creatorID,
	}
	return d.c.do(ctx, http.MethodPost, "/auth/register", nil, body, nil)
}

// UserByID fetches a single account.
func (d *Directory) UserByID(ctx context.Context, id string) (*model.UserNode, error) {
	var out struct {
		User model.UserNode `json:"user"`
	}
	if err := d.c.do(ctx, http.MethodGet, joinID("/auth/user", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UsersByCreatorID fetches the creator's account with its entire subtree
// nested under Children. This is the hierarchy hydration payload.
func (d *Directory) UsersByCreatorID(ctx context.Context, creatorID string) (*model.UserNode, error) {
	var out struct {
		User model.UserNode `json:"user"`
	}
	if err := d.c.do(ctx, http.MethodGet, joinID("/auth/usersByCreater", creatorID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UsersByRole lists all accounts holding the given role.
func (d *Directory) UsersByRole(ctx context.Context, role model.Role) ([]model.UserNode, error) {
	body := map[string]model.Role{"role": role}
	var out struct {
		Users []model.UserNode `json:"users"`
	}
	if err := d.c.do(ctx, http.MethodPost, "/auth/usersByRole", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// AllUsers lists every account visible to the operator.
func (d *Directory) AllUsers(ctx context.Context) ([]model.UserNode, error) {
	var out struct {
		Users []model.UserNode `json:"users"`
	}
	if err := d.c.do(ctx, http.MethodGet, "/auth/getallusers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// UpdateRequest is the account update payload. Empty Password means unchanged.
type UpdateRequest struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username,omitempty"`
	Password string     `json:"password,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

// Update patches an account and returns the updated record.
func (d *Directory) Update(ctx context.Context, req UpdateRequest) (*model.UserNode, error) {
	var out struct {
		Message string         `json:"message"`
		User    model.UserNode `json:"user"`
	}
	if err := d.c.do(ctx, http.MethodPut, "/auth/update", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// DeleteByID removes an account and, server-side, its whole subtree.
func (d *Directory) DeleteByID(ctx context.Context, id string) error {
	return d.c.do(ctx, http.MethodDelete, joinID("/auth/delete_user", id), nil, nil, nil)
}

// DeleteByUsername removes an account addressed by username.
func (d *Directory) DeleteByUsername(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return d.c.do(ctx, http.MethodDelete, "/auth/delete_user", nil, body, nil)
}

// Balance fetches an account's current balance.
func (d *Directory) Balance(ctx context.Context, username string) (float64, error) {
	body := map[string]string{"username": username}
	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := d.c.do(ctx, http.MethodPost, "/auth/getBalance", nil, body, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Profile fetches an account's profile by username.
func (d *Directory) Profile(ctx context.Context, username string) (*model.UserNode, error) {
	body := map[string]string{"username": username}
	var out struct {
		User model.UserNode `json:"user"`
	}
	if err := d.c.do(ctx, http.MethodPost, "/auth/profile", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
