package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cashbet-backoffice/internal/session"
)

// refreshPath is the silent credential refresh endpoint.
const refreshPath = "/auth/refresh-token"

// Client is the single shared HTTP client for the CashBet backend.
// It attaches the bearer credential from the session store to every request
// and applies one cross-cutting policy: on a 401 it attempts exactly one
// silent credential refresh and retries the original request once.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session *session.Store
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, timeout time.Duration, sess *session.Store) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", baseURL, err)
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		session: sess,
	}, nil
}

// Directory returns the user directory sub-client.
func (c *Client) Directory() *Directory { return &Directory{c: c} }

// Ledger returns the transfer ledger sub-client.
func (c *Client) Ledger() *Ledger { return &Ledger{c: c} }

// Reports returns the daily report sub-client.
func (c *Client) Reports() *Reports { return &Reports{c: c} }

// do issues one request and decodes the response into out (when non-nil).
// Expected failures come back as *Error; only a malformed success body
// escapes as a plain error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
	}

	resp, err := c.send(ctx, method, path, query, payload, c.session.Token())
	if err != nil {
		return err
	}

	// Authentication expired: refresh once and retry the original request
	// once. A failed refresh propagates the original Unauthorized unchanged.
	if resp.StatusCode == http.StatusUnauthorized && path != refreshPath {
		original := decode(resp, method, path, nil)
		newToken, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			log.Debug().Str("path", path).Msg("Credential refresh failed")
			return original
		}
		resp, err = c.send(ctx, method, path, query, payload, newToken)
		if err != nil {
			return err
		}
	}

	return decode(resp, method, path, out)
}

// send builds and executes a single HTTP request.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	target := strings.TrimSuffix(c.baseURL.String(), "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Let the caller see cancellation as such, not as a backend outage.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errf(KindNetwork, 0, "backend unreachable: %v", err)
	}
	return resp, nil
}

// refresh exchanges the expired credential for a new one and stores it.
func (c *Client) refresh(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, refreshPath, nil, []byte("{}"), c.session.Token())
	if err != nil {
		return "", err
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decode(resp, http.MethodPost, refreshPath, &body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errf(KindUnauthorized, resp.StatusCode, "refresh response carried no credential")
	}
	c.session.SetToken(body.AccessToken)
	return body.AccessToken, nil
}

// decode maps error statuses to *Error and unmarshals success bodies.
func decode(resp *http.Response, method, path string, out any) error {
	defer drain(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errf(KindNetwork, resp.StatusCode, "read %s %s response: %v", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &failure)
		return fromStatus(resp.StatusCode, failure.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed %s %s response: %w", method, path, err)
	}
	return nil
}

// drain discards and closes the response body so the connection can be reused.
func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}

// joinID appends an id as the trailing path segment. Only the id is
// escaped; the fixed prefix must keep its slashes.
func joinID(path, id string) string {
	return strings.TrimSuffix(path, "/") + "/" + url.PathEscape(id)
}
