package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"declaration-platform/internal/audit"
	"declaration-platform/internal/auth"
	"declaration-platform/internal/declaration"
)

var (
	// ErrUnauthenticated means the server rejected the stored token; log in again.
	ErrUnauthenticated = errors.New("client: not logged in or session expired")
	ErrForbidden       = errors.New("client: role may not perform this action")
)

// APIError is a non-2xx response other than 401/403.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to the declaration API on behalf of a single user.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL, e.g. http://localhost:4000/api/v1.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	if store == nil {
		store = &MemoryStore{}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identity is the server's view of the caller.
type Identity struct {
	Username  string    `json:"username"`
	Role      auth.Role `json:"role"`
	CanCommit bool      `json:"can_commit"`
}

// Submission is the result of submitting a declaration.
type Submission struct {
	ID   string `json:"id"`
	Plan string `json:"plan"`
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

// Login requests a token for username and stores it.
func (c *Client) Login(ctx context.Context, username string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"username": username}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("client: server returned an empty token")
	}
	if err := c.store.Save(out.Token); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Logout revokes the stored token on the server and forgets it locally.
// A token the server already rejects is still forgotten.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil && !errors.Is(err, ErrUnauthenticated) {
		return err
	}
	return c.store.Clear()
}

// Role is the display hint read from the stored token.
func (c *Client) Role() (auth.Role, error) {
	tok, err := c.store.Load()
	if err != nil {
		return "", err
	}
	return RoleFromToken(tok), nil
}

func (c *Client) Me(ctx context.Context) (Identity, error) {
	var out Identity
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}

func (c *Client) SubmitDeclaration(ctx context.Context, text string) (Submission, error) {
	var out Submission
	err := c.do(ctx, http.MethodPost, "/declarations", map[string]string{"text": text}, &out)
	return out, err
}

func (c *Client) ListDeclarations(ctx context.Context) ([]declaration.Declaration, error) {
	var out []declaration.Declaration
	err := c.do(ctx, http.MethodGet, "/declarations", nil, &out)
	return out, err
}

func (c *Client) CommitDeclaration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/declarations/"+url.PathEscape(id)+"/commit", nil, nil)
}

// ListAudit returns recent audit events, newest first. limit <= 0 uses the server default.
func (c *Client) ListAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	path := "/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []audit.Event
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tok, err := c.store.Load()
	if err != nil {
		return err
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode >= 300:
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
