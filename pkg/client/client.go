// Package client is a Go client for the estate API. It owns the session
// lifecycle: token persistence, the boot sequence, and a single transparent
// refresh-and-retry when an access token goes stale mid-flight.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var ErrUnauthenticated = errors.New("client: not authenticated")

// APIError is any non-2xx response decoded from the server envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type User struct {
	ID          uint   `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Patronymic  string `json:"patronymic,omitempty"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type Client struct {
	base  string
	hc    *http.Client
	store TokenStore

	mu      sync.Mutex
	access  string
	refresh string
	user    *User
	ready   bool
}

func New(baseURL string, store TokenStore) *Client {
	if store == nil {
		store = NopTokenStore{}
	}
	return &Client{
		base:  baseURL,
		hc:    &http.Client{Timeout: 15 * time.Second},
		store: store,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

// Boot restores a persisted session: validate the access token against /me,
// on failure try one refresh, on failure of that clear everything. The
// client is not Ready until this has run to completion, so guards never
// decide from a half-restored session.
func (c *Client) Boot(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.ready = true
		c.mu.Unlock()
	}()

	access, refresh, err := c.store.Load()
	if err != nil || access == "" {
		c.clearSession()
		return nil
	}
	c.mu.Lock()
	c.access, c.refresh = access, refresh
	c.mu.Unlock()

	if _, err := c.Me(ctx); err == nil {
		return nil
	}
	if err := c.doRefresh(ctx); err != nil {
		c.clearSession()
		return nil
	}
	if _, err := c.Me(ctx); err != nil {
		c.clearSession()
	}
	return nil
}

type RegisterInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Patronymic  string `json:"patronymic,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var out sessionData
	if err := c.do(ctx, http.MethodPost, "/api/register", in, &out, false); err != nil {
		return nil, err
	}
	c.setSession(out)
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var out sessionData
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &out, false); err != nil {
		return nil, err
	}
	c.setSession(out)
	return out.User, nil
}

// Logout tells the server (a no-op in the stateless model) and discards the
// local session either way.
func (c *Client) Logout(ctx context.Context) {
	_ = c.do(ctx, http.MethodPost, "/api/logout", nil, nil, true)
	c.clearSession()
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out, true); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.user = out.User
	c.mu.Unlock()
	return out.User, nil
}

type ProfilePatch struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Patronymic  *string `json:"patronymic,omitempty"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/profile", patch, &out, true); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.user = out.User
	c.mu.Unlock()
	return out.User, nil
}

// do runs one request. For authenticated calls a 401 triggers exactly one
// refresh-and-retry; if the refresh fails too, the session is cleared and
// the caller sees ErrUnauthenticated.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	err := c.once(ctx, method, path, in, out, authed)
	var apiErr *APIError
	if authed && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		if rerr := c.doRefresh(ctx); rerr != nil {
			c.clearSession()
			return ErrUnauthenticated
		}
		return c.once(ctx, method, path, in, out, authed)
	}
	return err
}

func (c *Client) once(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		c.mu.Lock()
		access := c.access
		c.mu.Unlock()
		if access == "" {
			return ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+access)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if res.StatusCode >= 400 || !env.Success {
		return &APIError{Status: res.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *Client) doRefresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()
	if refresh == "" {
		return ErrUnauthenticated
	}
	body := map[string]string{"refreshToken": refresh}
	var out sessionData
	if err := c.once(ctx, http.MethodPost, "/api/refresh", body, &out, false); err != nil {
		return err
	}
	c.mu.Lock()
	c.access, c.refresh = out.AccessToken, out.RefreshToken
	c.mu.Unlock()
	_ = c.store.Save(out.AccessToken, out.RefreshToken)
	return nil
}

func (c *Client) setSession(s sessionData) {
	c.mu.Lock()
	c.access, c.refresh, c.user = s.AccessToken, s.RefreshToken, s.User
	c.ready = true
	c.mu.Unlock()
	_ = c.store.Save(s.AccessToken, s.RefreshToken)
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.access, c.refresh, c.user = "", "", nil
	c.mu.Unlock()
	_ = c.store.Clear()
}
