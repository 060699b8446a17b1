// Package client is a Go client for the GuildKeeper API. It keeps the session token
// in memory, mirrors it to a TokenStore and sends it as a bearer token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"guildkeeper/internal/models"
)

// APIError is a non-2xx response of the API.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore persists the session token in store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// Client talks to one GuildKeeper server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu    sync.RWMutex
	token string
	user  *models.Account
}

// New returns a client for the server at baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  &memoryTokenStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name      string `json:"name"`
	Surname   string `json:"surname,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender,omitempty"`
}

type authResult struct {
	Token string          `json:"token"`
	User  *models.Account `json:"user"`
}

// PageInfo is the pagination block of a listing.
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	Total       int  `json:"totalPosts"`
	PerPage     int  `json:"postsPerPage"`
}

// PostPage is one page of posts.
type PostPage struct {
	Posts      []*models.Post `json:"posts"`
	Pagination PageInfo       `json:"pagination"`
}

// PostQuery selects a page of posts. Zero values are omitted.
type PostQuery struct {
	Page   int
	Limit  int
	Group  string
	Type   string
	Search string
	Mine   bool
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the signed-in account, or nil.
func (c *Client) User() *models.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Restore loads a stored token and validates it against /auth/me. An invalid token is
// cleared. It returns nil, nil when no token was stored.
func (c *Client) Restore(ctx context.Context) (*models.Account, error) {
	token, err := c.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	c.setSession(token, nil)
	user, err := c.Me(ctx)
	if err != nil {
		_ = c.Logout()
		return nil, err
	}
	return user, nil
}

// Login signs in and stores the token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Account, error) {
	var res authResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return nil, err
	}
	return res.User, c.saveSession(res)
}

// Register creates an account and stores the token of the new session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	var res authResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &res); err != nil {
		return nil, err
	}
	return res.User, c.saveSession(res)
}

// Logout forgets the session locally. Tokens are stateless so nothing is sent.
func (c *Client) Logout() error {
	c.setSession("", nil)
	return c.tokens.Clear()
}

// Me fetches the signed-in account.
func (c *Client) Me(ctx context.Context) (*models.Account, error) {
	var user models.Account
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.user = &user
	c.mu.Unlock()
	return &user, nil
}

// Posts lists posts. With q.Mine the caller's own posts are listed.
func (c *Client) Posts(ctx context.Context, q PostQuery) (*PostPage, error) {
	path := "/api/posts"
	if q.Mine {
		path = "/api/posts/my"
	}

	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	for key, v := range map[string]string{"group": q.Group, "type": q.Type, "search": q.Search} {
		if v != "" {
			params.Set(key, v)
		}
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page PostPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) saveSession(res authResult) error {
	c.setSession(res.Token, res.User)
	if err := c.tokens.Save(res.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (c *Client) setSession(token string, user *models.Account) {
	c.mu.Lock()
	c.token, c.user = token, user
	c.mu.Unlock()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

// do sends a JSON request and decodes the envelope data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
