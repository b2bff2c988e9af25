// Package client talks to a circled daemon over HTTP. It implements the
// stream, poster and directory interfaces the session package consumes,
// plus the account calls the CLI needs.
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
	"time"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/profiles"
)

// Client is an authenticated handle to one daemon. The zero token makes
// an anonymous client, enough for reads and registration.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// New builds a client for the daemon at baseURL.
func New(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// WithToken returns a copy of the client authenticated as token.
func (c *Client) WithToken(token string) *Client {
	out := *c
	out.token = token
	return &out
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return models.TransportError(path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.TransportError(path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return models.TransportError(path, fmt.Errorf("decoding response: %w", err))
	}
	if !env.Success {
		return apiError(resp.StatusCode, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return models.TransportError(path, fmt.Errorf("decoding payload: %w", err))
		}
	}
	return nil
}

func apiError(status int, message string) error {
	switch status {
	case http.StatusBadRequest:
		return models.ValidationError("%s", message)
	case http.StatusUnauthorized:
		return models.AuthError("%s", message)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", message, models.ErrConflict)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", message, models.ErrNotFound)
	default:
		return models.TransportError("api", fmt.Errorf("status %d: %s", status, message))
	}
}

// Register creates an account on the daemon.
func (c *Client) Register(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"username": username, "password": password,
	}, &user)
	return user, err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, models.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username, "password": password,
	}, &out)
	return out.Token, out.User, err
}

// ListAll fetches the full message history, oldest first.
func (c *Client) ListAll(ctx context.Context) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Post appends a message as the authenticated user.
func (c *Client) Post(ctx context.Context, body string) (models.Message, error) {
	var msg models.Message
	err := c.do(ctx, http.MethodPost, "/api/messages", map[string]string{"message": body}, &msg)
	return msg, err
}

// Directory lists directory entries with the daemon's mention counts.
func (c *Client) Directory(ctx context.Context, q models.ProfileQuery) ([]profiles.Entry, error) {
	params := url.Values{}
	if q.City != "" {
		params.Set("city", q.City)
	}
	if q.Gender != "" {
		params.Set("gender", q.Gender)
	}
	if q.MinAge > 0 {
		params.Set("min_age", strconv.Itoa(q.MinAge))
	}
	if q.MaxAge > 0 {
		params.Set("max_age", strconv.Itoa(q.MaxAge))
	}
	path := "/api/profiles"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var entries []profiles.Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodGet, "/api/profiles/me", nil, &p)
	return p, err
}

// UpdateProfile writes the authenticated user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodPut, "/api/profiles/me", upd, &p)
	return p, err
}
