// Package client talks to the hub HTTP API. Client implements
// remote.Service, so the reconciliation stores can run against a remote
// server exactly as they run against a local database.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"hub/internal/models"
	"hub/internal/remote"
)

const maxErrorBody = 4 << 10

// Client wraps http.Client with JSON helpers for the hub API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

var _ remote.Service = (*Client)(nil)

// New returns a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become errors wrapping the matching models sentinel.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, method, path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response, method, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body remote.ErrorResponse
	msg := strings.TrimSpace(string(data))
	if err := sonic.Unmarshal(data, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, models.ErrNotFound)
	case http.StatusBadRequest:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, models.ErrInvalid)
	case http.StatusConflict:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, models.ErrConflict)
	default:
		return &StatusError{Code: resp.StatusCode, Method: method, Path: path, Message: msg}
	}
}

// StatusError is a non-2xx response without a domain meaning.
type StatusError struct {
	Code    int
	Method  string
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
}

func escape(id string) string {
	return url.PathEscape(id)
}

// Ping checks the server health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/healthz", nil, nil)
}

func (c *Client) FirstUser(ctx context.Context) (models.User, error) {
	var resp remote.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/first", nil, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

func (c *Client) JoinWaitlist(ctx context.Context, email string) (models.WaitlistEntry, error) {
	var resp remote.WaitlistResponse
	if err := c.do(ctx, http.MethodPost, "/api/waitlist", remote.WaitlistRequest{Email: email}, &resp); err != nil {
		return models.WaitlistEntry{}, err
	}
	return resp.Entry, nil
}
