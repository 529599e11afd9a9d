// Package mapclient implements the mapstate Gateway over the server's
// JSON-over-HTTP boundary. HTTP statuses are mapped onto the shared error
// taxonomy so the state container never branches on transport detail.
package mapclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pinmov/atlas-server/internal/models"
)

// Client is an authenticated HTTP client for the report/hub API.
type Client struct {
	baseURL    string
	cookieName string
	session    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession attaches the signed session cookie value for the caller.
// Without a session the client reports itself unauthenticated and the
// state container will not attempt writes.
func WithSession(value string) Option {
	return func(c *Client) { c.session = value }
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(c *Client) { c.cookieName = name }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: "pinmov_session",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether the client holds a session cookie.
func (c *Client) Authenticated() bool {
	return c.session != ""
}

// ListReports fetches the canonical report collection.
func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := c.get(ctx, "/report", &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ListHubs fetches the canonical hub collection.
func (c *Client) ListHubs(ctx context.Context) ([]models.Hub, error) {
	var hubs []models.Hub
	if err := c.get(ctx, "/hub", &hubs); err != nil {
		return nil, err
	}
	return hubs, nil
}

// CreateReport persists one report and returns the server's record.
func (c *Client) CreateReport(ctx context.Context, req *models.CreateReportRequest) (*models.Report, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/report", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create report: %w: %v", models.ErrStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var envelope struct {
		Success bool           `json:"success"`
		Data    *models.Report `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode create response: %w", models.ErrStorage)
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, models.ErrStorage
	}

	return envelope.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w: %v", path, models.ErrStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, models.ErrStorage)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.session})
	}
	return req, nil
}

// statusError maps a non-success HTTP status onto the error taxonomy.
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return models.ErrUnauthorized
	case http.StatusBadRequest:
		return models.ErrInvalidInput
	case http.StatusNotFound:
		return models.ErrNotFound
	default:
		return fmt.Errorf("http %d: %w", code, models.ErrStorage)
	}
}
