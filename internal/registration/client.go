package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/version"
)

const (
	// DefaultTimeout bounds every request so a hung backend cannot stall the kiosk
	DefaultTimeout = 15 * time.Second

	// RequestIDHeader carries a per-submission id for correlating kiosk and backend logs
	RequestIDHeader = "X-Request-ID"

	// maxResponseSize caps how much of a response body is read
	maxResponseSize = 1 << 20
)

// Backend endpoints
const (
	OwnerPath  = "/api/owner/"
	TenantPath = "/api/tenant/"
	RoomsPath  = "/api/rooms/"
	PingPath   = "/api/"
)

// Client talks to the registration REST backend
type Client struct {
	// BaseURL is the backend root (e.g., "http://127.0.0.1:8000")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request
	UserAgent string
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		UserAgent:  version.UserAgent(),
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Ping checks that the backend is reachable. Any response below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+PingPath, nil)
	if err != nil {
		return NewTransportError("failed to create ping request", PingPath, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewTransportError("backend unreachable", PingPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return NewRejectedError(resp.StatusCode, PingPath, body)
	}
	return nil
}

// Post sends body as JSON to path and decodes a 2xx response into out.
// out may be nil. Exactly one request is made; failures are never retried.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewParseError("failed to encode request body", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewTransportError("failed to create POST request", path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	logging.LogRequest(requestID, http.MethodPost, c.BaseURL+path, len(payload))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		regErr := NewTransportError("POST request failed", path, err)
		logging.LogRequestFailed(requestID, regErr.Type.String(), err)
		return regErr
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	logging.LogResponse(requestID, resp.StatusCode, time.Since(start))
	if err != nil {
		return NewTransportError("failed to read response body", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewRejectedError(resp.StatusCode, path, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return NewParseError("failed to parse response", path, err)
	}
	return nil
}

// CreateOwner registers a boarding-house owner and returns the new id
func (c *Client) CreateOwner(ctx context.Context, owner OwnerRecord) (ID, error) {
	return c.create(ctx, OwnerPath, owner)
}

// CreateTenant registers a boarder and returns the new id
func (c *Client) CreateTenant(ctx context.Context, tenant TenantRecord) (ID, error) {
	return c.create(ctx, TenantPath, tenant)
}

// CreateRooms registers every room of a boarding house in one request
func (c *Client) CreateRooms(ctx context.Context, rooms []RoomRecord) error {
	return c.Post(ctx, RoomsPath, rooms, nil)
}

func (c *Client) create(ctx context.Context, path string, body any) (ID, error) {
	var created Created
	if err := c.Post(ctx, path, body, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, NewParseError("response did not include a record id", path, nil)
	}
	return created.ID, nil
}
