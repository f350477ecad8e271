// Package gateclient is the Go SDK for the appgate version gate service.
// Apps call Check on startup to learn whether their version may still run;
// operator tooling uses the admin methods behind a login token.
package gateclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request. Checks run during app launch, so
// a slow gate server must never hold the launch for long.
const DefaultTimeout = 5 * time.Second

// ErrUnavailable marks answers the server could not give: transport
// failures, 5xx replies and undecodable bodies. Callers are expected to
// fail open on it and let the app run.
var ErrUnavailable = errors.New("version check unavailable")

// Check statuses as they appear on the wire.
const (
	StatusUpToDate    = "up_to_date"
	StatusSoftUpdate  = "soft_update"
	StatusForceUpdate = "force_update"
	StatusMaintenance = "maintenance"
)

// CheckResult is the server's verdict for one platform and version.
type CheckResult struct {
	Status              string `json:"status"`
	LatestVersion       string `json:"latest_version,omitempty"`
	MinimumVersion      string `json:"minimum_version,omitempty"`
	ForceMinimumVersion string `json:"force_minimum_version,omitempty"`
	StoreURL            string `json:"store_url,omitempty"`
	Message             string `json:"message,omitempty"`
	ReleaseNotes        string `json:"release_notes,omitempty"`

	// Unavailable is set by Monitor when the verdict did not come from
	// the server but from the fail-open fallback.
	Unavailable bool `json:"-"`
}

// UpdateRequired reports whether the app must stop and update or wait out
// a maintenance window before continuing.
func (r *CheckResult) UpdateRequired() bool {
	return r.Status == StatusForceUpdate || r.Status == StatusMaintenance
}

// Gate mirrors the server's gate row for the admin API.
type Gate struct {
	ID                  int    `json:"id,omitempty"`
	Platform            string `json:"platform"`
	LatestVersion       string `json:"latest_version"`
	MinimumVersion      string `json:"minimum_version"`
	ForceMinimumVersion string `json:"force_minimum_version"`
	StoreURL            string `json:"store_url"`
	MaintenanceMode     bool   `json:"maintenance_mode"`
	MaintenanceMessage  string `json:"maintenance_message,omitempty"`
	ReleaseNotes        string `json:"release_notes,omitempty"`
}

// Credentials is the token pair returned by Login.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       int    `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

// AuditFinding is one problem the server found in its gate table.
type AuditFinding struct {
	Platform string `json:"platform"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AuditReport is the server's answer to an audit request.
type AuditReport struct {
	CheckedAt time.Time      `json:"checked_at"`
	Gates     int            `json:"gates"`
	Findings  []AuditFinding `json:"findings"`
}

// Worst returns the most severe finding grade, "ok" when the table is
// clean. CLI exit codes are derived from it.
func (r *AuditReport) Worst() string {
	worst := "ok"
	for _, f := range r.Findings {
		if f.Severity == "failure" {
			return "failure"
		}
		if f.Severity == "warning" {
			worst = "warning"
		}
	}
	return worst
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client talks to one appgate server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout overrides DefaultTimeout for every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely, including
// its timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithToken sets the bearer token for the admin methods. The public check
// endpoints do not need one.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type checkRequest struct {
	Platform       string `json:"platform"`
	CurrentVersion string `json:"current_version"`
}

// Check asks the server whether currentVersion may still run on platform.
// Errors wrapping ErrUnavailable mean the server could not answer; any
// other error means it answered and rejected the request itself.
func (c *Client) Check(ctx context.Context, platform, currentVersion string) (*CheckResult, error) {
	req := checkRequest{Platform: platform, CurrentVersion: currentVersion}

	var result CheckResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/version/check", req, &result); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &result, nil
}

// Login exchanges operator credentials for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*Credentials, error) {
	body := map[string]string{"username": username, "password": password}
	var creds Credentials
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ListGates returns every configured gate. Requires a token.
func (c *Client) ListGates(ctx context.Context) ([]Gate, error) {
	var gates []Gate
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/gates", nil, &gates); err != nil {
		return nil, err
	}
	return gates, nil
}

// PutGate creates or replaces the gate for gate.Platform. Requires a token.
func (c *Client) PutGate(ctx context.Context, gate Gate) (*Gate, error) {
	var saved Gate
	path := "/api/admin/gates/" + url.PathEscape(gate.Platform)
	if err := c.doJSON(ctx, http.MethodPut, path, gate, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteGate removes the gate for a platform. Requires a token.
func (c *Client) DeleteGate(ctx context.Context, platform string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/gates/"+url.PathEscape(platform), nil, nil)
}

// Audit asks the server to lint its gate table. Requires a token.
func (c *Client) Audit(ctx context.Context) (*AuditReport, error) {
	var report AuditReport
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/gates/audit", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response. A nil result discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
