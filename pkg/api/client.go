// Package api is the typed client for the DataViz Pro HTTP API. It owns
// request encoding, bearer-credential attachment, error-message extraction
// and the global 401 side effect; all data semantics live on the server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dataviz-pro/vizx/pkg/query"
	"github.com/dataviz-pro/vizx/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sessions is the credential state the client reads on every request and
// clears when the server rejects it. Implemented by session.Manager.
type Sessions interface {
	Token() (string, bool)
	Clear() error
}

// Client issues authenticated requests against a single API base URL.
// Every operation makes exactly one attempt; retries are a caller policy.
type Client struct {
	baseURL        string
	client         *http.Client
	sessions       Sessions
	logger         *zap.Logger
	onUnauthorized func()
}

// Opts is the set of options for a new Client.
type Opts struct {
	BaseURL  string
	Timeout  time.Duration
	Sessions Sessions
	Logger   *zap.Logger
	// OnUnauthorized runs after a rejected credential has been cleared;
	// the display layer uses it to route back to the sign-in view.
	OnUnauthorized func()
	HTTPClient     *http.Client
}

// New creates a new Client with the given options.
func New(o Opts) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:        o.BaseURL,
		client:         client,
		sessions:       o.Sessions,
		logger:         logger,
		onUnauthorized: o.OnUnauthorized,
	}
}

// do sends one request and decodes a 2xx JSON response into out. fallback
// is the operation's human-readable failure message. authCall marks the
// login/register endpoints, whose 401 means bad credentials rather than an
// expired session and must not clear state.
func (c *Client) do(ctx context.Context, method, path string, payload, out any, fallback string, authCall bool) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", fallback, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out, fallback, authCall)
}

// send finishes a prepared request: attaches the bearer credential and a
// request ID, executes the single attempt and maps the response.
func (c *Client) send(req *http.Request, out any, fallback string, authCall bool) error {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.sessions != nil {
		if token, ok := c.sessions.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("%s: %w", fallback, err)
	}

	raw, readErr := io.ReadAll(resp.Body)
	if cerr := utils.DrainAndClose(resp.Body); cerr != nil && readErr == nil {
		readErr = cerr
	}
	if readErr != nil {
		return fmt.Errorf("%s: read response: %w", fallback, readErr)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !authCall:
		c.expireSession(req, requestID)
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		if detail := serverDetail(raw); detail != "" {
			return fmt.Errorf("%s: %w", detail, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", fallback, ErrNotFound)
	case resp.StatusCode >= 300:
		c.logger.Warn("Request rejected",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return opError(fallback, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", fallback, err)
		}
	}
	return nil
}

// expireSession handles the global 401 side effect: clear the persisted
// credential and hand control to the unauthorized hook.
func (c *Client) expireSession(req *http.Request, requestID string) {
	c.logger.Info("Session rejected by server, signing out",
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID))
	if c.sessions != nil {
		if err := c.sessions.Clear(); err != nil {
			c.logger.Warn("Unable to clear session state", zap.Error(err))
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// Health probes the API root health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, healthPath, nil, &out, "Failed to reach the API", false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (*AuthToken, error) {
	var out AuthToken
	if err := c.do(ctx, http.MethodPost, registerPath, r, &out, "Registration failed", true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a session token. A 401 here is an
// authentication failure reported to the caller, not a session expiry.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	var out AuthToken
	payload := loginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, loginPath, payload, &out, "Login failed", true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile behind the current credential.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, mePath, nil, &out, "Failed to load your profile", false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDatasets returns the datasets visible to the current user, newest
// first.
func (c *Client) ListDatasets(ctx context.Context) ([]DatasetSummary, error) {
	var out []DatasetSummary
	if err := c.do(ctx, http.MethodGet, datasetsPath, nil, &out, "Failed to load datasets", false); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the column-level summary of one dataset.
func (c *Client) Stats(ctx context.Context, datasetID string) (*DataStats, error) {
	var out DataStats
	if err := c.do(ctx, http.MethodGet, datasetStatsPath(datasetID), nil, &out, "Failed to load dataset statistics", false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Insights returns the server-generated insights for one dataset.
func (c *Client) Insights(ctx context.Context, datasetID string) (*DatasetInsights, error) {
	var out DatasetInsights
	if err := c.do(ctx, http.MethodGet, datasetInsightsPath(datasetID), nil, &out, "Failed to load dataset insights", false); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPage returns one page of dataset rows for the given view state.
func (c *Client) FetchPage(ctx context.Context, datasetID string, q query.Query) (*PageResult, error) {
	var out PageResult
	if err := c.do(ctx, http.MethodPost, datasetDataPath(datasetID), q, &out, "Failed to load data", false); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchChart asks the server to aggregate a chart series for the given
// configuration.
func (c *Client) FetchChart(ctx context.Context, datasetID string, cfg ChartConfig) (*ChartData, error) {
	var out ChartData
	if err := c.do(ctx, http.MethodPost, datasetChartPath(datasetID), cfg, &out, "Failed to generate chart", false); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDataset removes a dataset. The server enforces ownership; the
// display layer additionally consults DatasetSummary.CanDelete.
func (c *Client) DeleteDataset(ctx context.Context, datasetID string) error {
	return c.do(ctx, http.MethodDelete, datasetPath(datasetID), nil, nil, "Failed to delete dataset", false)
}
