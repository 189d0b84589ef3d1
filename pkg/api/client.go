// Package api provides the catalog API gateway: login and authenticated,
// paginated product listing over HTTP, with typed error classification.
package api

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/nutriview/catalog-client/pkg/credentials"
	"github.com/nutriview/catalog-client/pkg/logging"
)

// Prometheus metrics for catalog API operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	catalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog API errors by kind",
	}, []string{"kind"})
)

const (
	loginEndpoint = "/auth/login/"
	listEndpoint  = "/products"

	// DefaultBaseURL is a fallback for local development only. Deployments
	// must supply the API base URL explicitly.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultPageSize is the pagination window used when none is given.
	DefaultPageSize = 20
)

// Client is the catalog API gateway. It attaches the stored bearer token to
// listing requests and classifies every failure, but never mutates the
// credential store on a rejection — that policy belongs to the caller.
type Client struct {
	httpClient  *http.Client
	credentials credentials.Store
	config      Config
	retry       RetryConfig
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog API, without trailing slash.
	BaseURL string

	// Credentials is the bearer token store.
	Credentials credentials.Store

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds each HTTP request. No operation may hang indefinitely.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(creds credentials.Store, baseURL string) Config {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Config{
		BaseURL:        baseURL,
		Credentials:    creds,
		UserAgent:      "catalog-client/0.1.0",
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 250 * time.Millisecond,
	}
}

// New creates a new catalog API client.
func New(cfg Config) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		credentials: cfg.Credentials,
		config:      cfg,
		retry:       retry,
		logger:      logging.NewLogger("catalog-api"),
	}, nil
}

// Login authenticates with the catalog API and stores the issued bearer
// token on success. Bad credentials or a response lacking a token fail with
// an unauthorized APIError.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(loginEndpoint).Observe(time.Since(startTime).Seconds())
	}()

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.classifyTransportError(loginEndpoint, err)
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(loginEndpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized {
		catalogErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
		c.logger.Warn().Str("endpoint", loginEndpoint).Str("username", username).Msg("Login rejected")
		return "", unauthorized(resp.StatusCode, "bad credentials", nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		catalogErrorsTotal.WithLabelValues(string(KindRequestFailed)).Inc()
		return "", requestFailed(resp.StatusCode, resp.Status, nil, false)
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		catalogErrorsTotal.WithLabelValues(string(KindRequestFailed)).Inc()
		return "", requestFailed(resp.StatusCode, "malformed login response", err, false)
	}

	if loginResp.AccessToken == "" {
		catalogErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
		return "", unauthorized(resp.StatusCode, "login response missing token", nil)
	}

	if err := c.credentials.Save(ctx, loginResp.AccessToken); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}

	c.logger.Info().Str("username", username).Msg("Login succeeded")
	return loginResp.AccessToken, nil
}

// ListItems fetches one page of products. A missing stored token fails
// immediately with an unauthorized APIError, without a network call. Context
// cancellation surfaces as a cancelled APIError, never as unauthorized or
// request_failed. Transient failures are retried with backoff within this
// one logical fetch.
func (c *Client) ListItems(ctx context.Context, params ListParams) ([]Item, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(listEndpoint).Observe(time.Since(startTime).Seconds())
	}()

	token, err := c.credentials.Read(ctx)
	if err != nil {
		return nil, requestFailed(0, "read credential", err, false)
	}
	if token == "" {
		catalogErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
		c.logger.Debug().Str("endpoint", listEndpoint).Msg("Listing attempted without token")
		return nil, unauthorized(0, ErrNoToken.Error(), ErrNoToken)
	}

	if params.Limit <= 0 {
		params.Limit = DefaultPageSize
	}

	reqURL := c.listURL(params)

	c.logger.Debug().
		Str("endpoint", listEndpoint).
		Str("query", params.Query).
		Int("offset", params.Offset).
		Int("limit", params.Limit).
		Msg("Fetching page")

	var items []Item
	retryErr := retryWithBackoff(ctx, c.retry, listEndpoint, c.logger, func() error {
		items = nil

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return requestFailed(0, "create request", err, false)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		c.setCommonHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return c.classifyTransportError(listEndpoint, err)
		}
		defer resp.Body.Close()

		catalogRequestsTotal.WithLabelValues(listEndpoint, strconv.Itoa(resp.StatusCode)).Inc()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			catalogErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
			c.logger.Warn().Str("endpoint", listEndpoint).Msg("Credential rejected")
			return unauthorized(resp.StatusCode, "credential rejected", nil)

		case resp.StatusCode >= 500:
			catalogErrorsTotal.WithLabelValues(string(KindRequestFailed)).Inc()
			return requestFailed(resp.StatusCode, resp.Status, nil, true)

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			catalogErrorsTotal.WithLabelValues(string(KindRequestFailed)).Inc()
			return requestFailed(resp.StatusCode, resp.Status, nil, false)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.classifyTransportError(listEndpoint, err)
		}

		items, err = decodeItems(body)
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(KindRequestFailed)).Inc()
			return requestFailed(resp.StatusCode, fmt.Sprintf("malformed response body: %v", err), err, false)
		}
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Debug().
		Str("endpoint", listEndpoint).
		Int("returned", len(items)).
		Dur("duration", time.Since(startTime)).
		Msg("Page fetched")

	return items, nil
}

// listURL builds the listing URL. The query param is trimmed and omitted
// when empty.
func (c *Client) listURL(params ListParams) string {
	values := url.Values{}
	if q := strings.TrimSpace(params.Query); q != "" {
		values.Set("q", q)
	}
	values.Set("offset", strconv.Itoa(params.Offset))
	values.Set("limit", strconv.Itoa(params.Limit))
	return c.config.BaseURL + listEndpoint + "?" + values.Encode()
}

func (c *Client) setCommonHeaders(req *http.Request) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
}

// classifyTransportError maps a transport failure onto the error taxonomy.
// Caller cancellation wins over every other classification; timeouts are
// request failures, not silent hangs.
func (c *Client) classifyTransportError(endpoint string, err error) *APIError {
	if errors.Is(err, context.Canceled) {
		catalogErrorsTotal.WithLabelValues(string(KindCancelled)).Inc()
		catalogRequestsTotal.WithLabelValues(endpoint, "cancelled").Inc()
		c.logger.Debug().Str("endpoint", endpoint).Msg("Request cancelled")
		return cancelled(err)
	}

	catalogErrorsTotal.WithLabelValues(string(KindRequestFailed)).Inc()
	catalogRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()

	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Request timed out")
		return requestFailed(0, "request timed out", err, true)
	}

	c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Request failed")
	return requestFailed(0, "network error", err, true)
}

// decodeItems accepts either a bare item array or an object wrapping it in
// an "items" field; the API has shipped both shapes.
func decodeItems(body []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapper struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Items == nil {
		return nil, fmt.Errorf("response is neither an array nor an items object")
	}
	return wrapper.Items, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
