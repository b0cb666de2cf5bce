package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the local API gateway address used when none is configured
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds a single round trip on the default transport
	DefaultTimeout = 30 * time.Second

	bodyPreviewLen = 100
)

// Observer receives one callback per issued request.
// status is 0 when no response was received.
type Observer interface {
	ObserveRequest(method string, status int, duration time.Duration)
}

// Request describes one call to the gateway
type Request struct {
	Endpoint    string
	Method      string
	Body        any // serialized to JSON when non-nil
	Headers     map[string]string
	AccessToken string
}

// Client issues JSON requests against the API gateway.
// Automatically injects:
// - Content-Type: application/json (unless overridden)
// - Authorization: Bearer <token> (when a token is supplied)
// - X-Correlation-ID: <uuid>
//
// There is no retry: a failed attempt is returned to the caller as-is.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver registers a request observer (metrics)
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a client for the gateway at baseURL.
// An empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized gateway base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues GET baseURL+endpoint
func (c *Client) Get(ctx context.Context, endpoint, accessToken string, headers map[string]string) (Result, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodGet, AccessToken: accessToken, Headers: headers})
}

// Post issues POST baseURL+endpoint with body encoded as JSON
func (c *Client) Post(ctx context.Context, endpoint string, body any, accessToken string, headers map[string]string) (Result, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodPost, Body: body, AccessToken: accessToken, Headers: headers})
}

// Put issues PUT baseURL+endpoint with body encoded as JSON
func (c *Client) Put(ctx context.Context, endpoint string, body any, accessToken string, headers map[string]string) (Result, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodPut, Body: body, AccessToken: accessToken, Headers: headers})
}

// Delete issues DELETE baseURL+endpoint
func (c *Client) Delete(ctx context.Context, endpoint, accessToken string, headers map[string]string) (Result, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodDelete, AccessToken: accessToken, Headers: headers})
}

// Do executes a request and interprets the response.
// Errors are APIError (non-2xx), NetworkError (no usable response), or a
// plain error for requests that could not be built.
func (c *Client) Do(ctx context.Context, req Request) (Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	url := c.resolve(req.Endpoint)

	// Generate correlation ID for request tracing
	correlationID := uuid.New().String()

	logger := log.With().
		Str("method", method).
		Str("url", url).
		Str("correlationId", correlationID).
		Logger()

	var (
		payload []byte
		reader  io.Reader
	)
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return Result{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header = BuildHeaders(req.AccessToken, req.Headers)
	if httpReq.Header.Get("X-Correlation-ID") == "" {
		httpReq.Header.Set("X-Correlation-ID", correlationID)
	}

	logger.Debug().
		Str("authorization", redactAuthorization(req.AccessToken)).
		Str("body", preview(payload)).
		Msg("API request")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.observe(method, 0, duration)
		logger.Error().Err(err).Dur("duration", duration).Msg("API request failed")
		return Result{}, NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	c.observe(method, resp.StatusCode, duration)

	result, err := Interpret(resp)
	if err != nil {
		var apiErr APIError
		if errors.As(err, &apiErr) {
			logger.Warn().
				Int("status", apiErr.HTTPStatus).
				Str("body", apiErr.RawBody).
				Dur("duration", duration).
				Msg("API request rejected")
			return Result{}, apiErr
		}
		logger.Error().Err(err).Int("status", resp.StatusCode).Msg("API response unreadable")
		return Result{}, NetworkError{Method: method, URL: url, Err: err}
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Str("kind", result.Kind.String()).
		Dur("duration", duration).
		Msg("API request completed")

	return result, nil
}

func (c *Client) resolve(endpoint string) string {
	if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func (c *Client) observe(method string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, d)
	}
}

func redactAuthorization(token string) string {
	if token == "" {
		return "None"
	}
	return "Bearer [REDACTED]"
}

func preview(payload []byte) string {
	if len(payload) == 0 {
		return "None"
	}
	if len(payload) > bodyPreviewLen {
		return string(payload[:bodyPreviewLen])
	}
	return string(payload)
}
