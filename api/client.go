package api

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
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the hosted ERP API.
	DefaultBaseURL = "https://errdashboard.onrender.com/api"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 20 * time.Second

	acceptHeader    = "application/json, text/plain, */*"
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// ErrTransport indicates no response was obtained: network failure, timeout, or cancellation.
var ErrTransport = errors.New("transport failure")

// TransportError describes a request that produced no response.
type TransportError struct {
	Path      string
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: POST %s: %v", ErrTransport, e.Path, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// TokenSource supplies the bearer token attached to requests. "" means no header.
type TokenSource interface {
	Token() string
}

// Options configures a [Client].
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *zap.Logger
	UserAgent  string
}

// Client posts JSON requests to the auth API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	logger    *zap.Logger
	userAgent string
	newID     func() string
}

// NewClient creates a [Client]. Zero options fall back to the hosted API and a 20s timeout.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   baseURL,
		http:      httpClient,
		tokens:    opts.Tokens,
		logger:    logger.Named("api"),
		userAgent: opts.UserAgent,
		newID:     func() string { return uuid.NewString() },
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends body as JSON to path and decodes the envelope. Non-2xx statuses are
// returned as a [Response]; only the absence of a response is an error.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = c.newID()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+strings.TrimLeft(path, "/"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set(requestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &TransportError{Path: path, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Path: path, RequestID: requestID, Err: err}
	}

	c.logger.Debug("request completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		Status:    resp.StatusCode,
		Envelope:  decodeEnvelope(raw),
		RequestID: requestID,
	}, nil
}
