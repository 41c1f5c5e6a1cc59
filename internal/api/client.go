package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/feats/ftg/internal/debug"
)

const DefaultTimeout = 30 * time.Second

// Client talks to a Telegram HTTP gateway. The gateway owns the MTProto
// session; this client only speaks JSON over HTTPS to it.
type Client struct {
	BaseURL      string
	SessionToken string
	HTTP         *http.Client
	UserAgent    string
	RetryConfig  RetryConfig
}

// New creates a gateway client for the given base URL and session token.
func New(baseURL, token string) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		SessionToken: token,
		RetryConfig:  DefaultRetryConfig(),
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
	}
}

// apiPath returns the absolute URL for a gateway API path.
func (c *Client) apiPath(path string) string {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	return c.BaseURL + "/api/v1" + path
}

// do performs an HTTP request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, url string, body any, result any) error {
	respBody, _, _, err := c.executeRequest(ctx, method, url, body)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unexpected gateway response format (JSON decode failed): %w", err)
		}
	}
	return nil
}

// executeRequest performs an HTTP request with retry logic.
// It returns the response body, headers, status code, and any error.
func (c *Client) executeRequest(ctx context.Context, method, url string, body any) ([]byte, http.Header, int, error) {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	isIdempotent := method == http.MethodGet || method == http.MethodHead

	var retries429, retries5xx int
	attempt := 0

	for {
		attempt++
		start := time.Now()
		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = strings.NewReader(string(jsonBody))
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to create request: %w", err)
		}

		if c.SessionToken != "" {
			req.Header.Set("X-Session-Token", c.SessionToken)
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			if debug.IsEnabled(ctx) {
				slog.Debug("request failed", "method", method, "url", url, "attempt", attempt, "error", err)
			}
			return nil, nil, 0, fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to read response: %w", err)
		}
		if debug.IsEnabled(ctx) {
			slog.Debug("request complete", "method", method, "url", url, "status", resp.StatusCode, "attempt", attempt, "duration", time.Since(start))
		}

		// 429: back off and retry idempotent requests, honoring Retry-After.
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter, hasRetryAfter := retryAfterDuration(resp.Header)
			baseDelay := c.RetryConfig.RateLimitBaseDelay
			if !isIdempotent || retries429 >= c.RetryConfig.MaxRateLimitRetries {
				if hasRetryAfter {
					return nil, nil, resp.StatusCode, &RateLimitError{RetryAfter: retryAfter}
				}
				return nil, nil, resp.StatusCode, &RateLimitError{RetryAfter: baseDelay}
			}
			delay := retryAfter
			if !hasRetryAfter {
				delay = baseDelay * time.Duration(1<<retries429)
			}
			slog.Info("rate limited, retrying", "delay", delay, "attempt", retries429+1)
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, nil, 0, err
			}
			retries429++
			continue
		}

		// 5xx: retry idempotent requests once, then surface.
		if resp.StatusCode >= 500 {
			if isIdempotent && retries5xx < c.RetryConfig.Max5xxRetries {
				slog.Info("server error, retrying", "status", resp.StatusCode)
				if err := sleepWithContext(ctx, c.RetryConfig.ServerErrorRetryDelay); err != nil {
					return nil, nil, 0, err
				}
				retries5xx++
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return respBody, resp.Header, resp.StatusCode, &AuthError{
				Reason: sanitizeErrorBody(string(respBody)),
			}
		}

		if resp.StatusCode >= 400 {
			return respBody, resp.Header, resp.StatusCode, &APIError{
				StatusCode: resp.StatusCode,
				Body:       sanitizeErrorBody(string(respBody)),
				RequestID:  requestIDFromHeader(resp.Header),
			}
		}

		return respBody, resp.Header, resp.StatusCode, nil
	}
}

// Get performs a GET request against a gateway API path.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, c.apiPath(path), nil, result)
}

// Post performs a POST request against a gateway API path.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPost, c.apiPath(path), body, result)
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	if id := header.Get("X-Request-Id"); id != "" {
		return id
	}
	if id := header.Get("X-Request-ID"); id != "" {
		return id
	}
	return ""
}

// sanitizeErrorBody extracts a safe error message from a gateway response
// without echoing tokens or other payload data back to the terminal.
func sanitizeErrorBody(body string) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &errResp); err != nil {
		return "gateway request failed (response body redacted)"
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return "gateway request failed (response body redacted)"
}

// HealthCheck checks if the gateway is reachable via GET /health.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}
