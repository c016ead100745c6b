package backend

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
	"unicode/utf8"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/telemetry"
)

const (
	defaultTimeout          = 15 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	maxResponseBytes        = 8 << 20
	maxDetailLen            = 512
	breakerName             = "crawler-backend"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS <= 0 disables outbound rate limiting.
	RPS   float64
	Burst int
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
	Metrics          *metrics.Metrics
}

// Client talks to the crawler/analysis backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*response]
	metrics *metrics.Metrics
}

type response struct {
	status int
	body   []byte
}

// New builds a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}

	m := opts.Metrics
	m.SetBreakerState(breakerName, float64(gobreaker.StateClosed))

	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Warn("backend.breaker", map[string]any{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
			m.SetBreakerState(name, float64(to))
		},
	})

	return &Client{
		baseURL: base,
		http:    httpClient,
		limiter: limiter,
		breaker: breaker,
		metrics: m,
	}, nil
}

// do issues one request. Non-2xx answers come back as *APIError together
// with the response so callers can decide how lenient to be.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) (*response, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.ObserveBackend(op, metrics.OutcomeRejected, time.Since(start))
		return nil, fmt.Errorf("backend %s: wait for rate limiter: %w", op, err)
	}

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("backend %s: encode body: %w", op, err)
		}
		body = encoded
	}

	target := c.endpoint(path, query)
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, op, method, target, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.ObserveBackend(op, metrics.OutcomeRejected, time.Since(start))
			return nil, fmt.Errorf("backend %s: %w", op, ErrBackendUnavailable)
		}
		c.metrics.ObserveBackend(op, metrics.OutcomeFailure, time.Since(start))
		telemetry.Warn("backend.request_failed", map[string]any{
			"operation": op,
			"error":     err.Error(),
		})
		return resp, err
	}

	if resp.status < 200 || resp.status >= 300 {
		c.metrics.ObserveBackend(op, metrics.OutcomeInvalid, time.Since(start))
		return resp, &APIError{Op: op, Status: resp.status, Detail: extractDetail(resp.body)}
	}
	c.metrics.ObserveBackend(op, metrics.OutcomeSuccess, time.Since(start))
	return resp, nil
}

// roundTrip performs the HTTP exchange. Transport errors and 5xx answers are
// returned as errors so the breaker counts them; 4xx answers are not.
func (c *Client) roundTrip(ctx context.Context, op, method, target string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("backend %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", op, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("backend %s: read body: %w", op, err)
	}
	resp := &response{status: httpResp.StatusCode, body: data}
	if httpResp.StatusCode >= 500 {
		return resp, &APIError{Op: op, Status: httpResp.StatusCode, Detail: extractDetail(data)}
	}
	return resp, nil
}

// endpoint joins an already-escaped path onto the base URL.
func (c *Client) endpoint(escapedPath string, query url.Values) string {
	u := *c.baseURL
	full := strings.TrimRight(c.baseURL.EscapedPath(), "/") + escapedPath
	if unescaped, err := url.PathUnescape(full); err == nil {
		u.Path = unescaped
		u.RawPath = full
	} else {
		u.Path = full
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// extractDetail pulls a human-readable message out of an error body.
func extractDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil {
		if len(envelope.Detail) > 0 && string(envelope.Detail) != "null" {
			var text string
			if json.Unmarshal(envelope.Detail, &text) == nil {
				return text
			}
			return truncate(string(envelope.Detail))
		}
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return truncate(string(trimmed))
}

// truncate cuts s to at most maxDetailLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxDetailLen {
		return s
	}
	cut := maxDetailLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// rawJSON returns the body for pass-through, substituting {} for an empty body.
func rawJSON(op string, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("backend %s: response is not JSON", op)
	}
	return json.RawMessage(trimmed), nil
}

// decodeList accepts a bare array or an object wrapping the array under one of keys.
func decodeList[T any](op string, body []byte, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("backend %s: decode list: %w", op, err)
		}
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("backend %s: decode list: %w", op, err)
	}
	for _, key := range keys {
		raw, ok := wrapped[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("backend %s: decode %s: %w", op, key, err)
		}
		return items, nil
	}
	return []T{}, nil
}
