// Package api is the client for the remote social REST API. Every call
// decodes the {data, meta} envelope explicitly and maps failures onto
// models.AppError codes.
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
	"strings"
	"time"

	"postboard/internal/models"
	"postboard/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const (
	apiKeyHeader    = "X-Noroff-API-Key"
	maxResponseSize = 4 << 20
)

// Client talks to the social API. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client for baseURL, e.g. "https://v2.api.noroff.dev".
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// request describes one API call.
type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	token     string
	body      any
	// fallback is the message used when the error body carries none.
	fallback string
}

func (c *Client) do(ctx context.Context, r request) (env *envelope, err error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	ctx, span := observability.StartClientSpan(ctx, r.operation, r.method, target)
	defer func() { observability.EndSpan(span, err) }()

	var payload io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, models.NewInternalError(fmt.Errorf("encode %s request: %w", r.operation, err))
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("build %s request: %w", r.operation, err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveUpstream(r.operation, 0, start)
		observability.LogUpstreamCall(ctx, r.operation, 0, err)
		return nil, models.NewRequestError(0, r.fallback, err)
	}
	defer resp.Body.Close()

	observability.ObserveUpstream(r.operation, resp.StatusCode, start)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		observability.LogUpstreamCall(ctx, r.operation, resp.StatusCode, err)
		return nil, models.NewRequestError(resp.StatusCode, r.fallback, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := models.NewRequestError(resp.StatusCode, errorMessage(raw, r.fallback), nil)
		observability.LogUpstreamCall(ctx, r.operation, resp.StatusCode, reqErr)
		return nil, reqErr
	}
	observability.LogUpstreamCall(ctx, r.operation, resp.StatusCode, nil)

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	env = &envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, models.NewMalformedResponseError(r.operation, err.Error())
	}
	if isAbsent(env.Data) {
		return nil, models.NewMalformedResponseError(r.operation, "missing data field")
	}
	return env, nil
}

// errorMessage extracts "message" or the first "errors[].message".
func errorMessage(raw []byte, fallback string) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	if body.Message != "" {
		return body.Message
	}
	if len(body.Errors) > 0 && body.Errors[0].Message != "" {
		return body.Errors[0].Message
	}
	return fallback
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeData(operation string, env *envelope, dest any) error {
	if env == nil {
		return models.NewMalformedResponseError(operation, "empty response")
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return models.NewMalformedResponseError(operation, err.Error())
	}
	return nil
}

// IsCanceled reports whether err came from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
