// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "prompt-access/internal/common/errors"
	"prompt-access/internal/common/metrics"
)

const defaultUserAgent = "prompt-access/1.0"

type Config struct {
	BaseURL   string
	PublicKey string
	SecretKey string
	UserAgent string
	Timeout   time.Duration
}

// Client sends JSON requests to the prompt management API. It makes exactly
// one attempt per call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	secretKey  string
	userAgent  string
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		publicKey:  cfg.PublicKey,
		secretKey:  cfg.SecretKey,
		userAgent:  cfg.UserAgent,
		tracer:     otel.Tracer("prompt-access/http"),
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs one request. path must start with "/" and already carry any
// escaped segments and query string. A non-nil body is sent as JSON.
//
// On a 2xx response the raw body is returned. Other statuses become a
// *errors.StandardError carrying the status code and body. If ctx ends
// first the returned error wraps ctx.Err().
func (c *Client) Send(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "prompt-api "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	payload, statusClass, err := c.do(ctx, method, path, body)
	metrics.TransportRequestDuration.WithLabelValues(method, statusClass).Observe(time.Since(start).Seconds())

	span.SetAttributes(attribute.String("http.status_class", statusClass))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, statusClass)
		return nil, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "encode_error", apperrors.NewRequestEncodingError(method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, "transport_failure", apperrors.NewTransportFailureError(method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.publicKey != "" || c.secretKey != "" {
		req.SetBasicAuth(c.publicKey, c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "cancelled", fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return nil, "transport_failure", apperrors.NewTransportFailureError(method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "cancelled", fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return nil, "transport_failure", apperrors.NewTransportFailureError(method, path, err)
	}

	statusClass := strconv.Itoa(resp.StatusCode/100) + "xx"
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusClass, apperrors.NewRemoteError(method, path, resp.StatusCode, payload)
	}
	return payload, statusClass, nil
}
