package jaeger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/resilience"
)

// ErrTraceNotFound is returned when the query API has no trace for an ID.
var ErrTraceNotFound = errors.New("trace not found")

// StatusError is a non-2xx answer from the query API.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("query API returned %d", e.Code)
	}
	return fmt.Sprintf("query API returned %d: %s", e.Code, e.Msg)
}

// DefaultLimit caps trace searches when no limit is given.
const DefaultLimit = 20

// Client queries a Jaeger-compatible HTTP API.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
}

// ClientConfig tunes the client.
type ClientConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultClientConfig returns the settings used by NewClient.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:      10 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
	}
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:16686.
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(baseURL, DefaultClientConfig())
}

// NewClientWithConfig creates a client with explicit settings.
func NewClientWithConfig(baseURL string, cfg ClientConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "otel-demo/1.0").
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New("jaeger-query", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{resty: restyClient, breaker: breaker}
}

// Services lists the services that have reported spans.
func (c *Client) Services(ctx context.Context) ([]string, error) {
	var out Response[[]string]
	if err := c.get(ctx, "/api/services", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return out.Data, nil
}

// Traces returns up to limit recent traces containing service.
func (c *Client) Traces(ctx context.Context, service string, limit int) ([]Trace, error) {
	if service == "" {
		return nil, fmt.Errorf("service is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := map[string]string{
		"service": service,
		"limit":   strconv.Itoa(limit),
	}
	var out Response[[]Trace]
	if err := c.get(ctx, "/api/traces", params, &out); err != nil {
		return nil, fmt.Errorf("failed to search traces for %s: %w", service, err)
	}
	return out.Data, nil
}

// Trace fetches a single trace by its hex ID.
func (c *Client) Trace(ctx context.Context, traceID string) (*Trace, error) {
	var out Response[[]Trace]
	if err := c.get(ctx, "/api/traces/"+traceID, nil, &out); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrTraceNotFound, traceID)
		}
		return nil, fmt.Errorf("failed to fetch trace %s: %w", traceID, err)
	}
	if len(out.Data) == 0 {
		return nil, ErrTraceNotFound
	}
	return &out.Data[0], nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	var errBody Response[any]

	return c.breaker.Do(ctx, func(ctx context.Context) error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(result).
			SetError(&errBody).
			Get(path)
		if err != nil {
			return err
		}

		if resp.IsError() {
			statusErr := &StatusError{Code: resp.StatusCode()}
			if len(errBody.Errors) > 0 {
				statusErr.Msg = errBody.Errors[0].Msg
			}
			return statusErr
		}
		return nil
	})
}
