package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is an HTTP response outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
}

type ClientConfig struct {
	Timeout        time.Duration
	Threshold      int
	BreakerTimeout time.Duration

	// HTTPClient overrides the default transport, mostly for tests.
	HTTPClient HTTPClient
}

// result carries a response through the breaker. Client errors are
// returned as results so that they do not trip it.
type result struct {
	status int
	body   []byte
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	threshold := uint32(config.Threshold)
	if threshold == 0 {
		threshold = 3
	}

	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Abandoned requests say nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

// Get issues exactly one GET request. Non-2xx responses come back as a
// *StatusError wrapped in models.ErrUpstream; transport failures and an open
// breaker are wrapped in models.ErrUpstream as well.
func (c *BaseClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	out, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.do(ctx, rawURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Request rejected by circuit breaker", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	res := out.(*result)
	if res.status < 200 || res.status >= 300 {
		return nil, fmt.Errorf("%w: %w", models.ErrUpstream, &StatusError{StatusCode: res.status})
	}
	return res.body, nil
}

func (c *BaseClient) do(ctx context.Context, rawURL string) (*result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = stripURL(err)
		c.logger.Warn("HTTP request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response failed: %w", err)
	}

	c.logger.Debug("Request completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_size", len(body)))

	return &result{status: resp.StatusCode, body: body}, nil
}

// stripURL drops the request URL from transport errors. The query carries
// the API key, so it must not reach logs or responses.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s request failed: %w", ue.Op, ue.Err)
	}
	return err
}

// statusCode extracts the HTTP status from an error returned by Get.
func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
