package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPError carries a non-2xx provider response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// StatusCode extracts the provider status from err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	limiter        *rate.Limiter
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	Threshold      int
	BreakerTimeout time.Duration
	// RPS <= 0 disables rate limiting.
	RPS   float64
	Burst int
	// HTTPClient overrides the default *http.Client, mainly for tests.
	HTTPClient HTTPClient
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	var httpClient HTTPClient = &http.Client{
		Timeout: config.Timeout,
	}
	if config.HTTPClient != nil {
		httpClient = config.HTTPClient
	}

	threshold := config.Threshold
	if threshold <= 0 {
		threshold = 3
	}

	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(threshold) && failureRatio >= 0.6
		},
		// A client error says nothing about provider health, and neither
		// does a request the caller abandoned.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			code := StatusCode(err)
			return code >= 400 && code < 500 && code != http.StatusTooManyRequests
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	var limiter *rate.Limiter
	if config.RPS > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RPS), burst)
	}

	return &BaseClient{
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		limiter:        limiter,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     config.Multiplier,
	}
}

// Get issues a GET through the rate limiter and circuit breaker.
func (c *BaseClient) Get(ctx context.Context, url string) ([]byte, error) {
	return c.execute(ctx, http.MethodGet, url, nil)
}

// PostJSON marshals payload and POSTs it with a JSON content type.
func (c *BaseClient) PostJSON(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request body failed: %w", err)
	}
	return c.execute(ctx, http.MethodPost, url, body)
}

func (c *BaseClient) execute(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(ctx, method, url, body)
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (c *BaseClient) doWithRetry(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.multiplier, float64(attempt-1)))
			c.logger.Debug("Retrying request",
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("HTTP request failed",
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.logger.Debug("Request successful",
				zap.String("method", method),
				zap.Int("status", resp.StatusCode),
				zap.Int("body_size", len(respBody)))

			return respBody, nil
		}

		lastErr = &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}

		// Don't retry on client errors (4xx) except 429 (rate limiting)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}
