package carriers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/metrics"
	"shipping-charge-service/internal/models"
)

// statusError is a non 2xx carrier response
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// apiClient is the HTTP transport shared by the carrier facades
type apiClient struct {
	carrier     models.APIType
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxRetries  uint64
	newBackOff  func() backoff.BackOff
	username    string
	password    string
	logger      *logrus.Entry
}

func newAPIClient(carrier models.APIType, endpoint config.CarrierEndpoint, logger *logrus.Entry) *apiClient {
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Limit(endpoint.RateLimit)
	if endpoint.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &apiClient{
		carrier:     carrier,
		baseURL:     strings.TrimRight(endpoint.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(limit, 1),
		maxRetries:  endpoint.MaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
		logger: logger,
	}
}

// do sends one request and returns the response body. Only idempotent
// requests are retried, and only on transport failures or 5xx answers.
func (c *apiClient) do(ctx context.Context, operation, method, path string, params url.Values, body interface{}, idempotent bool) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if !idempotent || c.maxRetries == 0 {
		return c.send(ctx, operation, method, path, params, payload)
	}

	var result []byte
	attempt := func() error {
		respBody, err := c.send(ctx, operation, method, path, params, payload)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}
		result = respBody
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"wait":      wait.String(),
		}).Warn("Retrying carrier request")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *apiClient) send(ctx context.Context, operation, method, path string, params url.Values, payload []byte) (respBody []byte, err error) {
	started := time.Now()
	defer func() { metrics.ObserveCarrierCall(string(c.carrier), operation, started, err) }()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"operation": operation,
		"status":    resp.StatusCode,
		"duration":  time.Since(started).String(),
	}).Debug("Carrier API call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
