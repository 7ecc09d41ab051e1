package bookings

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
)

// DefaultBaseURL is the public Bookings host.
const DefaultBaseURL = "https://outlook.office365.com"

// The Bookings frontend serves an error page to clients without a browser
// User-Agent, so both calls impersonate one.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.5735.90 Safari/537.36"

// RetryConfig holds the transport-level retry policy. This budget is
// exhausted before the poll loop's flat sleep ever starts; the two are
// deliberately separate.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelays: []time.Duration{
			5 * time.Second,
			10 * time.Second,
			20 * time.Second,
		},
	}
}

// StatusError represents a non-200 response from the Bookings API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsStatusError checks if the error is a StatusError.
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Client is an HTTP client for the two Bookings calls a cycle makes: the
// session handshake GET and the availability POST.
type Client struct {
	baseURL    string
	email      string
	pageToken  string
	httpClient *http.Client
	retry      RetryConfig
}

// NewClient constructs a client for one booking page identity.
func NewClient(baseURL, email, pageToken string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		email:      email,
		pageToken:  pageToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      DefaultRetryConfig(),
	}
}

// SetRetryConfig overrides the transport retry policy.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.retry = cfg
}

// BookingPageURL is the public booking page. The session handshake targets
// it and notification messages link back to it.
func (c *Client) BookingPageURL() string {
	return fmt.Sprintf("%s/book/%s/s/%s", c.baseURL, c.email, c.pageToken)
}

func (c *Client) availabilityURL() string {
	return fmt.Sprintf("%s/BookingsService/api/V1/bookingBusinessesc2/%s/GetStaffAvailability?app=BookingsC2&n=7", c.baseURL, c.email)
}

// CheckSession performs the GET handshake against the booking page. The
// Bookings backend rejects availability queries without it.
func (c *Client) CheckSession(ctx context.Context) error {
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.BookingPageURL(), http.NoBody)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp)
	}
	return nil
}

// GetStaffAvailability posts the availability query and decodes the body.
// A body that fails to decode is a ValidationError so the caller treats it
// like any other malformed response.
func (c *Client) GetStaffAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode availability request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.availabilityURL(), bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var out AvailabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("decode response: %v", err)}
	}
	return &out, nil
}

// doWithRetry retries connection failures and transient 5xx statuses with
// increasing delays before surfacing the failure to the caller.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if retryableStatus(resp.StatusCode) && attempt < c.retry.MaxRetries {
			lastErr = newStatusError(resp)
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", c.retry.MaxRetries, lastErr)
}

func (c *Client) retryDelay(i int) time.Duration {
	if len(c.retry.RetryDelays) == 0 {
		return 0
	}
	if i >= len(c.retry.RetryDelays) {
		i = len(c.retry.RetryDelays) - 1
	}
	return c.retry.RetryDelays[i]
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
