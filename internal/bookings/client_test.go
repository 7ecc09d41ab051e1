package bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps tests quick while still exercising the retry loop.
func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, RetryDelays: []time.Duration{time.Millisecond}}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "clinic@example.com", "token123")
	c.SetRetryConfig(fastRetry())
	return c
}

func TestBookingPageURL(t *testing.T) {
	c := NewClient(DefaultBaseURL, "clinic@example.com", "token123")

	assert.Equal(t, "https://outlook.office365.com/book/clinic@example.com/s/token123", c.BookingPageURL())
}

func TestCheckSession(t *testing.T) {
	var gotPath, gotAgent string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))

	err := c.CheckSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/book/clinic@example.com/s/token123", gotPath)
	assert.Contains(t, gotAgent, "Mozilla/5.0")
}

func TestCheckSessionNon200(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	err := c.CheckSession(context.Background())

	require.Error(t, err)
	se, ok := IsStatusError(err)
	require.True(t, ok, "expected a status error, got %v", err)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestGetStaffAvailability(t *testing.T) {
	var gotQuery, gotContentType string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"staffAvailabilityResponse": [
				{"availabilityItems": [
					{"status": "BOOKINGSAVAILABILITYSTATUS_AVAILABLE",
					 "startDateTime": {"dateTime": "2024-10-12T10:00:00"},
					 "endDateTime": {"dateTime": "2024-10-12T10:30:00"}}
				]}
			]
		}`))
	}))

	req := BuildAvailabilityRequest(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC), "svc", []string{"staff"})
	resp, err := c.GetStaffAvailability(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "app=BookingsC2&n=7", gotQuery)
	assert.Equal(t, "application/json", gotContentType)
	require.Len(t, resp.StaffAvailabilityResponse, 1)
	require.Len(t, resp.StaffAvailabilityResponse[0].AvailabilityItems, 1)
}

func TestGetStaffAvailabilityMalformedBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))

	req := BuildAvailabilityRequest(time.Now(), "svc", []string{"staff"})
	_, err := c.GetStaffAvailability(context.Background(), req)

	require.Error(t, err)
	assert.True(t, IsValidationError(err), "expected a validation error, got %v", err)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := c.CheckSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := c.CheckSession(context.Background())

	require.Error(t, err)
	se, ok := IsStatusError(err)
	require.True(t, ok, "expected a status error, got %v", err)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	// initial attempt plus three retries
	assert.Equal(t, int32(4), calls.Load())
}

func TestConnectionErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening any more

	c := NewClient(srv.URL, "clinic@example.com", "token123")
	c.SetRetryConfig(fastRetry())

	err := c.CheckSession(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 retries")
}

func TestNonRetryableStatusNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	err := c.CheckSession(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	c.SetRetryConfig(RetryConfig{MaxRetries: 3, RetryDelays: []time.Duration{time.Minute}})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := c.CheckSession(ctx)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), context.Canceled.Error()))
}
