package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:      "midnight UTC",
			now:       time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC),
			wantStart: "2024-10-09T00:00:00",
			wantEnd:   "2024-10-21T00:00:00",
		},
		{
			name:      "mid-day truncates to midnight",
			now:       time.Date(2024, 10, 10, 17, 45, 12, 0, time.UTC),
			wantStart: "2024-10-09T00:00:00",
			wantEnd:   "2024-10-21T00:00:00",
		},
		{
			name:      "non-UTC instant anchors on the UTC calendar day",
			now:       time.Date(2024, 10, 10, 1, 0, 0, 0, time.FixedZone("behind", -4*3600)),
			wantStart: "2024-10-09T00:00:00",
			wantEnd:   "2024-10-21T00:00:00",
		},
		{
			name:      "month boundary",
			now:       time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC),
			wantStart: "2024-10-31T00:00:00",
			wantEnd:   "2024-11-12T00:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.now)
			assert.Equal(t, tt.wantStart, w.Start.Format(windowTimeLayout))
			assert.Equal(t, tt.wantEnd, w.End.Format(windowTimeLayout))
			assert.Equal(t, 12*24*time.Hour, w.End.Sub(w.Start))
		})
	}
}

func TestBuildAvailabilityRequest(t *testing.T) {
	now := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	staffIDs := []string{"staff-a", "staff-b"}

	req := BuildAvailabilityRequest(now, "service-1", staffIDs)

	assert.Equal(t, "service-1", req.ServiceID)
	assert.Equal(t, staffIDs, req.StaffIDs)

	require.Equal(t, "2024-10-09T00:00:00", req.StartDateTime.DateTime)
	require.Equal(t, "2024-10-21T00:00:00", req.EndDateTime.DateTime)

	// The window labels carry the upstream API's own zone, not the display
	// timezone.
	assert.Equal(t, "Pacific Standard Time", req.StartDateTime.TimeZone)
	assert.Equal(t, "Pacific Standard Time", req.EndDateTime.TimeZone)
}

func TestBuildAvailabilityRequestTracksNow(t *testing.T) {
	staffIDs := []string{"staff-a"}

	first := BuildAvailabilityRequest(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC), "s", staffIDs)
	second := BuildAvailabilityRequest(time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC), "s", staffIDs)

	assert.NotEqual(t, first.StartDateTime.DateTime, second.StartDateTime.DateTime)
	assert.Equal(t, "2024-10-10T00:00:00", second.StartDateTime.DateTime)
}
