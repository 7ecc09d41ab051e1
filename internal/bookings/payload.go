package bookings

import "time"

// windowLabelTimeZone is the zone label the Bookings API expects on the
// request window. It is unrelated to the timezone slots are displayed in.
const windowLabelTimeZone = "Pacific Standard Time"

const (
	windowLeadDays   = 1
	windowSpanDays   = 12
	windowTimeLayout = "2006-01-02T15:04:05"
)

// DateTimeZone is the {dateTime, timeZone} pair the Bookings API uses for
// timestamps in both requests and responses.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

// AvailabilityRequest is the body for POST GetStaffAvailability.
type AvailabilityRequest struct {
	ServiceID     string       `json:"serviceId"`
	StaffIDs      []string     `json:"staffIds"`
	StartDateTime DateTimeZone `json:"startDateTime"`
	EndDateTime   DateTimeZone `json:"endDateTime"`
}

// Window is the rolling date range queried in one cycle.
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeWindow anchors the window at midnight one day before now (UTC),
// spanning twelve days. It must be recomputed every cycle so the window
// follows the wall clock.
func ComputeWindow(now time.Time) Window {
	day := now.UTC().AddDate(0, 0, -windowLeadDays)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 0, windowSpanDays)}
}

// BuildAvailabilityRequest constructs the availability query body for the
// given instant. Pure function of now and the service identity.
func BuildAvailabilityRequest(now time.Time, serviceID string, staffIDs []string) AvailabilityRequest {
	w := ComputeWindow(now)
	return AvailabilityRequest{
		ServiceID: serviceID,
		StaffIDs:  staffIDs,
		StartDateTime: DateTimeZone{
			DateTime: w.Start.Format(windowTimeLayout),
			TimeZone: windowLabelTimeZone,
		},
		EndDateTime: DateTimeZone{
			DateTime: w.End.Format(windowTimeLayout),
			TimeZone: windowLabelTimeZone,
		},
	}
}
