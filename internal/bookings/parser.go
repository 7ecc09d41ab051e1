package bookings

import "errors"

// Availability statuses that are never offered as bookable slots.
const (
	StatusBusy        = "BOOKINGSAVAILABILITYSTATUS_BUSY"
	StatusOutOfOffice = "BOOKINGSAVAILABILITYSTATUS_OUT_OF_OFFICE"
)

// AvailabilityResponse is the body returned by GetStaffAvailability.
type AvailabilityResponse struct {
	StaffAvailabilityResponse []StaffAvailability `json:"staffAvailabilityResponse"`
}

// StaffAvailability holds the availability items for one staff member.
// AvailabilityItems stays nil when the field is absent, which is distinct
// from an empty day ([]).
type StaffAvailability struct {
	AvailabilityItems []AvailabilityItem `json:"availabilityItems"`
}

// AvailabilityItem is one interval with a status tag.
type AvailabilityItem struct {
	Status        string       `json:"status"`
	StartDateTime DateTimeZone `json:"startDateTime"`
	EndDateTime   DateTimeZone `json:"endDateTime"`
}

// Slot is a bookable interval extracted from the response. The timestamps
// are kept as the upstream strings; formatting parses them later.
type Slot struct {
	Start string
	End   string
}

// ValidationError marks a structural violation in the upstream response.
// It fails the whole cycle rather than silently dropping the offending
// staff or item, so a malformed payload never under-reports availability.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "availability response invalid: " + e.Reason
}

// IsValidationError checks if the error is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var excludedStatuses = map[string]struct{}{
	StatusBusy:        {},
	StatusOutOfOffice: {},
}

// ExtractSlots validates the response and returns the bookable slots in
// upstream staff-then-item order. No sorting or merging is done.
func ExtractSlots(resp *AvailabilityResponse) ([]Slot, error) {
	if resp == nil || len(resp.StaffAvailabilityResponse) == 0 {
		return nil, &ValidationError{Reason: "missing staffAvailabilityResponse"}
	}

	var slots []Slot
	for _, staff := range resp.StaffAvailabilityResponse {
		if staff.AvailabilityItems == nil {
			return nil, &ValidationError{Reason: "missing availabilityItems in staff entry"}
		}

		for _, item := range staff.AvailabilityItems {
			if _, excluded := excludedStatuses[item.Status]; excluded {
				continue
			}
			if item.StartDateTime.DateTime == "" || item.EndDateTime.DateTime == "" {
				return nil, &ValidationError{Reason: "availability item missing startDateTime or endDateTime"}
			}
			slots = append(slots, Slot{
				Start: item.StartDateTime.DateTime,
				End:   item.EndDateTime.DateTime,
			})
		}
	}

	return slots, nil
}

// FixtureSlots returns the synthetic slot used to exercise the notification
// path without a live upstream call.
func FixtureSlots() []Slot {
	return []Slot{{Start: "2024-10-22T18:00:00", End: "2024-10-22T18:30:00"}}
}
