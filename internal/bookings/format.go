package bookings

import (
	"fmt"
	"strings"
	"time"
)

const (
	slotStartLayout = "Jan 02 3:04PM"
	slotEndLayout   = "3:04PM"
)

// parseStamp accepts the timestamp shapes the Bookings API emits: RFC 3339
// with an offset, or the offset-less form which is in UTC.
func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(windowTimeLayout, s)
}

// FormatSlots renders slots in the display timezone, one per line, as
// "Oct 22 11:00AM - 11:30AM" (the end time omits the date). Slots reaching
// this point already passed validation, so a parse failure here means the
// caller handed in a slot the parser never approved.
func FormatSlots(slots []Slot, loc *time.Location) (string, error) {
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		start, err := parseStamp(s.Start)
		if err != nil {
			return "", fmt.Errorf("parse slot start %q: %w", s.Start, err)
		}
		end, err := parseStamp(s.End)
		if err != nil {
			return "", fmt.Errorf("parse slot end %q: %w", s.End, err)
		}
		lines = append(lines, start.In(loc).Format(slotStartLayout)+" - "+end.In(loc).Format(slotEndLayout))
	}
	return strings.Join(lines, "\n"), nil
}
