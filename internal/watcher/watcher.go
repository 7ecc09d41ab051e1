// Package watcher runs the poll loop: one session handshake and one
// availability query per cycle, a notification fan-out when slots appear,
// and a flat-interval sleep regardless of outcome.
package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dgrant/outlook-calendar-availability-checker/internal/bookings"
	"github.com/dgrant/outlook-calendar-availability-checker/internal/metrics"
	"github.com/dgrant/outlook-calendar-availability-checker/internal/notify"
)

// BookingsAPI is the slice of the bookings client the watcher needs.
type BookingsAPI interface {
	CheckSession(ctx context.Context) error
	GetStaffAvailability(ctx context.Context, req bookings.AvailabilityRequest) (*bookings.AvailabilityResponse, error)
	BookingPageURL() string
}

// Settings are the immutable per-run parameters of the poll loop.
type Settings struct {
	ServiceID  string
	StaffIDs   []string
	Recipients []string
	Location   *time.Location
	Interval   time.Duration
	TestMode   bool
}

// Watcher polls for newly opened slots and notifies recipients.
type Watcher struct {
	api      BookingsAPI
	notifier notify.Notifier
	settings Settings
	logger   *zerolog.Logger
	now      func() time.Time
}

// New creates a watcher. Settings are not mutated after this point.
func New(api BookingsAPI, notifier notify.Notifier, settings Settings, logger *zerolog.Logger) *Watcher {
	return &Watcher{
		api:      api,
		notifier: notifier,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled. Cycles are strictly sequential; every
// cycle ends in the same flat-interval sleep no matter which branch it took.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info().
		Dur("interval", w.settings.Interval).
		Bool("test_mode", w.settings.TestMode).
		Msg("watcher started")

	for {
		cycleID := uuid.New().String()
		l := w.logger.With().Str("cycle_id", cycleID).Logger()
		w.runCycle(l.WithContext(ctx))

		l.Info().Dur("interval", w.settings.Interval).Msg("waiting before next check")
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("watcher stopped")
			return
		case <-time.After(w.settings.Interval):
		}
	}
}

// runCycle walks one pass of the state machine: session GET, availability
// POST, parse, then notify when slots turned up. Every failure is recovered
// here; nothing propagates past the cycle.
func (w *Watcher) runCycle(ctx context.Context) {
	l := zerolog.Ctx(ctx)

	slots, err := w.fetchSlots(ctx)
	if err != nil {
		l.Error().Err(err).Msg("cycle failed")
		metrics.IncPollCycle(cycleResult(err))
		return
	}

	if len(slots) == 0 {
		l.Info().Msg("no available slots found")
		metrics.IncPollCycle("empty")
		return
	}

	formatted, err := bookings.FormatSlots(slots, w.settings.Location)
	if err != nil {
		// Parser-approved slots always format; this branch means a bug
		// upstream of the formatter.
		l.Error().Err(err).Msg("slot formatting failed")
		metrics.IncPollCycle("format_error")
		return
	}

	l.Info().Int("slots", len(slots)).Msg("available slots found")
	metrics.AddSlotsFound(len(slots))

	message := fmt.Sprintf("Booking Slots Available!\n\n%s\n\nGo to: %s", formatted, w.api.BookingPageURL())
	w.notifyAll(ctx, message)
	metrics.IncPollCycle("notified")
}

// fetchSlots performs the GET then POST and extracts slots. In test mode it
// skips both calls and returns the fixture slot.
func (w *Watcher) fetchSlots(ctx context.Context) ([]bookings.Slot, error) {
	l := zerolog.Ctx(ctx)

	if w.settings.TestMode {
		l.Info().Msg("test mode: using fixture slot")
		return bookings.FixtureSlots(), nil
	}

	if err := w.api.CheckSession(ctx); err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	l.Debug().Msg("session request successful, querying availability")

	req := bookings.BuildAvailabilityRequest(w.now(), w.settings.ServiceID, w.settings.StaffIDs)
	resp, err := w.api.GetStaffAvailability(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("availability request: %w", err)
	}

	return bookings.ExtractSlots(resp)
}

// notifyAll fans the message out to every configured recipient. A failed
// send is logged and counted; the remaining recipients still get theirs.
func (w *Watcher) notifyAll(ctx context.Context, message string) {
	l := zerolog.Ctx(ctx)

	sent, failed := 0, 0
	for _, recipient := range w.settings.Recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" {
			continue
		}

		sid, err := w.notifier.Send(ctx, recipient, message)
		if err != nil {
			failed++
			metrics.IncNotificationFailure()
			l.Error().Err(err).Str("recipient", recipient).Msg("notification send failed")
			continue
		}

		sent++
		metrics.IncNotificationSent()
		l.Debug().Str("recipient", recipient).Str("message_sid", sid).Msg("notification sent")
	}

	if sent == 0 && failed == 0 {
		l.Error().Msg("no recipients specified for notifications")
		return
	}
	l.Info().Int("sent", sent).Int("failed", failed).Msg("notification fan-out complete")
}

func cycleResult(err error) string {
	if bookings.IsValidationError(err) {
		return "validation_error"
	}
	if _, ok := bookings.IsStatusError(err); ok {
		return "upstream_status"
	}
	return "transport_error"
}
