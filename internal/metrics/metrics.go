package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	pollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slot_watcher",
			Name:      "poll_cycles_total",
			Help:      "Count of poll cycles by result.",
		},
		[]string{"result"},
	)

	slotsFound = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slot_watcher",
			Name:      "slots_found_total",
			Help:      "Count of bookable slots reported by the upstream API.",
		},
	)

	notificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slot_watcher",
			Name:      "notifications_sent_total",
			Help:      "Count of notifications delivered to recipients.",
		},
	)

	notificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slot_watcher",
			Name:      "notification_failures_total",
			Help:      "Count of per-recipient notification delivery failures.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(pollCycles, slotsFound, notificationsSent, notificationFailures)
	})
}

func IncPollCycle(result string) {
	pollCycles.WithLabelValues(result).Inc()
}

func AddSlotsFound(n int) {
	slotsFound.Add(float64(n))
}

func IncNotificationSent() {
	notificationsSent.Inc()
}

func IncNotificationFailure() {
	notificationFailures.Inc()
}
