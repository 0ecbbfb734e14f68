package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApplicationTransitions counts lifecycle transitions by name and outcome.
	ApplicationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_application_transitions_total",
		Help: "Total number of application lifecycle transitions",
	}, []string{"transition", "outcome"})

	// AutoDeclineCascadeSize records how many sibling applications each
	// approval auto-declined.
	AutoDeclineCascadeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tutorhub_auto_decline_cascade_size",
		Help:    "Number of pending applications auto-declined per approval",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// NotificationPublishes counts admin notification publishes by type.
	NotificationPublishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_notification_publishes_total",
		Help: "Total number of admin notifications published",
	}, []string{"type"})
)

// WebSocketDrops counts admin-feed messages dropped due to backpressure.
var WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tutorhub_websocket_drops_total",
	Help: "Total number of WebSocket messages dropped due to backpressure",
}, []string{"reason"})

// RecordTransition increments the transition counter for the given outcome.
func RecordTransition(transition string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ApplicationTransitions.WithLabelValues(transition, outcome).Inc()
}
