package notifications

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeSent     = "sent"
	outcomeFiltered = "filtered"
	outcomeError    = "error"

	statusOK     = "ok"
	statusFailed = "failed"
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "astrotux",
			Subsystem: "notifications",
			Name:      "events_total",
			Help:      "Events seen by handlers, by outcome (sent, filtered, error)",
		},
		[]string{"handler", "kind", "outcome"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "astrotux",
			Subsystem: "notifications",
			Name:      "queued_deliveries_total",
			Help:      "Deliveries performed by queued handler workers",
		},
		[]string{"handler", "kind", "status"},
	)

	deliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "astrotux",
			Subsystem: "notifications",
			Name:      "queued_delivery_duration_seconds",
			Help:      "Time spent inside the sink for queued deliveries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "astrotux",
			Subsystem: "notifications",
			Name:      "queue_depth",
			Help:      "Messages waiting in a queued handler",
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, deliveriesTotal, deliveryDuration, queueDepth)
}
