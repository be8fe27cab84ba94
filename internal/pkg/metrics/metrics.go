package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CheckInsTotal          prometheus.Counter
	CheckOutsTotal         prometheus.Counter
	NotificationsDelivered prometheus.Counter
	NotificationsDropped   prometheus.Counter
	StreamConnections      prometheus.Gauge
}

// New creates and registers all metrics against the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry so
// multiple instances never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CheckInsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffdesk_attendance_check_ins_total",
			Help: "Total number of successful check-ins",
		}),
		CheckOutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffdesk_attendance_check_outs_total",
			Help: "Total number of successful check-outs",
		}),
		NotificationsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffdesk_notifications_delivered_total",
			Help: "Total number of live notifications pushed to connected clients",
		}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffdesk_notifications_dropped_total",
			Help: "Total number of pushes dropped because the client connection was dead or slow",
		}),
		StreamConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "staffdesk_stream_connections",
			Help: "Number of currently registered event-stream connections",
		}),
	}
}
