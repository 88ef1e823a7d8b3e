package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursehub_notifications_emitted_total",
		Help: "Notifications persisted and handed to the registry",
	}, []string{"target"})

	metricEmitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursehub_notifications_emit_failures_total",
		Help: "Notifications that failed to persist",
	})
)
