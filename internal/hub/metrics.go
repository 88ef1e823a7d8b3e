package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coursehub_ws_sessions",
		Help: "Users with a registered WebSocket session",
	})

	metricDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursehub_ws_deliveries_total",
		Help: "Payloads handed to session delivery channels",
	}, []string{"result"})

	metricBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursehub_ws_broadcasts_total",
		Help: "Broadcasts fanned out to all sessions",
	})

	metricReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursehub_ws_sessions_replaced_total",
		Help: "Registrations that replaced an existing session for the same user",
	})
)
