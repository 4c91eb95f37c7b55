package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gofleet", Name: "trips_created_total", Help: "Trips created, by kind"},
		[]string{"kind"},
	)
	WorkersNotified = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "gofleet", Name: "workers_notified_total", Help: "new-request events emitted to worker channels"},
	)
	AcceptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "gofleet", Name: "accepts_total", Help: "Successful trip assignments"},
	)
	AcceptConflicts = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "gofleet", Name: "accept_conflicts_total", Help: "Accept calls that lost the assignment race"},
	)
	FanoutFailures = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "gofleet", Name: "fanout_failures_total", Help: "Fan-out sends dropped due to stale connections"},
	)
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "gofleet", Name: "connected_clients", Help: "Live websocket connections"},
	)
	SOSActivations = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "gofleet", Name: "sos_activations_total", Help: "SOS escalations"},
	)
)
