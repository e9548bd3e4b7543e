package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackrun",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Number of successful service launches.",
		}, []string{"name"},
	)
	serviceExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackrun",
			Subsystem: "supervisor",
			Name:      "unexpected_exits_total",
			Help:      "Number of services that exited outside the shutdown protocol.",
		}, []string{"name"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackrun",
			Subsystem: "supervisor",
			Name:      "stops_total",
			Help:      "Number of services stopped by the shutdown protocol.",
		}, []string{"name"},
	)
	reclaimedListeners = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stackrun",
			Subsystem: "supervisor",
			Name:      "reclaimed_listeners_total",
			Help:      "Number of stale listeners terminated during port reclamation.",
		},
	)
	runningServices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stackrun",
			Subsystem: "supervisor",
			Name:      "running_services",
			Help:      "Current number of registered services.",
		},
	)
	shutdownEscalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stackrun",
			Subsystem: "supervisor",
			Name:      "shutdown_escalations_total",
			Help:      "Number of services force-killed after the shutdown timeout.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceExits, serviceStops,
		reclaimedListeners, runningServices, shutdownEscalations,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncStart(name string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(name).Inc()
	}
}

func IncUnexpectedExit(name string) {
	if regOK.Load() {
		serviceExits.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(name).Inc()
	}
}

func AddReclaimed(n int) {
	if regOK.Load() && n > 0 {
		reclaimedListeners.Add(float64(n))
	}
}

func SetRunning(n int) {
	if regOK.Load() {
		runningServices.Set(float64(n))
	}
}

func IncEscalation() {
	if regOK.Load() {
		shutdownEscalations.Inc()
	}
}
