// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/platformbuilds/jitdirectives/internal/noise"
)

// Metrics tracks capture outcomes
type Metrics struct {
	events        atomic.Uint64
	resolved      atomic.Uint64
	notFound      atomic.Uint64
	resolveErrors atomic.Uint64
	filtered      atomic.Uint64
	accepted      atomic.Uint64

	// Prometheus metrics (optional)
	promEvents     prometheus.Counter
	promResolve    *prometheus.CounterVec
	promFiltered   *prometheus.CounterVec
	promAccepted   prometheus.Counter
	promLatency    prometheus.Histogram
	promRegistered bool
}

// Stats is a point-in-time copy of the counters
type Stats struct {
	Events        uint64
	Resolved      uint64
	NotFound      uint64
	ResolveErrors uint64
	Filtered      uint64
	Accepted      uint64
}

// NewMetrics creates a new capture metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Register registers the metrics with reg
func (m *Metrics) Register(reg prometheus.Registerer, namespace string) error {
	if m.promRegistered {
		return nil
	}

	events := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capture_events_total",
		Help:      "Method compilation events received",
	})
	resolve := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capture_resolutions_total",
		Help:      "Symbol resolution outcomes",
	}, []string{"status"})
	filtered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capture_filtered_total",
		Help:      "Methods rejected by the noise filter",
	}, []string{"reason"})
	accepted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capture_accepted_total",
		Help:      "Identities handed to the directory",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "capture_resolution_duration_seconds",
		Help:      "Time spent resolving a method",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 18), // 10µs to ~1.3s
	})

	for _, c := range []prometheus.Collector{events, resolve, filtered, accepted, latency} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	m.promEvents = events
	m.promResolve = resolve
	m.promFiltered = filtered
	m.promAccepted = accepted
	m.promLatency = latency
	m.promRegistered = true
	return nil
}

func (m *Metrics) recordEvent() {
	m.events.Add(1)
	if m.promRegistered {
		m.promEvents.Inc()
	}
}

func (m *Metrics) recordResolution(d time.Duration, err error) {
	status := "ok"
	switch {
	case err == nil:
		m.resolved.Add(1)
	case errors.Is(err, ErrNotFound):
		m.notFound.Add(1)
		status = "not_found"
	default:
		m.resolveErrors.Add(1)
		status = "error"
	}
	if m.promRegistered {
		m.promResolve.WithLabelValues(status).Inc()
		m.promLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) recordFiltered(reason noise.Reason) {
	m.filtered.Add(1)
	if m.promRegistered {
		m.promFiltered.WithLabelValues(string(reason)).Inc()
	}
}

func (m *Metrics) recordAccepted() {
	m.accepted.Add(1)
	if m.promRegistered {
		m.promAccepted.Inc()
	}
}

// Stats returns the current counter values
func (m *Metrics) Stats() Stats {
	return Stats{
		Events:        m.events.Load(),
		Resolved:      m.resolved.Load(),
		NotFound:      m.notFound.Load(),
		ResolveErrors: m.resolveErrors.Load(),
		Filtered:      m.filtered.Load(),
		Accepted:      m.accepted.Load(),
	}
}
