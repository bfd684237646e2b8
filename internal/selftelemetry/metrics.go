// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package selftelemetry exposes the tool's own metrics and health endpoints.
package selftelemetry

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the process-level metrics on a private prometheus registry.
type Registry struct {
	namespace string
	prom      *prometheus.Registry
	ready     atomic.Bool

	Ready         prometheus.Gauge
	BuildInfo     *prometheus.GaugeVec
	ChildExitCode prometheus.Gauge
	Documents     *prometheus.CounterVec
}

// NewRegistry creates a registry with the Go and process collectors installed.
func NewRegistry(namespace string) *Registry {
	if namespace == "" {
		namespace = "jitdirectives"
	}
	r := &Registry{namespace: namespace, prom: prometheus.NewRegistry()}

	r.Ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ready",
		Help:      "Whether capture is running (1) or not (0)",
	})
	r.BuildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"version", "commit"})
	r.ChildExitCode = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "child_exit_code",
		Help:      "Exit code of the observed program, -1 while running",
	})
	r.Documents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_written_total",
		Help:      "Directives documents written, by outcome",
	}, []string{"outcome"})

	r.prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Ready, r.BuildInfo, r.ChildExitCode, r.Documents,
	)
	return r
}

// Namespace is the metric namespace shared with registered components.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Registerer lets other packages add their metrics to this registry.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.prom
}

// Gatherer exposes the registry for tests and handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// SetReady sets the readiness state
func (r *Registry) SetReady(ready bool) {
	r.ready.Store(ready)
	if ready {
		r.Ready.Set(1)
	} else {
		r.Ready.Set(0)
	}
}

// IsReady returns the current readiness state
func (r *Registry) IsReady() bool {
	return r.ready.Load()
}

// InstallHandlers serves /metrics, /healthz and /readyz on mux.
func InstallHandlers(mux *http.ServeMux, r *Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{Registry: r.prom}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if r.IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
}
