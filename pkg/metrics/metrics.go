// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package metrics wraps a private prometheus registry with the handful
// of collectors the wipe service exposes locally: one gauge, three
// counters, and a duration histogram. Nothing in the engine or
// coordinator imports prometheus directly — they call through Metrics
// instead, so a nil *Metrics (metrics disabled) is always safe to call.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "diskwiper"

// Metrics bundles every collector this service registers. A nil
// *Metrics is valid: every method below tolerates it as a no-op, so
// construction can be skipped entirely when metrics are disabled in
// configuration.
type Metrics struct {
	registry *prometheus.Registry

	activeWipes    prometheus.Gauge
	bytesWritten   prometheus.Counter
	wipesCompleted prometheus.Counter
	wipesFailed    prometheus.Counter
	wipeDuration   prometheus.Histogram
}

// New constructs a Metrics bound to a fresh, private registry — not the
// default global one, so this service's metrics never collide with
// anything else sharing the process.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		activeWipes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_wipes",
			Help:      "Number of wipe jobs currently running.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Total bytes written by all wipe passes.",
		}),
		wipesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wipes_completed_total",
			Help:      "Total wipes that reached the completed state.",
		}),
		wipesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wipes_failed_total",
			Help:      "Total wipes that reached the failed state.",
		}),
		wipeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wipe_duration_seconds",
			Help:      "Wall-clock duration of completed or failed wipes.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1s .. 32768s (~9h)
		}),
	}

	reg.MustRegister(m.activeWipes, m.bytesWritten, m.wipesCompleted, m.wipesFailed, m.wipeDuration)
	return m
}

// Handler returns an http.Handler serving this registry in the
// Prometheus exposition format, for `serve` to mount locally.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) WipeStarted() {
	if m == nil {
		return
	}
	m.activeWipes.Inc()
}

func (m *Metrics) WipeEnded(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.activeWipes.Dec()
	m.wipeDuration.Observe(durationSeconds)
	switch status {
	case "completed":
		m.wipesCompleted.Inc()
	case "failed":
		m.wipesFailed.Inc()
	}
}

func (m *Metrics) BytesWritten(n uint64) {
	if m == nil {
		return
	}
	m.bytesWritten.Add(float64(n))
}
