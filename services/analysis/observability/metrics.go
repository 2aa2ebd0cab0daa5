// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// analysis service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring assessment
// pipeline operations. Metrics include:
//   - Assessment run counters (by trigger, status)
//   - Collector latency histograms and failure counters (by domain)
//   - Synthesis fallback counters
//   - Active watch-stream gauges
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "warroom"

// Subsystem for pipeline metrics
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for assessment pipeline
// operations.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring collection and
// synthesis performance. Initialize once at startup via InitMetrics().
//
// # Fields
//
//   - RunsTotal: Counter of assessment runs by trigger and status
//   - RunDurationSeconds: Histogram of end-to-end run duration
//   - CollectorDurationSeconds: Histogram of per-domain collection latency
//   - CollectorFailuresTotal: Counter of collector failures by domain and cause
//   - SynthesisFallbacksTotal: Counter of verdicts replaced by the fallback
//   - ActiveWatchStreams: Gauge of currently connected watch clients
//   - KeepAlivesTotal: Counter of keepalive pings sent on watch streams
//   - ClientDisconnectsTotal: Counter of client disconnections
//
// # Thread Safety
//
// All operations are thread-safe.
type PipelineMetrics struct {
	// RunsTotal counts assessment runs by trigger and status.
	// Labels: trigger (analyze, watch), status (success, error)
	RunsTotal *prometheus.CounterVec

	// RunDurationSeconds measures end-to-end assessment run duration.
	// Labels: trigger (analyze, watch)
	RunDurationSeconds *prometheus.HistogramVec

	// CollectorDurationSeconds measures per-domain collection latency.
	// Labels: domain (market, movement, media, imagery, social)
	CollectorDurationSeconds *prometheus.HistogramVec

	// CollectorFailuresTotal counts collector failures by domain and cause.
	// Labels: domain, cause (error, panic, timeout)
	CollectorFailuresTotal *prometheus.CounterVec

	// SynthesisFallbacksTotal counts verdicts replaced by the deterministic
	// fallback because the analyst output could not be parsed.
	SynthesisFallbacksTotal prometheus.Counter

	// ActiveWatchStreams tracks currently connected watch clients.
	ActiveWatchStreams prometheus.Gauge

	// KeepAlivesTotal counts keepalive pings sent on watch streams.
	KeepAlivesTotal prometheus.Counter

	// ClientDisconnectsTotal counts client disconnections during a watch.
	ClientDisconnectsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Outputs
//
//   - *PipelineMetrics: The initialized metrics instance.
//
// # Examples
//
//	func main() {
//	    observability.InitMetrics()
//	    // ... start server ...
//	}
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "runs_total",
				Help:      "Total number of assessment runs by trigger and status",
			},
			[]string{"trigger", "status"},
		),

		RunDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "run_duration_seconds",
				Help:      "End-to-end assessment run duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"trigger"},
		),

		CollectorDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "collector_duration_seconds",
				Help:      "Per-domain signal collection latency in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"domain"},
		),

		CollectorFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "collector_failures_total",
				Help:      "Total collector failures by domain and cause",
			},
			[]string{"domain", "cause"},
		),

		SynthesisFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "synthesis_fallbacks_total",
				Help:      "Total verdicts replaced by the deterministic fallback",
			},
		),

		ActiveWatchStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "active_watch_streams",
				Help:      "Number of currently connected watch clients",
			},
		),

		KeepAlivesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "keepalives_total",
				Help:      "Total keepalive pings sent on watch streams",
			},
		),

		ClientDisconnectsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "client_disconnects_total",
				Help:      "Total client disconnections during a watch",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Failure Causes
// =============================================================================

// FailureCause represents a categorized collector failure for metrics.
type FailureCause string

const (
	// CauseError indicates the collector returned an error.
	CauseError FailureCause = "error"

	// CausePanic indicates the collector panicked and was recovered.
	CausePanic FailureCause = "panic"

	// CauseTimeout indicates the collector exceeded its deadline.
	CauseTimeout FailureCause = "timeout"
)

// =============================================================================
// Triggers
// =============================================================================

// Trigger represents the entry point that started an assessment run.
type Trigger string

const (
	// TriggerAnalyze is a one-shot run started by the analyze endpoint.
	TriggerAnalyze Trigger = "analyze"

	// TriggerWatch is a periodic run started by the watch stream loop.
	TriggerWatch Trigger = "watch"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRun records a completed assessment run.
//
// # Inputs
//
//   - trigger: The entry point that started the run.
//   - duration: Wall-clock duration of the run.
//   - success: Whether the run produced an assessment.
func (m *PipelineMetrics) RecordRun(trigger Trigger, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(string(trigger), status).Inc()
	m.RunDurationSeconds.WithLabelValues(string(trigger)).Observe(duration.Seconds())
}

// RecordCollector records a completed collection attempt for one domain.
//
// # Inputs
//
//   - domain: The signal domain that was collected.
//   - duration: Wall-clock duration of the collection.
func (m *PipelineMetrics) RecordCollector(domain string, duration time.Duration) {
	m.CollectorDurationSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// RecordCollectorFailure records a collector failure.
//
// # Inputs
//
//   - domain: The signal domain that failed.
//   - cause: The failure cause category.
func (m *PipelineMetrics) RecordCollectorFailure(domain string, cause FailureCause) {
	m.CollectorFailuresTotal.WithLabelValues(domain, string(cause)).Inc()
}

// RecordSynthesisFallback records a verdict replaced by the fallback.
func (m *PipelineMetrics) RecordSynthesisFallback() {
	m.SynthesisFallbacksTotal.Inc()
}

// WatchStarted increments the active watch-stream gauge.
func (m *PipelineMetrics) WatchStarted() {
	m.ActiveWatchStreams.Inc()
}

// WatchEnded decrements the active watch-stream gauge.
func (m *PipelineMetrics) WatchEnded() {
	m.ActiveWatchStreams.Dec()
}

// RecordKeepAlive records a keepalive ping sent on a watch stream.
func (m *PipelineMetrics) RecordKeepAlive() {
	m.KeepAlivesTotal.Inc()
}

// RecordClientDisconnect records a client disconnection during a watch.
func (m *PipelineMetrics) RecordClientDisconnect() {
	m.ClientDisconnectsTotal.Inc()
}
