// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "altera"

// Metrics exposes the collectors reported by the persona service. All methods
// are safe on a nil receiver.
type Metrics struct {
	upstreamDuration *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
	taskOutcomes     *prometheus.CounterVec
	taskRetries      *prometheus.CounterVec
	recordings       *prometheus.CounterVec
	recordingSeconds prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

// MustNewMetrics registers the collectors on reg and panics on conflicts other
// than an identical collector already being present.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to the voice service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "failures_total",
			Help:      "Voice service calls that returned an error.",
		}, []string{"operation"}),
		taskOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "tasks_total",
			Help:      "Background tasks by final status.",
		}, []string{"task", "status"}),
		taskRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "task_retries_total",
			Help:      "Background task attempts that were retried.",
		}, []string{"task"}),
		recordings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "recordings_finalized_total",
			Help:      "Recordings finalized, by how the capture ended.",
		}, []string{"reason"}),
		recordingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "recording_duration_seconds",
			Help:      "Elapsed seconds of finalized recordings.",
			Buckets:   []float64{5, 10, 20, 30, 60, 120, 300, 600},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Handled HTTP requests.",
		}, []string{"method", "route", "code"}),
	}

	collectors := []prometheus.Collector{
		m.upstreamDuration, m.upstreamFailures, m.taskOutcomes, m.taskRetries,
		m.recordings, m.recordingSeconds, m.httpRequests,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				collectors[i] = are.ExistingCollector
				continue
			}
			panic(err)
		}
	}
	m.adopt(collectors)
	return m
}

// adopt swaps in collectors that were registered earlier by another instance.
func (m *Metrics) adopt(collectors []prometheus.Collector) {
	m.upstreamDuration = collectors[0].(*prometheus.HistogramVec)
	m.upstreamFailures = collectors[1].(*prometheus.CounterVec)
	m.taskOutcomes = collectors[2].(*prometheus.CounterVec)
	m.taskRetries = collectors[3].(*prometheus.CounterVec)
	m.recordings = collectors[4].(*prometheus.CounterVec)
	m.recordingSeconds = collectors[5].(prometheus.Histogram)
	m.httpRequests = collectors[6].(*prometheus.CounterVec)
}

func (m *Metrics) ObserveUpstream(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.upstreamFailures.WithLabelValues(operation).Inc()
	}
	m.upstreamDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) TaskRetried(task string) {
	if m == nil {
		return
	}
	m.taskRetries.WithLabelValues(task).Inc()
}

func (m *Metrics) TaskFinished(task, status string) {
	if m == nil {
		return
	}
	m.taskOutcomes.WithLabelValues(task, status).Inc()
}

func (m *Metrics) RecordingFinalized(reason string, elapsedSeconds int) {
	if m == nil {
		return
	}
	m.recordings.WithLabelValues(reason).Inc()
	m.recordingSeconds.Observe(float64(elapsedSeconds))
}

func (m *Metrics) HTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusText(code)).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
