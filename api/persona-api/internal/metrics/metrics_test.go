package internal_metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveUpstream("create_voice", time.Now(), errors.New("boom"))
	m.ObserveUpstream("create_voice", time.Now(), nil)
	m.TaskRetried("upload_answer")
	m.TaskFinished("upload_answer", "done")
	m.RecordingFinalized("max_duration", 30)
	m.HTTPRequest("GET", "/v1/persona", 404)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamFailures.WithLabelValues("create_voice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskRetries.WithLabelValues("upload_answer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskOutcomes.WithLabelValues("upload_answer", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordings.WithLabelValues("max_duration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/v1/persona", "4xx")))
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)

	second.TaskFinished("fetch_transcript", "failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.taskOutcomes.WithLabelValues("fetch_transcript", "failed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("tts", time.Now(), nil)
		m.TaskRetried("x")
		m.TaskFinished("x", "done")
		m.RecordingFinalized("stop", 3)
		m.HTTPRequest("GET", "/", 200)
	})
}
