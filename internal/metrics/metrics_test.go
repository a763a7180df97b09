// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDBQuery(t *testing.T) {
	obs := DBQueryDuration.WithLabelValues("increment_views", OutcomeOK)
	before := histogramCount(t, obs)

	RecordDBQuery("increment_views", OutcomeOK, 3*time.Millisecond)
	RecordDBQuery("increment_views", OutcomeOK, 4*time.Millisecond)

	if got := histogramCount(t, obs); got != before+2 {
		t.Errorf("sample count = %d, want %d", got, before+2)
	}
}

func histogramCount(t *testing.T, obs prometheus.Observer) uint64 {
	t.Helper()
	m, ok := obs.(prometheus.Metric)
	if !ok {
		t.Fatal("observer is not a metric")
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatal(err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestRecordViewRecorded(t *testing.T) {
	before := testutil.ToFloat64(ViewsRecorded.WithLabelValues("create"))
	RecordViewRecorded("create")
	if got := testutil.ToFloat64(ViewsRecorded.WithLabelValues("create")); got != before+1 {
		t.Errorf("views_recorded{path=create} = %v, want %v", got, before+1)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("user"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("user"))

	RecordCacheLookup("user", true)
	RecordCacheLookup("user", false)
	RecordCacheLookup("user", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("user")); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("user")); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

func TestRecordEventPublish(t *testing.T) {
	ok := testutil.ToFloat64(EventsPublished.WithLabelValues("t.view.recorded"))
	failed := testutil.ToFloat64(EventsPublishFailed.WithLabelValues("t.view.recorded"))

	RecordEventPublish("t.view.recorded", nil)
	RecordEventPublish("t.view.recorded", errors.New("nats down"))

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("t.view.recorded")); got != ok+1 {
		t.Errorf("published = %v, want %v", got, ok+1)
	}
	if got := testutil.ToFloat64(EventsPublishFailed.WithLabelValues("t.view.recorded")); got != failed+1 {
		t.Errorf("failed = %v, want %v", got, failed+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestMetricLint(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/analytics/{videoId}", "200", time.Millisecond)
	RecordMediaOperation("local", "upload", time.Millisecond, nil)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s: %s", p.Metric, p.Text)
	}
}
