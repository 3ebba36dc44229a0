package uploader

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.taskSubmitted()
	m.taskSubmitted()
	m.transferStarted()
	m.transferStarted()
	m.transferUnwound()
	m.taskCompleted(2 * time.Second)
	m.transferRetried()
	m.taskFailed()
	m.taskCancelled()

	if got := testutil.ToFloat64(m.submitted); got != 2 {
		t.Errorf("submitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.started); got != 2 {
		t.Errorf("started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.active); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.completed); got != 1 {
		t.Errorf("completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.retried); got != 1 {
		t.Errorf("retried = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.failed); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cancelled); got != 1 {
		t.Errorf("cancelled = %v, want 1", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.taskSubmitted()
	m.transferStarted()
	m.transferUnwound()
	m.taskCompleted(time.Second)
	m.taskFailed()
	m.transferRetried()
	m.taskCancelled()
}
