package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/wallhub/wallhub/internal/jobs"
)

func TestJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	// Stats refresh runs hourly and should stay fast and mostly successful.
	for i := 0; i < 30; i++ {
		tracker := metrics.Track("stats:refresh")
		time.Sleep(3 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending tracker: %v", err)
		}
	}

	// Session purges are slower but still well inside the budget.
	for i := 0; i < 10; i++ {
		tracker := metrics.Track("sessions:purge")
		time.Sleep(10 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending tracker: %v", err)
		}
	}

	// Inject failures to confirm they surface in the counters.
	for i := 0; i < 2; i++ {
		tracker := metrics.Track("stats:refresh")
		if err := tracker.End(errors.New("timeout")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "wallhub_job_runs_total", map[string]string{"job": "stats:refresh", "status": "success"})
	failure := metricValue(t, families, "wallhub_job_runs_total", map[string]string{"job": "stats:refresh", "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no stats refresh executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("stats refresh success ratio too low: %f", ratio)
	}

	purgeDuration := histogramMean(t, families, "wallhub_job_duration_seconds", map[string]string{"job": "sessions:purge"})
	if purgeDuration > 2.0 {
		t.Fatalf("session purge duration above budget: %f", purgeDuration)
	}

	refreshDuration := histogramMean(t, families, "wallhub_job_duration_seconds", map[string]string{"job": "stats:refresh"})
	if refreshDuration > 0.5 {
		t.Fatalf("stats refresh duration above budget: %f", refreshDuration)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
