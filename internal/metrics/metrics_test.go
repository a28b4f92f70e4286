package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.PublishAttempt("t", OutcomeSuccess)
	m.PublishExhausted("t")
	m.Job("post.liked", OutcomeSuccess)
	m.Lookup("GetPostInfo", OutcomeNotFound)
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PublishAttempt("user-interaction-events", OutcomeFailure)
	m.PublishAttempt("user-interaction-events", OutcomeFailure)
	m.PublishAttempt("user-interaction-events", OutcomeSuccess)
	m.PublishExhausted("post-lifecycle-events")
	m.Job("post.shared", OutcomeRetry)
	m.Lookup("GetUserProfile", OutcomeNotFound)

	for _, tc := range []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"attempt failures", m.publishAttempts.WithLabelValues("user-interaction-events", OutcomeFailure), 2},
		{"attempt successes", m.publishAttempts.WithLabelValues("user-interaction-events", OutcomeSuccess), 1},
		{"exhausted", m.publishExhausted.WithLabelValues("post-lifecycle-events"), 1},
		{"job retry", m.jobs.WithLabelValues("post.shared", OutcomeRetry), 1},
		{"lookup miss", m.lookups.WithLabelValues("GetUserProfile", OutcomeNotFound), 1},
	} {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n != 5 {
		t.Errorf("GatherAndCount = %d, %v; want 5 series", n, err)
	}
}
