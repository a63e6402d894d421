package metrics

import "testing"

func TestCountAndSnapshot(t *testing.T) {
	m := New()
	m.Count(Requests, 1)
	m.Count(Requests, 2)
	m.Count(Errors, 1)

	counts := make(map[string]int64)
	maxes := make(map[string]int64)
	m.Snapshot(counts, maxes)

	if counts[Requests] != 3 {
		t.Errorf("counts[%s] = %d, want 3", Requests, counts[Requests])
	}
	if counts[Errors] != 1 {
		t.Errorf("counts[%s] = %d, want 1", Errors, counts[Errors])
	}
}

func TestSetMax(t *testing.T) {
	m := New()
	m.SetMax(MaxInflight, 3)
	m.SetMax(MaxInflight, 1)
	m.SetMax(MaxInflight, 5)

	maxes := make(map[string]int64)
	m.Snapshot(map[string]int64{}, maxes)
	if maxes[MaxInflight] != 5 {
		t.Errorf("maxes[%s] = %d, want 5", MaxInflight, maxes[MaxInflight])
	}
}

func TestNilMetricsDiscardsSafely(t *testing.T) {
	var m *Metrics
	m.Count(Requests, 1)
	m.SetMax(MaxInflight, 1)
	m.Snapshot(nil, nil)
}
