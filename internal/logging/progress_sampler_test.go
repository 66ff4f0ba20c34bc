package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		stage   string
		want    bool
	}{
		{0, "select", true},
		{10, "select", false},
		{25, "select", true},
		{30, "select", false},
		{100, "select", true},
		{100, "select", false},
		{5, "finalize", true},
		{-1, "finalize", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.stage); got != step.want {
			t.Fatalf("step %d: ShouldLog(%v, %q) = %v, want %v", i, step.percent, step.stage, got, step.want)
		}
	}

	s.Reset()
	if !s.ShouldLog(10, "finalize") {
		t.Fatal("expected emit after reset")
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "") {
		t.Fatal("nil sampler should always log")
	}
}
