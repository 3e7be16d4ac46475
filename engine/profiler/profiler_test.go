package profiler

import (
	"testing"
	"time"
)

func TestTickReportsPasses(t *testing.T) {
	p := NewProfiler(time.Second)
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }
	p.lastTime = clock

	p.ObservePass("Blur Pass", 2*time.Millisecond)
	p.ObservePass("Blur Pass", 4*time.Millisecond)
	p.ObservePass("Setup", time.Millisecond)

	if p.Tick() {
		t.Fatal("reported before the interval elapsed")
	}
	clock = clock.Add(time.Second)
	if !p.Tick() {
		t.Fatal("did not report after the interval")
	}

	got := p.Passes()
	if len(got) != 2 {
		t.Fatalf("passes = %v", got)
	}
	if got[0].Name != "Blur Pass" || got[0].Runs != 2 || got[0].Average != 3*time.Millisecond {
		t.Errorf("slowest = %+v", got[0])
	}

	clock = clock.Add(time.Second)
	p.Tick()
	if len(p.Passes()) != 0 {
		t.Error("timings were not reset after reporting")
	}
}
