package profiler

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := NewProfiler(withClock(clock.now))

	for i := 0; i < 59; i++ {
		clock.t = clock.t.Add(time.Second / 60)
		if p.Tick() {
			t.Fatalf("tick %d reported early", i)
		}
	}
	clock.t = time.Unix(101, 0)
	if !p.Tick() {
		t.Fatal("expected a report after one second")
	}
	if got := p.Last().FPS; math.Abs(got-60) > 1e-9 {
		t.Errorf("FPS = %v, want 60", got)
	}
}

func TestFrameCountersResetAfterReport(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithInterval(500*time.Millisecond), withClock(clock.now))

	p.Frame(true, false, false, false)
	p.Frame(false, true, false, false)
	p.Frame(false, true, false, true)
	p.Frame(false, false, true, false)
	clock.t = clock.t.Add(500 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("expected a report")
	}

	got := p.Last()
	if got.Real != 1 || got.Interpolated != 2 || got.Skipped != 1 || got.Errors != 1 {
		t.Errorf("counters = %+v", got)
	}

	clock.t = clock.t.Add(500 * time.Millisecond)
	p.Tick()
	if got := p.Last(); got.Real != 0 || got.Interpolated != 0 || got.Errors != 0 {
		t.Errorf("counters not reset: %+v", got)
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	if p.updateInterval != time.Second {
		t.Errorf("updateInterval = %v, want 1s", p.updateInterval)
	}
}
