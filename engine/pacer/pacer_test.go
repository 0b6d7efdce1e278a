package pacer

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestColdStart(t *testing.T) {
	p := New()
	if f := p.Factor(t0); f != 1 {
		t.Errorf("factor before any frame = %v", f)
	}
	a := p.OnFrame(t0, ms(33))
	if a.CapturePrevious {
		t.Error("first frame requested a capture")
	}
	if f := p.Factor(t0.Add(ms(20))); f != 1 {
		t.Errorf("factor after first frame = %v, want the real frame", f)
	}
	if p.State() != HoldingReal {
		t.Errorf("state = %v", p.State())
	}
}

func TestTransitions(t *testing.T) {
	p := New(WithMinDelay(ms(10)))
	p.OnFrame(t0, ms(30))

	next := t0.Add(ms(30))
	if a := p.OnFrame(next, ms(30)); !a.CapturePrevious {
		t.Fatal("second frame did not request a capture")
	}
	if f := p.Factor(next); f != 0 {
		t.Errorf("factor right after capture = %v, want 0", f)
	}
	if p.State() != HoldingReal {
		t.Errorf("state within min delay = %v", p.State())
	}

	tests := []struct {
		at   time.Duration
		want float32
	}{
		{ms(10), 0},
		{ms(15), 0.25},
		{ms(20), 0.5},
		{ms(30), 1},
		{ms(45), 1},
	}
	for _, tt := range tests {
		if f := p.Factor(next.Add(tt.at)); f != tt.want {
			t.Errorf("factor at +%v = %v, want %v", tt.at, f, tt.want)
		}
	}
	if p.State() != Interpolating {
		t.Errorf("state after min delay = %v", p.State())
	}

	p.OnFrame(next.Add(ms(31)), 0)
	if p.State() != HoldingReal {
		t.Errorf("state after arrival = %v", p.State())
	}
}

func TestFactorMonotone(t *testing.T) {
	p := New(WithMinDelay(ms(4)))
	p.OnFrame(t0, ms(16))
	arrival := t0.Add(ms(16))
	p.OnFrame(arrival, ms(16))

	var last float32
	for us := 0; us <= 20000; us += 250 {
		f := p.Factor(arrival.Add(time.Duration(us) * time.Microsecond))
		if f < last {
			t.Fatalf("factor decreased from %v to %v at %dus", last, f, us)
		}
		last = f
	}
	if last != 1 {
		t.Errorf("factor never reached 1: %v", last)
	}
}

func TestDisabled(t *testing.T) {
	p := New(WithEnabled(false))
	p.OnFrame(t0, ms(30))
	if a := p.OnFrame(t0.Add(ms(30)), ms(30)); a.CapturePrevious {
		t.Error("disabled pacer requested a capture")
	}
	if f := p.Factor(t0.Add(ms(31))); f != 1 {
		t.Errorf("disabled factor = %v", f)
	}

	p.Configure(true, ms(10))
	if f := p.Factor(t0.Add(ms(45))); f != 1 {
		t.Errorf("factor after enable without a capture = %v", f)
	}
	if a := p.OnFrame(t0.Add(ms(60)), ms(30)); !a.CapturePrevious {
		t.Error("enabled pacer skipped the capture")
	}
}

func TestMinDelayAtLeastInterval(t *testing.T) {
	p := New(WithMinDelay(ms(40)))
	p.OnFrame(t0, ms(30))
	p.OnFrame(t0.Add(ms(30)), ms(30))
	if f := p.Factor(t0.Add(ms(50))); f != 0 {
		t.Errorf("factor within min delay = %v", f)
	}
	if f := p.Factor(t0.Add(ms(80))); f != 1 {
		t.Errorf("factor past min delay with no span = %v", f)
	}
}

func TestReset(t *testing.T) {
	p := New()
	p.OnFrame(t0, ms(30))
	p.OnFrame(t0.Add(ms(30)), ms(30))
	p.Reset()
	if p.State() != AwaitingFrame || p.Factor(t0.Add(ms(40))) != 1 {
		t.Errorf("after reset: state %v", p.State())
	}
	if a := p.OnFrame(t0.Add(ms(90)), ms(30)); a.CapturePrevious {
		t.Error("first frame after reset requested a capture")
	}
}

func TestBlendParamsSize(t *testing.T) {
	g := GPUBlendParams{Factor: 0.5}
	if len(g.Marshal()) != 16 {
		t.Errorf("size = %d", len(g.Marshal()))
	}
}
