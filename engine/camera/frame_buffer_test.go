package camera

import (
	"sync"
	"testing"
	"time"
)

func TestFrameBufferAcquireEmpty(t *testing.T) {
	b := NewFrameBuffer()
	if f, ok := b.Acquire(); ok || f != nil {
		t.Fatalf("Acquire on empty buffer = %v, %v", f, ok)
	}
}

func TestFrameBufferLatestWins(t *testing.T) {
	b := NewFrameBuffer()
	for i := range 3 {
		f := b.Back(2, 1)
		f.Pixels[0] = byte(i + 1)
		b.Publish(time.Now(), 60)
	}
	f, ok := b.Acquire()
	if !ok {
		t.Fatal("nothing acquired")
	}
	if f.Pixels[0] != 3 || f.Generation != 3 {
		t.Errorf("acquired pixel %d generation %d, want 3 and 3", f.Pixels[0], f.Generation)
	}
	if _, ok := b.Acquire(); ok {
		t.Error("second Acquire returned a frame without a publish")
	}
}

func TestFrameBufferConcurrent(t *testing.T) {
	b := NewFrameBuffer()
	const frames = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range frames {
			f := b.Back(4, 4)
			for j := range f.Pixels {
				f.Pixels[j] = byte(i)
			}
			b.Publish(time.Now(), 60)
		}
	}()

	var last uint64
	deadline := time.Now().Add(5 * time.Second)
	for last < frames && time.Now().Before(deadline) {
		f, ok := b.Acquire()
		if !ok {
			continue
		}
		if f.Generation <= last {
			t.Fatalf("generation went from %d to %d", last, f.Generation)
		}
		want := byte(f.Generation - 1)
		for j, p := range f.Pixels {
			if p != want {
				t.Fatalf("torn frame: pixel %d = %d, want %d", j, p, want)
			}
		}
		last = f.Generation
	}
	wg.Wait()
	if last != frames {
		t.Errorf("last generation = %d, want %d", last, frames)
	}
}
