package camera

import (
	"sync/atomic"
	"time"
)

const (
	slotMask  = 0b011
	dirtyFlag = 0b100
)

// FrameBuffer is a single-producer, single-consumer triple buffer. The producer fills the back slot
// and publishes it; the consumer acquires the most recently published slot. Neither side blocks and
// intermediate frames are dropped when the consumer is slower than the producer.
type FrameBuffer struct {
	slots [3]Frame

	// middle holds the index of the shared slot and the dirty flag.
	middle atomic.Uint32

	back       uint32 // producer only
	front      uint32 // consumer only
	generation uint64 // producer only
}

// NewFrameBuffer creates an empty FrameBuffer.
//
// Returns:
//   - *FrameBuffer: the buffer with slot 0 at the front, 1 in the middle and 2 at the back
func NewFrameBuffer() *FrameBuffer {
	b := &FrameBuffer{front: 0, back: 2}
	b.middle.Store(1)
	return b
}

// Back returns the producer's slot, resized to hold a width by height RGBA image.
// The slot's pixel storage is reused between frames.
//
// Parameters:
//   - width: the frame width in pixels
//   - height: the frame height in pixels
//
// Returns:
//   - *Frame: the slot to fill before calling Publish
func (b *FrameBuffer) Back(width, height uint32) *Frame {
	f := &b.slots[b.back]
	n := int(width) * int(height) * 4
	if cap(f.Pixels) < n {
		f.Pixels = make([]byte, n)
	}
	f.Pixels = f.Pixels[:n]
	f.Width = width
	f.Height = height
	return f
}

// Publish stamps the back slot with a generation and arrival time and swaps it into the middle.
//
// Parameters:
//   - arrival: the capture time of the frame
//   - fps: the nominal capture rate
func (b *FrameBuffer) Publish(arrival time.Time, fps float64) {
	f := &b.slots[b.back]
	b.generation++
	f.Generation = b.generation
	f.Arrival = arrival
	f.FPS = fps
	prev := b.middle.Swap(b.back | dirtyFlag)
	b.back = prev & slotMask
}

// Acquire returns the newest published frame if one arrived since the last Acquire.
//
// Returns:
//   - *Frame: the frame, valid until the next Acquire
//   - bool: false if nothing new was published
func (b *FrameBuffer) Acquire() (*Frame, bool) {
	if b.middle.Load()&dirtyFlag == 0 {
		return nil, false
	}
	prev := b.middle.Swap(b.front)
	b.front = prev & slotMask
	return &b.slots[b.front], true
}
