// Package pacer sustains the display refresh rate above the camera rate by blending the last two real
// frames. It is a small state machine driven by the render thread once per vsync.
package pacer

import (
	"time"

	"github.com/Carmen-Shannon/veil/common"
)

// State is the pacer's phase between two camera frames.
type State int

const (
	// AwaitingFrame is the cold-start state before the first real frame.
	AwaitingFrame State = iota
	// HoldingReal shows the previous image unblended until the minimum delay has passed.
	HoldingReal
	// Interpolating blends from the previous image toward the current frame.
	Interpolating
)

func (s State) String() string {
	switch s {
	case AwaitingFrame:
		return "awaiting-frame"
	case HoldingReal:
		return "holding-real"
	case Interpolating:
		return "interpolating"
	}
	return "unknown"
}

// DefaultMinDelay is the hold time after an arrival before blending starts.
const DefaultMinDelay = 10 * time.Millisecond

// defaultInterval is used when a frame does not report its rate.
const defaultInterval = time.Second / 60

// Arrival tells the render thread what to do with a newly arrived frame.
type Arrival struct {
	// CapturePrevious is true when the image on screen must be rendered into the previous-frame
	// texture before the new frame is uploaded.
	CapturePrevious bool
}

// Pacer is owned by the render thread and is not safe for concurrent use.
type Pacer struct {
	state    State
	enabled  bool
	minDelay time.Duration
	interval time.Duration

	lastArrival time.Time
	hasPrevious bool
}

// New creates a Pacer in AwaitingFrame.
//
// Parameters:
//   - options: variadic list of PacerBuilderOption functions to configure the Pacer
//
// Returns:
//   - *Pacer: the pacer
func New(options ...PacerBuilderOption) *Pacer {
	p := &Pacer{
		state:    AwaitingFrame,
		enabled:  true,
		minDelay: DefaultMinDelay,
		interval: defaultInterval,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Configure applies the persisted interpolation settings. Disabling drops the previous image so the
// next enable starts from a fresh capture.
//
// Parameters:
//   - enabled: whether blending is on
//   - minDelay: the hold time after each arrival
func (p *Pacer) Configure(enabled bool, minDelay time.Duration) {
	if p.enabled && !enabled {
		p.hasPrevious = false
	}
	p.enabled = enabled
	p.minDelay = max(minDelay, 0)
}

// OnFrame records a real frame arrival.
//
// Parameters:
//   - now: the arrival time as seen by the render thread
//   - interval: the camera's nominal frame interval; 0 keeps the last known interval
//
// Returns:
//   - Arrival: whether to capture the displayed image first
func (p *Pacer) OnFrame(now time.Time, interval time.Duration) Arrival {
	if interval > 0 {
		p.interval = interval
	}
	capture := p.enabled && p.state != AwaitingFrame
	p.hasPrevious = capture
	p.state = HoldingReal
	p.lastArrival = now
	return Arrival{CapturePrevious: capture}
}

// Factor returns the weight of the current frame against the previous image for a vsync at now:
// 0 shows the previous image, 1 the current frame. Cold start, a disabled pacer, and an arrival
// without a captured previous image all give 1.
//
// factor = clamp((elapsed - minDelay) / (interval - minDelay), 0, 1)
//
// Parameters:
//   - now: the vsync time
//
// Returns:
//   - float32: the blend factor in [0, 1]
func (p *Pacer) Factor(now time.Time) float32 {
	if !p.enabled || !p.hasPrevious || p.state == AwaitingFrame {
		return 1
	}

	elapsed := now.Sub(p.lastArrival)
	if elapsed <= p.minDelay {
		return 0
	}
	p.state = Interpolating

	span := p.interval - p.minDelay
	if span <= 0 {
		return 1
	}
	return common.Clamp(float32(elapsed-p.minDelay)/float32(span), 0, 1)
}

// State returns the current phase.
func (p *Pacer) State() State {
	return p.state
}

// Enabled reports whether blending is on.
func (p *Pacer) Enabled() bool {
	return p.enabled
}

// Reset returns to AwaitingFrame, used after the camera is reopened.
func (p *Pacer) Reset() {
	p.state = AwaitingFrame
	p.hasPrevious = false
}
