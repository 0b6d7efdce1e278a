// Package camera provides the physical stereo camera boundary: frames, frame sources, the lock-free
// frame hand-off to the render thread and the controller that reopens the device on resolution changes.
package camera

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotReady is returned by TryUpdate when no new frame arrived since the last call.
	// The caller keeps rendering its previous image.
	ErrNotReady = errors.New("camera frame not ready")

	// ErrAtBoundary is returned when a resolution step would leave the profile.
	ErrAtBoundary = errors.New("resolution profile boundary")

	// ErrBusy is returned when a resolution change is requested while another is in flight.
	ErrBusy = errors.New("camera reconfiguration in progress")

	// ErrStopped is returned when a resolution change is requested after Stop.
	ErrStopped = errors.New("camera controller stopped")

	// ErrNoStrategy is returned when every open strategy failed.
	ErrNoStrategy = errors.New("no camera open strategy succeeded")
)

// Frame is one side-by-side stereo image. The left eye occupies U in [0, 0.5], the right eye [0.5, 1].
// A Frame handed out by TryUpdate is read-only and valid until the next TryUpdate call.
type Frame struct {
	// Pixels is tightly packed RGBA8, rows top to bottom.
	Pixels []byte
	Width  uint32
	Height uint32

	// Arrival is when the source finished decoding the frame.
	Arrival time.Time

	// Generation increases by one for every published frame of a source.
	Generation uint64

	// FPS is the nominal capture rate the frame was produced at.
	FPS float64
}

// Interval returns the nominal time between frames, or 0 if the rate is unknown.
//
// Returns:
//   - time.Duration: 1/FPS
func (f *Frame) Interval() time.Duration {
	if f.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / f.FPS)
}

// Resolution is a capture size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Source produces frames asynchronously. TryUpdate is called from the render thread and must not block;
// Start and Stop are called from the controller's worker.
type Source interface {
	// Start opens the device at res and begins publishing frames.
	//
	// Parameters:
	//   - res: the requested capture size
	//
	// Returns:
	//   - error: an error if the device could not be opened
	Start(res Resolution) error

	// Stop halts capture and releases the device. Safe to call when not started.
	Stop()

	// TryUpdate returns the newest frame if one arrived since the previous call.
	//
	// Returns:
	//   - *Frame: the new frame, or nil
	//   - error: ErrNotReady when nothing new is available
	TryUpdate() (*Frame, error)

	// Name identifies the source in logs.
	//
	// Returns:
	//   - string: the source name
	Name() string
}
