package camera

import (
	"sync"
	"time"
)

// patternDisparity is the horizontal shift in pixels between the left and right pattern images.
const patternDisparity = 12

// patternSource is a Source that synthesizes a moving stereo test pattern at a fixed rate.
type patternSource struct {
	mu      sync.Mutex
	buf     *FrameBuffer
	fps     float64
	stop    chan struct{}
	done    chan struct{}
	running bool
}

var _ Source = &patternSource{}

// NewPatternSource creates a Source that needs no hardware. Each eye sees the same scrolling bars,
// offset by a small disparity so stereo alignment can be tuned against it.
//
// Parameters:
//   - fps: the publish rate; values <= 0 default to 60
//
// Returns:
//   - Source: the pattern source
func NewPatternSource(fps float64) Source {
	if fps <= 0 {
		fps = 60
	}
	return &patternSource{buf: NewFrameBuffer(), fps: fps}
}

func (p *patternSource) Name() string {
	return "pattern"
}

func (p *patternSource) Start(res Resolution) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.halt()
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true
	go p.run(res, p.stop, p.done)
	return nil
}

func (p *patternSource) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.halt()
	}
}

// halt stops the producer goroutine and waits for it so only one producer ever touches the buffer.
func (p *patternSource) halt() {
	close(p.stop)
	<-p.done
	p.running = false
}

func (p *patternSource) TryUpdate() (*Frame, error) {
	if f, ok := p.buf.Acquire(); ok {
		return f, nil
	}
	return nil, ErrNotReady
}

func (p *patternSource) run(res Resolution, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / p.fps))
	defer ticker.Stop()

	for phase := 0; ; phase++ {
		f := p.buf.Back(uint32(res.Width), uint32(res.Height))
		FillPattern(f, phase)
		p.buf.Publish(time.Now(), p.fps)

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// FillPattern draws vertical color bars that scroll with phase into f. The right half repeats the
// left half shifted by a fixed disparity.
//
// Parameters:
//   - f: the frame to fill; Pixels must hold Width*Height*4 bytes
//   - phase: the animation step
func FillPattern(f *Frame, phase int) {
	w, h := int(f.Width), int(f.Height)
	if w == 0 || h == 0 {
		return
	}
	half := w / 2
	row := f.Pixels[:w*4]
	for x := range w {
		local, shift := x, 0
		if x >= half {
			local, shift = x-half, patternDisparity
		}
		bar := ((local + shift + phase*4) / 32) % 8
		i := x * 4
		row[i+0] = byte(255 * (bar & 1))
		row[i+1] = byte(255 * ((bar >> 1) & 1))
		row[i+2] = byte(255 * ((bar >> 2) & 1))
		row[i+3] = 255
	}
	for y := 1; y < h; y++ {
		copy(f.Pixels[y*w*4:(y+1)*w*4], row)
	}
}
