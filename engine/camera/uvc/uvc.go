// Package uvc captures side-by-side stereo frames from a UVC (V4L2) camera through OpenCV.
package uvc

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/camera"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	errNotOpened       = errors.New("device did not open")
	errSizeNotAccepted = errors.New("device rejected the requested size")
)

// videoDevice is the subset of *gocv.VideoCapture the source uses.
type videoDevice interface {
	Set(prop gocv.VideoCaptureProperties, param float64)
	Get(prop gocv.VideoCaptureProperties) float64
	Read(m *gocv.Mat) bool
	IsOpened() bool
	Close() error
}

// openFunc opens a device by index or path.
type openFunc func(device string) (videoDevice, error)

// source is the UVC implementation of camera.Source.
type source struct {
	device string
	fps    float64
	open   openFunc

	// readFailureLimit consecutive empty reads are logged once as a stall.
	readFailureLimit int

	mu        sync.Mutex
	dev       videoDevice
	activeFPS float64
	running   bool
	stop      chan struct{}
	done      chan struct{}

	buf *camera.FrameBuffer
}

var _ camera.Source = &source{}

// NewSource creates a UVC Source. device is a numeric index ("0") or a device path ("/dev/video2").
//
// Parameters:
//   - device: the capture device
//   - options: variadic list of SourceBuilderOption functions to configure the Source
//
// Returns:
//   - camera.Source: the source, not yet started
func NewSource(device string, options ...SourceBuilderOption) camera.Source {
	s := &source{
		device:           device,
		fps:              60,
		open:             openGoCV,
		readFailureLimit: 30,
		buf:              camera.NewFrameBuffer(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func openGoCV(device string) (videoDevice, error) {
	var id any = device
	if n, err := strconv.Atoi(device); err == nil {
		id = n
	}
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func (s *source) Name() string {
	return "uvc:" + s.device
}

func (s *source) Start(res camera.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.halt()
	}

	_, err := camera.RunStrategies(s.Name(), s.strategies(res))
	if err != nil {
		return fmt.Errorf("start %s at %s: %w", s.Name(), res, err)
	}

	s.activeFPS = s.dev.Get(gocv.VideoCaptureFPS)
	if s.activeFPS <= 0 {
		s.activeFPS = s.fps
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true
	go s.read(s.dev, s.activeFPS, s.stop, s.done)

	fields := s.logFields()
	fields["width"] = int(s.dev.Get(gocv.VideoCaptureFrameWidth))
	fields["height"] = int(s.dev.Get(gocv.VideoCaptureFrameHeight))
	common.Logger().WithFields(fields).Info("capture started")
	return nil
}

// strategies returns the preview setup attempts in order: the requested size as MJPEG, the requested
// size in any format, then whatever the device defaults to.
func (s *source) strategies(res camera.Resolution) []camera.Strategy {
	return []camera.Strategy{
		{Name: "requested-mjpeg", Attempt: func() error { return s.tryOpen(&res, true) }},
		{Name: "requested-any", Attempt: func() error { return s.tryOpen(&res, false) }},
		{Name: "device-default", Attempt: func() error { return s.tryOpen(nil, false) }},
	}
}

// tryOpen opens the device and applies the requested format. On any failure the device is closed
// and s.dev is left nil.
func (s *source) tryOpen(res *camera.Resolution, mjpeg bool) error {
	dev, err := s.open(s.device)
	if err != nil {
		return err
	}
	if !dev.IsOpened() {
		dev.Close()
		return errNotOpened
	}

	if mjpeg {
		dev.Set(gocv.VideoCaptureFOURCC, FourCC("MJPG"))
	}
	if res != nil {
		dev.Set(gocv.VideoCaptureFrameWidth, float64(res.Width))
		dev.Set(gocv.VideoCaptureFrameHeight, float64(res.Height))
	}
	dev.Set(gocv.VideoCaptureFPS, s.fps)

	w := int(dev.Get(gocv.VideoCaptureFrameWidth))
	h := int(dev.Get(gocv.VideoCaptureFrameHeight))
	if w <= 0 || h <= 0 || (res != nil && (w != res.Width || h != res.Height)) {
		dev.Close()
		return fmt.Errorf("%w: got %dx%d", errSizeNotAccepted, w, h)
	}
	if mjpeg && dev.Get(gocv.VideoCaptureFOURCC) != FourCC("MJPG") {
		dev.Close()
		return fmt.Errorf("%w: MJPEG not accepted", errSizeNotAccepted)
	}

	s.dev = dev
	return nil
}

func (s *source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.halt()
	}
}

// halt stops the reader, waits for it, and closes the device.
func (s *source) halt() {
	close(s.stop)
	<-s.done
	if err := s.dev.Close(); err != nil {
		common.Logger().WithField("source", s.Name()).WithError(err).Warn("close capture device")
	}
	s.dev = nil
	s.running = false
}

func (s *source) TryUpdate() (*camera.Frame, error) {
	if f, ok := s.buf.Acquire(); ok {
		return f, nil
	}
	return nil, camera.ErrNotReady
}

// read decodes frames until stop is closed. Read blocks for at most one frame interval on a
// streaming device, so stop is observed promptly.
func (s *source) read(dev videoDevice, fps float64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	log := common.Logger().WithField("source", s.Name())

	mat := gocv.NewMat()
	defer mat.Close()
	rgba := gocv.NewMat()
	defer rgba.Close()

	failures := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		if !dev.Read(&mat) || mat.Empty() {
			failures++
			if failures == s.readFailureLimit {
				log.WithField("reads", failures).Warn("camera stalled")
			}
			time.Sleep(time.Millisecond)
			continue
		}
		if failures >= s.readFailureLimit {
			log.Info("camera resumed")
		}
		failures = 0

		if err := gocv.CvtColor(mat, &rgba, gocv.ColorBGRToRGBA); err != nil {
			log.WithError(err).Debug("color conversion failed")
			continue
		}
		data, err := rgba.DataPtrUint8()
		if err != nil {
			log.WithError(err).Debug("frame data unavailable")
			continue
		}

		f := s.buf.Back(uint32(rgba.Cols()), uint32(rgba.Rows()))
		copy(f.Pixels, data)
		s.buf.Publish(time.Now(), fps)
	}
}

// FourCC packs a four character codec code the way V4L2 and OpenCV expect.
//
// Parameters:
//   - code: a four character code such as "MJPG"
//
// Returns:
//   - float64: the packed code as an OpenCV property value
func FourCC(code string) float64 {
	if len(code) != 4 {
		return 0
	}
	return float64(uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24)
}

// logFields describes the active capture configuration.
func (s *source) logFields() logrus.Fields {
	return logrus.Fields{
		"source": s.Name(),
		"fps":    s.activeFPS,
	}
}
