package engine

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/veil/engine/command"
	"github.com/Carmen-Shannon/veil/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeWindow struct {
	closeRequested atomic.Bool
	closed         atomic.Bool
	onUpdate       func()
	onResize       func(int, int)
	onKeyDown      func(uint32)
}

func (w *fakeWindow) SetUpdateCallback(cb func())                { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(int, int))        { w.onResize = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(uint32))         { w.onKeyDown = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool                            { return !w.closeRequested.Load() }
func (w *fakeWindow) RequestClose()                              { w.closeRequested.Store(true) }
func (w *fakeWindow) Close() error                               { w.closed.Store(true); return nil }
func (w *fakeWindow) Width() int                                 { return 640 }
func (w *fakeWindow) Height() int                                { return 480 }

func (w *fakeWindow) ProcessMessages() {
	for w.IsRunning() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeScene struct {
	renders  atomic.Int64
	released atomic.Bool
	panicAt  int64
	err      error
}

func (s *fakeScene) Init() error                  { return nil }
func (s *fakeScene) RequestReset()                {}
func (s *fakeScene) DistortionEnabled() bool      { return true }
func (s *fakeScene) InterpolationAvailable() bool { return true }
func (s *fakeScene) Release()                     { s.released.Store(true) }

func (s *fakeScene) Render(time.Time) (scene.FrameResult, error) {
	n := s.renders.Add(1)
	if n == s.panicAt {
		panic("boom")
	}
	return scene.FrameResult{Real: true}, s.err
}

type fakeSurface struct {
	mu       sync.Mutex
	resizes  [][2]int
	released atomic.Bool
}

func (s *fakeSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizes = append(s.resizes, [2]int{width, height})
}

func (s *fakeSurface) Release() { s.released.Store(true) }

func (s *fakeSurface) sizes() [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]int(nil), s.resizes...)
}

type fakeHandler struct {
	mu         sync.Mutex
	utterances []string
	keys       []uint32
}

func (h *fakeHandler) Apply(utterance string) (command.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.utterances = append(h.utterances, utterance)
	if utterance == "nonsense" {
		return command.Result{}, command.ErrNoMatch
	}
	return command.Result{Rule: "test", Changed: true}, nil
}

func (h *fakeHandler) HandleKey(keyCode uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, keyCode)
	return true
}

func (h *fakeHandler) applied() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.utterances...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// runEngine starts Run in a goroutine and returns a function that quits and waits for its result.
func runEngine(t *testing.T, e Engine) func() error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	return func() error {
		e.Quit()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Quit")
			return nil
		}
	}
}

func newTestEngine(sc *fakeScene, opts ...EngineBuilderOption) (Engine, *fakeWindow, *fakeSurface) {
	w := &fakeWindow{}
	s := &fakeSurface{}
	base := []EngineBuilderOption{
		WithWindow(w),
		WithScene(sc),
		WithSurface(s),
		WithRenderFrameLimit(1000),
	}
	return NewEngine(append(base, opts...)...), w, s
}

func TestRunTearsDownInOrder(t *testing.T) {
	sc := &fakeScene{}
	var order []string
	e, w, s := newTestEngine(sc,
		WithTeardown("camera", func() error { order = append(order, "camera"); return nil }),
		WithTeardown("settings", func() error { order = append(order, "settings"); return nil }),
	)

	stop := runEngine(t, e)
	waitFor(t, "first frames", func() bool { return sc.renders.Load() >= 3 })
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !sc.released.Load() || !s.released.Load() {
		t.Error("GPU resources not released")
	}
	if !w.closed.Load() {
		t.Error("window not closed")
	}
	if strings.Join(order, ",") != "camera,settings" {
		t.Errorf("teardown order = %v", order)
	}
}

func TestWindowCloseStopsEngine(t *testing.T) {
	sc := &fakeScene{}
	e, w, _ := newTestEngine(sc)

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	waitFor(t, "first frame", func() bool { return sc.renders.Load() > 0 })
	w.RequestClose()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the window closed")
	}
	if !sc.released.Load() {
		t.Error("scene not released")
	}
}

func TestTeardownErrorsJoined(t *testing.T) {
	errCamera := errors.New("camera stuck")
	e, _, _ := newTestEngine(&fakeScene{},
		WithTeardown("camera", func() error { return errCamera }),
	)
	err := runEngine(t, e)()
	if !errors.Is(err, errCamera) {
		t.Fatalf("Run error = %v, want %v", err, errCamera)
	}
}

func TestFramePanicContained(t *testing.T) {
	sc := &fakeScene{panicAt: 2}
	e, _, _ := newTestEngine(sc)
	stop := runEngine(t, e)
	waitFor(t, "frames after the panic", func() bool { return sc.renders.Load() >= 5 })
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRenderFramePanicBecomesError(t *testing.T) {
	sc := &fakeScene{panicAt: 1}
	e, _, _ := newTestEngine(sc)
	_, err := e.(*engine).renderFrame(time.Now())
	if !errors.Is(err, ErrFramePanic) {
		t.Fatalf("err = %v, want ErrFramePanic", err)
	}
}

func TestPauseSkipsFrames(t *testing.T) {
	sc := &fakeScene{}
	e, _, _ := newTestEngine(sc)
	e.Pause()
	if !e.Paused() {
		t.Fatal("Paused() = false after Pause")
	}

	stop := runEngine(t, e)
	time.Sleep(50 * time.Millisecond)
	if n := sc.renders.Load(); n != 0 {
		t.Fatalf("rendered %d frames while paused", n)
	}

	e.Resume()
	waitFor(t, "frames after resume", func() bool { return sc.renders.Load() > 0 })
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestResizeAppliedOnRenderThread(t *testing.T) {
	sc := &fakeScene{}
	e, w, s := newTestEngine(sc)
	w.onResize(0, 0)
	w.onResize(800, 600)
	w.onResize(1024, 768)

	stop := runEngine(t, e)
	waitFor(t, "resize", func() bool { return len(s.sizes()) > 0 })
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := s.sizes()
	if len(got) != 1 || got[0] != [2]int{1024, 768} {
		t.Errorf("resizes = %v, want only the latest size", got)
	}
}

func TestSubmitDrainsToHandler(t *testing.T) {
	h := &fakeHandler{}
	e, _, _ := newTestEngine(&fakeScene{})
	e.SetCommandHandler(h)

	stop := runEngine(t, e)
	e.Submit("convergence 30")
	e.Submit("nonsense")
	waitFor(t, "commands", func() bool { return len(h.applied()) == 2 })
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := h.applied(); got[0] != "convergence 30" || got[1] != "nonsense" {
		t.Errorf("applied = %v", got)
	}
}

func TestSubmitDropsWhenFull(t *testing.T) {
	e, _, _ := newTestEngine(&fakeScene{}, WithCommandQueue(1))
	if !e.Submit("first") {
		t.Fatal("first Submit dropped")
	}
	if e.Submit("second") {
		t.Fatal("second Submit accepted by a full queue")
	}
}

func TestKeyForwardedToHandler(t *testing.T) {
	h := &fakeHandler{}
	e, w, _ := newTestEngine(&fakeScene{})
	e.SetCommandHandler(h)
	w.onKeyDown(262)
	if len(h.keys) != 1 || h.keys[0] != 262 {
		t.Errorf("keys = %v", h.keys)
	}
}

func TestNewEngineRequiresWindowAndScene(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic without a scene")
		}
	}()
	NewEngine(WithWindow(&fakeWindow{}))
}

func TestErrorLimiter(t *testing.T) {
	now := time.Unix(0, 0)
	l := newErrorLimiter(time.Second)
	l.now = func() time.Time { return now }

	errA := errors.New("a")
	errB := errors.New("b")

	steps := []struct {
		advance time.Duration
		err     error
		logged  bool
	}{
		{0, errA, true},
		{100 * time.Millisecond, errA, false},
		{0, errB, true},
		{500 * time.Millisecond, errA, false},
		{500 * time.Millisecond, errA, true},
	}
	for i, s := range steps {
		now = now.Add(s.advance)
		if got := l.log(s.err); got != s.logged {
			t.Errorf("step %d: logged = %v, want %v", i, got, s.logged)
		}
	}
}

func TestPackSize(t *testing.T) {
	tests := []struct {
		w, h int
		zero bool
	}{
		{1920, 1080, false},
		{1, 1, false},
		{0, 1080, true},
		{1920, -1, true},
	}
	for _, tt := range tests {
		v := packSize(tt.w, tt.h)
		if (v == 0) != tt.zero {
			t.Errorf("packSize(%d, %d) = %d", tt.w, tt.h, v)
			continue
		}
		if !tt.zero {
			if w, h := unpackSize(v); w != tt.w || h != tt.h {
				t.Errorf("unpackSize = %d,%d, want %d,%d", w, h, tt.w, tt.h)
			}
		}
	}
}
