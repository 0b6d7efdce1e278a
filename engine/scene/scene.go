// Package scene renders one passthrough frame per vsync: it uploads the newest camera frame, composites
// both eye quads with the color controls into an offscreen scene target, and presents that target
// through the lens distortion pass. When the camera is slower than the display, the frame pacer blends
// the last two real frames.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/camera"
	"github.com/Carmen-Shannon/veil/engine/compositor"
	"github.com/Carmen-Shannon/veil/engine/lens"
	"github.com/Carmen-Shannon/veil/engine/pacer"
	"github.com/Carmen-Shannon/veil/engine/renderer"
	"github.com/Carmen-Shannon/veil/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/veil/engine/renderer/shader"
	"github.com/Carmen-Shannon/veil/engine/settings"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// ErrNotInitialized is returned by Render before a successful Init.
var ErrNotInitialized = errors.New("scene not initialized")

// frameFormat is the format of the camera upload and frame history textures.
const frameFormat = wgpu.TextureFormatRGBA8Unorm

// FrameSource is the non-blocking frame supply the scene polls once per vsync. camera.Controller
// satisfies it.
type FrameSource interface {
	// TryUpdate returns the newest frame, or camera.ErrNotReady when nothing new arrived.
	TryUpdate() (*camera.Frame, error)
}

// FrameResult describes what one Render call displayed.
type FrameResult struct {
	// Real is true when a new camera frame was uploaded this vsync.
	Real bool

	// Interpolated is true when the image was blended between two real frames.
	Interpolated bool

	// Skipped is true when the surface had no area and nothing was rendered.
	Skipped bool
}

// Scene is the render-thread side of the passthrough pipeline. Init runs before the render loop starts;
// after that every method except RequestReset must be called from the render thread.
type Scene interface {
	// Init loads the shader programs and registers the composite, distortion and snapshot pipelines.
	// Only a composite failure is fatal: a distortion failure falls back to copying the scene target
	// to the surface and a snapshot failure disables interpolation. Both are logged.
	//
	// Returns:
	//   - error: an error if the composite pass could not be built
	Init() error

	// Render runs the pipeline once. Every call that begins a frame also ends and presents it, so the
	// display always receives an image, even when a pass failed.
	//
	// Parameters:
	//   - now: the vsync time used by the frame pacer
	//
	// Returns:
	//   - FrameResult: what was displayed
	//   - error: the joined errors of the failed passes, nil when everything rendered
	Render(now time.Time) (FrameResult, error)

	// RequestReset drops the pacer history and generation tracking before the next frame. Safe to call
	// from any goroutine; used after the camera was reopened.
	RequestReset()

	// DistortionEnabled reports whether the lens distortion pass was built.
	//
	// Returns:
	//   - bool: false when frames are presented with a plain copy
	DistortionEnabled() bool

	// InterpolationAvailable reports whether the snapshot pass was built.
	//
	// Returns:
	//   - bool: false when the pacer is forced off
	InterpolationAvailable() bool

	// Release releases the render targets and bind groups owned by the scene. Pipelines belong to the
	// renderer.
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	r      renderer.Renderer
	source FrameSource
	state  settings.State
	pacer  *pacer.Pacer

	shaderDir string
	mirror    bool

	composite  *pass
	distortion *pass
	snapshot   *pass

	mesh         bind_group_provider.BindGroupProvider
	lastVertices []byte

	sceneTarget renderer.RenderTarget

	// frames holds the camera uploads and history the frozen previous images. Both ping-pong: queue
	// writes land before the frame's passes execute, so an upload must never target the texture the
	// snapshot pass reads in the same frame.
	frames   [2]renderer.RenderTarget
	history  [2]renderer.RenderTarget
	current  int
	previous int

	frameWidth     uint32
	frameHeight    uint32
	lastGeneration uint64
	lastFactor     float32

	resetPending atomic.Bool
}

var _ Scene = &scene{}

// NewScene creates a Scene. Nothing touches the GPU until Init.
//
// Parameters:
//   - r: the renderer to draw with
//   - source: the camera frame supply
//   - state: the live tunables, read once per frame
//   - options: variadic list of SceneBuilderOption functions to configure the Scene
//
// Returns:
//   - Scene: the scene
func NewScene(r renderer.Renderer, source FrameSource, state settings.State, options ...SceneBuilderOption) Scene {
	s := &scene{
		r:          r,
		source:     source,
		state:      state,
		mirror:     true,
		lastFactor: 1,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pacer == nil {
		s.pacer = pacer.New()
	}
	return s
}

func (s *scene) log() *logrus.Entry {
	return common.Logger().WithField("component", "scene")
}

func (s *scene) Init() error {
	fsys := shaderFS(s.shaderDir)

	composite, err := loadPipeline(fsys, passComposite, wgpu.TextureFormatUndefined)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if s.composite, err = newPass(s.r, composite); err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	s.mesh = bind_group_provider.NewBindGroupProvider("eye_quads")
	if err := s.r.InitMeshBuffers(s.mesh, compositor.VertexBytes([2]compositor.EyeQuad{}), compositor.IndexBytes(), compositor.IndicesPerEye); err != nil {
		return fmt.Errorf("scene: eye quads: %w", err)
	}

	s.distortion, err = s.optionalPass(fsys, passDistortion, wgpu.TextureFormatUndefined)
	if err != nil {
		s.log().WithError(err).Warn("lens distortion unavailable, presenting the scene target directly")
	}
	s.snapshot, err = s.optionalPass(fsys, passSnapshot, frameFormat)
	if err != nil {
		s.log().WithError(err).Warn("frame interpolation unavailable")
	}

	s.log().WithFields(logrus.Fields{
		"distortion":    s.distortion != nil,
		"interpolation": s.snapshot != nil,
		"override":      s.shaderDir,
	}).Info("scene initialized")
	return nil
}

func (s *scene) optionalPass(fsys fs.FS, key string, format wgpu.TextureFormat) (*pass, error) {
	p, err := loadPipeline(fsys, key, format)
	if err != nil {
		return nil, err
	}
	return newPass(s.r, p)
}

func (s *scene) RequestReset() {
	s.resetPending.Store(true)
}

func (s *scene) DistortionEnabled() bool {
	return s.distortion != nil
}

func (s *scene) InterpolationAvailable() bool {
	return s.snapshot != nil
}

func (s *scene) Render(now time.Time) (FrameResult, error) {
	var res FrameResult
	if s.composite == nil {
		return res, ErrNotInitialized
	}

	// One snapshot per frame; later mutations apply from the next vsync.
	snap := s.state.Snapshot()
	if s.resetPending.CompareAndSwap(true, false) {
		s.pacer.Reset()
		s.lastGeneration = 0
	}
	s.pacer.Configure(snap.Interpolation.Enabled && s.snapshot != nil, snap.Interpolation.MinDelay)

	width, height := s.r.SurfaceSize()
	if width <= 0 || height <= 0 {
		res.Skipped = true
		return res, nil
	}
	if err := s.ensureSceneTarget(width, height); err != nil {
		return res, err
	}

	if err := s.r.BeginFrame(); err != nil {
		return res, fmt.Errorf("scene: begin frame: %w", err)
	}

	var errs []error
	keep := func(err error) {
		if err == nil {
			return
		}
		if errors.Is(err, renderer.ErrTargetIncomplete) {
			s.log().WithError(err).Debug("pass skipped")
			return
		}
		errs = append(errs, err)
	}

	frame, err := s.source.TryUpdate()
	switch {
	case err == nil && frame != nil && frame.Generation > s.lastGeneration:
		uploaded, acceptErr := s.accept(now, frame)
		res.Real = uploaded
		keep(acceptErr)
	case err != nil && !errors.Is(err, camera.ErrNotReady):
		keep(fmt.Errorf("scene: frame source: %w", err))
	}

	factor := s.pacer.Factor(now)
	res.Interpolated = s.pacer.State() == pacer.Interpolating && factor < 1

	keep(s.drawComposite(snap, width, height, factor))
	keep(s.present(snap, width, height))

	keep(s.r.EndFrame())
	s.r.Present()
	return res, errors.Join(errs...)
}

// accept uploads a new camera frame, first freezing the displayed image into history when the pacer
// asks for it.
func (s *scene) accept(now time.Time, frame *camera.Frame) (bool, error) {
	if s.frames[0] == nil || frame.Width != s.frameWidth || frame.Height != s.frameHeight {
		if err := s.recreateFrameTargets(frame.Width, frame.Height); err != nil {
			return false, err
		}
		s.pacer.Reset()
	}

	var captureErr error
	if s.pacer.OnFrame(now, frame.Interval()).CapturePrevious {
		captureErr = s.capturePrevious()
	}

	next := 1 - s.current
	err := s.r.WriteRenderTarget(s.frames[next], common.TextureStagingData{
		Pixels: frame.Pixels,
		Width:  frame.Width,
		Height: frame.Height,
	})
	if err != nil {
		return false, errors.Join(captureErr, fmt.Errorf("scene: upload frame: %w", err))
	}
	s.current = next
	s.lastGeneration = frame.Generation
	return true, captureErr
}

// capturePrevious renders mix(previous, current, lastFactor), the image on screen right now, into the
// free history texture and makes it the previous image.
func (s *scene) capturePrevious() error {
	next := 1 - s.previous
	if err := s.snapshot.bind(s.r, s.resolver(s.current, s.previous)); err != nil {
		return err
	}
	blend := pacer.GPUBlendParams{Factor: s.lastFactor}
	s.r.WriteBuffers(s.snapshot.uniformWrite(blend.Marshal()))

	if err := s.r.BeginPass(s.history[next]); err != nil {
		return err
	}
	err := s.r.DrawFullscreen(passSnapshot, []bind_group_provider.BindGroupProvider{s.snapshot.provider})
	s.r.EndPass()
	if err != nil {
		return err
	}
	s.previous = next
	return nil
}

// drawComposite renders both eye quads into the scene target. Before the first frame it only clears
// the target; on ErrNotReady it re-renders the retained upload.
func (s *scene) drawComposite(snap *settings.Snapshot, width, height int, factor float32) error {
	if s.frames[s.current] == nil {
		if err := s.r.BeginPass(s.sceneTarget); err != nil {
			return err
		}
		s.r.EndPass()
		return nil
	}

	if err := s.composite.bind(s.r, s.resolver(s.current, s.previous)); err != nil {
		return err
	}
	params := compositor.NewCompositeParams(snap.Post, s.frameWidth, s.frameHeight, factor)
	s.r.WriteBuffers(s.composite.uniformWrite(params.Marshal()))

	quads := compositor.Layout(snap.Eyes, snap.Post.VerticalScale, compositor.Screen{
		Width:       width,
		Height:      height,
		FrameWidth:  int(s.frameWidth),
		FrameHeight: int(s.frameHeight),
		Mirror:      s.mirror,
	})
	if vertices := compositor.VertexBytes(quads); !bytes.Equal(vertices, s.lastVertices) {
		s.r.WriteVertexBuffer(s.mesh, vertices)
		s.lastVertices = vertices
	}

	if err := s.r.BeginPass(s.sceneTarget); err != nil {
		return err
	}
	defer s.r.EndPass()

	groups := []bind_group_provider.BindGroupProvider{s.composite.provider}
	for eye := range 2 {
		if err := s.r.DrawCall(passComposite, s.mesh, int32(eye*compositor.VerticesPerEye), groups); err != nil {
			return err
		}
	}
	s.lastFactor = factor
	return nil
}

// present writes the scene target to the surface through the distortion pass, or copies it when the
// pass is unavailable, failed this frame, or the lens model is the identity.
func (s *scene) present(snap *settings.Snapshot, width, height int) error {
	var distortErr error
	if s.distortion != nil && !lens.Identity(snap.Lens) {
		if distortErr = s.drawDistortion(snap, width, height); distortErr == nil {
			return nil
		}
	}
	return errors.Join(distortErr, s.r.CopyToSurface(s.sceneTarget))
}

func (s *scene) drawDistortion(snap *settings.Snapshot, width, height int) error {
	if err := s.distortion.bind(s.r, s.resolver(s.current, s.previous)); err != nil {
		return err
	}
	params := lens.NewLensParams(snap.Lens, width, height)
	s.r.WriteBuffers(s.distortion.uniformWrite(params.Marshal()))

	if err := s.r.BeginPass(nil); err != nil {
		return err
	}
	defer s.r.EndPass()
	return s.r.DrawFullscreen(passDistortion, []bind_group_provider.BindGroupProvider{s.distortion.provider})
}

// resolver maps provider identities to the views of the given frame and history slots.
func (s *scene) resolver(current, previous int) viewResolver {
	return func(identity shader.AnnotationArg) *wgpu.TextureView {
		switch identity {
		case shader.AnnotationArgFrameCurrent:
			return viewOf(s.frames[current])
		case shader.AnnotationArgFramePrevious:
			return viewOf(s.history[previous])
		case shader.AnnotationArgSceneTarget:
			return viewOf(s.sceneTarget)
		}
		return nil
	}
}

func viewOf(t renderer.RenderTarget) *wgpu.TextureView {
	if t == nil {
		return nil
	}
	return t.View()
}

// ensureSceneTarget keeps the scene target equal to the viewport, recreating it on resize.
func (s *scene) ensureSceneTarget(width, height int) error {
	if s.sceneTarget != nil && s.sceneTarget.Matches(width, height) {
		return nil
	}
	if s.sceneTarget != nil {
		s.sceneTarget.Release()
		s.sceneTarget = nil
	}
	t, err := s.r.CreateRenderTarget("scene_target", width, height, wgpu.TextureFormatUndefined)
	if err != nil {
		return fmt.Errorf("scene: scene target %dx%d: %w", width, height, err)
	}
	s.sceneTarget = t
	s.log().WithFields(logrus.Fields{"width": width, "height": height}).Debug("scene target created")
	return nil
}

// recreateFrameTargets sizes the upload and history textures to a new camera resolution.
func (s *scene) recreateFrameTargets(width, height uint32) error {
	s.releaseFrameTargets()
	for i := range 2 {
		f, err := s.r.CreateRenderTarget(fmt.Sprintf("frame_%d", i), int(width), int(height), frameFormat)
		if err != nil {
			s.releaseFrameTargets()
			return fmt.Errorf("scene: frame texture %dx%d: %w", width, height, err)
		}
		s.frames[i] = f
		h, err := s.r.CreateRenderTarget(fmt.Sprintf("history_%d", i), int(width), int(height), frameFormat)
		if err != nil {
			s.releaseFrameTargets()
			return fmt.Errorf("scene: history texture %dx%d: %w", width, height, err)
		}
		s.history[i] = h
	}
	s.current, s.previous = 0, 0
	s.frameWidth, s.frameHeight = width, height
	s.lastFactor = 1
	s.log().WithFields(logrus.Fields{"width": width, "height": height}).Info("camera textures created")
	return nil
}

func (s *scene) releaseFrameTargets() {
	for i := range 2 {
		if s.frames[i] != nil {
			s.frames[i].Release()
			s.frames[i] = nil
		}
		if s.history[i] != nil {
			s.history[i].Release()
			s.history[i] = nil
		}
	}
	s.frameWidth, s.frameHeight = 0, 0
}

func (s *scene) Release() {
	for _, p := range []*pass{s.composite, s.distortion, s.snapshot} {
		if p != nil {
			p.release()
		}
	}
	if s.mesh != nil {
		s.mesh.Release()
	}
	s.releaseFrameTargets()
	if s.sceneTarget != nil {
		s.sceneTarget.Release()
		s.sceneTarget = nil
	}
	s.lastVertices = nil
}
