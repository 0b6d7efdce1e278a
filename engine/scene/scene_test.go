package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/camera"
	"github.com/Carmen-Shannon/veil/engine/renderer"
	"github.com/Carmen-Shannon/veil/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/veil/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/veil/engine/settings"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeTarget struct {
	label  string
	w, h   int
	format wgpu.TextureFormat
	view   *wgpu.TextureView
}

func (t *fakeTarget) Label() string              { return t.label }
func (t *fakeTarget) Width() int                 { return t.w }
func (t *fakeTarget) Height() int                { return t.h }
func (t *fakeTarget) Format() wgpu.TextureFormat { return t.format }
func (t *fakeTarget) Texture() *wgpu.Texture     { return nil }
func (t *fakeTarget) View() *wgpu.TextureView    { return t.view }
func (t *fakeTarget) Matches(w, h int) bool      { return t.view != nil && t.w == w && t.h == h }
func (t *fakeTarget) Release()                   { t.view = nil }

// recordingRenderer records every GPU-facing call the scene makes.
type recordingRenderer struct {
	width, height int
	failRegister  map[string]bool
	failUpload    error

	registered    map[string]pipeline.Pipeline
	created       []string
	uploads       []string
	uniformWrites map[string]int
	vertexWrites  int
	passes        []string
	draws         []string
	copies        int
	frames        int
	presents      int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		width:         1920,
		height:        1080,
		failRegister:  map[string]bool{},
		registered:    map[string]pipeline.Pipeline{},
		uniformWrites: map[string]int{},
	}
}

var _ renderer.Renderer = &recordingRenderer{}

func (f *recordingRenderer) Pipeline(key string) pipeline.Pipeline { return f.registered[key] }

func (f *recordingRenderer) Pipelines() map[string]pipeline.Pipeline { return f.registered }

func (f *recordingRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		if f.failRegister[p.PipelineKey()] {
			return fmt.Errorf("register pipeline %q: shader module rejected", p.PipelineKey())
		}
		f.registered[p.PipelineKey()] = p
	}
	return nil
}

func (f *recordingRenderer) Resize(w, h int)                                                 { f.width, f.height = w, h }
func (f *recordingRenderer) SetPresentMode(renderer.PresentMode)                             {}
func (f *recordingRenderer) SurfaceFormat() wgpu.TextureFormat                               { return wgpu.TextureFormatBGRA8Unorm }
func (f *recordingRenderer) SurfaceSize() (int, int)                                         { return f.width, f.height }
func (f *recordingRenderer) WriteVertexBuffer(bind_group_provider.BindGroupProvider, []byte) { f.vertexWrites++ }
func (f *recordingRenderer) BeginFrame() error                                               { f.frames++; return nil }
func (f *recordingRenderer) EndPass()                                                        {}
func (f *recordingRenderer) EndFrame() error                                                 { return nil }
func (f *recordingRenderer) Present()                                                        { f.presents++ }
func (f *recordingRenderer) Release()                                                        {}

func (f *recordingRenderer) CreateRenderTarget(label string, w, h int, format wgpu.TextureFormat) (renderer.RenderTarget, error) {
	f.created = append(f.created, label)
	return &fakeTarget{label: label, w: w, h: h, format: format, view: &wgpu.TextureView{}}, nil
}

func (f *recordingRenderer) WriteRenderTarget(target renderer.RenderTarget, data common.TextureStagingData) error {
	if !data.Valid() {
		return errors.New("invalid upload")
	}
	if f.failUpload != nil {
		return f.failUpload
	}
	f.uploads = append(f.uploads, target.Label())
	return nil
}

func (f *recordingRenderer) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	return nil
}

func (f *recordingRenderer) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor) error {
	return nil
}

func (f *recordingRenderer) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	return nil
}

func (f *recordingRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		f.uniformWrites[w.Provider.Label()]++
	}
}

func (f *recordingRenderer) BeginPass(target renderer.RenderTarget) error {
	if target == nil {
		f.passes = append(f.passes, "surface")
		return nil
	}
	if target.View() == nil {
		return renderer.ErrTargetIncomplete
	}
	f.passes = append(f.passes, target.Label())
	return nil
}

func (f *recordingRenderer) DrawCall(key string, _ bind_group_provider.BindGroupProvider, baseVertex int32, _ []bind_group_provider.BindGroupProvider) error {
	if f.registered[key] == nil {
		return renderer.ErrPipelineNotFound
	}
	f.draws = append(f.draws, fmt.Sprintf("%s@%d", key, baseVertex))
	return nil
}

func (f *recordingRenderer) DrawFullscreen(key string, _ []bind_group_provider.BindGroupProvider) error {
	if f.registered[key] == nil {
		return renderer.ErrPipelineNotFound
	}
	f.draws = append(f.draws, key)
	return nil
}

func (f *recordingRenderer) CopyToSurface(renderer.RenderTarget) error {
	f.copies++
	return nil
}

func (f *recordingRenderer) reset() {
	f.passes, f.draws, f.uploads = nil, nil, nil
	f.copies = 0
}

type queuedSource struct {
	frames []*camera.Frame
}

func (q *queuedSource) TryUpdate() (*camera.Frame, error) {
	if len(q.frames) == 0 {
		return nil, camera.ErrNotReady
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, nil
}

func (q *queuedSource) push(generation uint64) {
	const w, h = 64, 16
	q.frames = append(q.frames, &camera.Frame{
		Pixels:     make([]byte, w*h*4),
		Width:      w,
		Height:     h,
		Generation: generation,
		FPS:        30,
	})
}

func newTestScene(t *testing.T, r *recordingRenderer, options ...SceneBuilderOption) (Scene, *queuedSource, settings.State) {
	t.Helper()
	state := settings.NewState(settings.NewMemoryStore())
	src := &queuedSource{}
	s := NewScene(r, src, state, options...)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(s.Release)
	return s, src, state
}

func mustSet(t *testing.T, state settings.State, key settings.Key, v float64) {
	t.Helper()
	if _, err := state.Set(key, v); err != nil {
		t.Fatalf("Set(%s, %v) error = %v", key, v, err)
	}
}

func TestRenderBeforeInit(t *testing.T) {
	s := NewScene(newRecordingRenderer(), &queuedSource{}, settings.NewState(settings.NewMemoryStore()))
	if _, err := s.Render(time.Now()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Render() error = %v, want ErrNotInitialized", err)
	}
}

func TestInitRegistersAllPasses(t *testing.T) {
	r := newRecordingRenderer()
	s, _, _ := newTestScene(t, r)

	for _, key := range []string{passComposite, passDistortion, passSnapshot} {
		if r.registered[key] == nil {
			t.Errorf("pipeline %q not registered", key)
		}
	}
	if !s.DistortionEnabled() || !s.InterpolationAvailable() {
		t.Error("optional passes reported unavailable")
	}
}

func TestRenderBeforeFirstFrameClears(t *testing.T) {
	r := newRecordingRenderer()
	s, _, _ := newTestScene(t, r)

	res, err := s.Render(time.Now())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Real || res.Interpolated {
		t.Errorf("result = %+v before any frame", res)
	}
	if !slices.Equal(r.passes, []string{"scene_target"}) || len(r.draws) != 0 {
		t.Errorf("passes = %v draws = %v, want one clearing pass", r.passes, r.draws)
	}
	if r.presents != 1 {
		t.Errorf("presents = %d, want 1", r.presents)
	}
}

func TestRenderDistortionPass(t *testing.T) {
	r := newRecordingRenderer()
	s, src, state := newTestScene(t, r)
	mustSet(t, state, settings.KeyLensK1, 0.2)

	src.push(1)
	res, err := s.Render(time.Now())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !res.Real {
		t.Error("frame not reported as real")
	}
	wantDraws := []string{"composite@0", "composite@4", "distortion"}
	if !slices.Equal(r.draws, wantDraws) {
		t.Errorf("draws = %v, want %v", r.draws, wantDraws)
	}
	if !slices.Equal(r.passes, []string{"scene_target", "surface"}) {
		t.Errorf("passes = %v", r.passes)
	}
	if r.copies != 0 {
		t.Errorf("copies = %d, want 0", r.copies)
	}
}

func TestRenderIdentityLensCopies(t *testing.T) {
	r := newRecordingRenderer()
	s, src, _ := newTestScene(t, r)

	src.push(1)
	if _, err := s.Render(time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if r.copies != 1 || slices.Contains(r.draws, passDistortion) {
		t.Errorf("copies = %d draws = %v, want a plain copy", r.copies, r.draws)
	}
}

func TestRenderBlitFallbackWhenDistortionFails(t *testing.T) {
	r := newRecordingRenderer()
	r.failRegister[passDistortion] = true
	s, src, state := newTestScene(t, r)
	mustSet(t, state, settings.KeyLensK1, 0.2)

	if s.DistortionEnabled() {
		t.Fatal("distortion reported enabled after failed registration")
	}
	src.push(1)
	if _, err := s.Render(time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if r.copies != 1 {
		t.Errorf("copies = %d, want 1", r.copies)
	}
	if !slices.Equal(r.draws, []string{"composite@0", "composite@4"}) {
		t.Errorf("draws = %v", r.draws)
	}
}

func TestShaderOverrideFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "distortion.wgsl"), []byte("not a shader"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newRecordingRenderer()
	s, _, _ := newTestScene(t, r, WithShaderDir(dir))

	if s.DistortionEnabled() {
		t.Error("broken override distortion program accepted")
	}
	if r.registered[passComposite] == nil || r.registered[passSnapshot] == nil {
		t.Error("bundled programs not used for files missing from the override")
	}
}

func TestIdenticalStateWritesOnce(t *testing.T) {
	r := newRecordingRenderer()
	s, src, state := newTestScene(t, r)
	mustSet(t, state, settings.KeyInterpolationEnabled, 0)
	mustSet(t, state, settings.KeyConvergence, 0.3)

	src.push(1)
	now := time.Now()
	for i := range 3 {
		if _, err := s.Render(now.Add(time.Duration(i) * 16 * time.Millisecond)); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}
	mustSet(t, state, settings.KeyConvergence, 0.3)
	if _, err := s.Render(now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if r.uniformWrites[passComposite] != 1 || r.vertexWrites != 1 {
		t.Errorf("uniform writes = %d vertex writes = %d, want 1 each", r.uniformWrites[passComposite], r.vertexWrites)
	}

	mustSet(t, state, settings.KeyConvergence, 0.4)
	if _, err := s.Render(now.Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if r.vertexWrites != 2 {
		t.Errorf("vertex writes = %d after a convergence change, want 2", r.vertexWrites)
	}
	if r.uniformWrites[passComposite] != 1 {
		t.Errorf("uniform writes = %d after a geometry-only change, want 1", r.uniformWrites[passComposite])
	}
}

func TestRenderInterpolationCapturesPrevious(t *testing.T) {
	r := newRecordingRenderer()
	s, src, _ := newTestScene(t, r)
	t0 := time.Now()

	src.push(1)
	if _, err := s.Render(t0); err != nil {
		t.Fatal(err)
	}
	if slices.Contains(r.draws, passSnapshot) {
		t.Error("cold start captured a previous image")
	}

	r.reset()
	src.push(2)
	arrival := t0.Add(40 * time.Millisecond)
	res, err := s.Render(arrival)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(r.passes[:2], []string{"history_1", "scene_target"}) {
		t.Errorf("passes = %v, want snapshot before composite", r.passes)
	}
	if r.draws[0] != passSnapshot {
		t.Errorf("draws = %v, want snapshot first", r.draws)
	}
	if res.Interpolated {
		t.Error("arrival frame reported interpolated")
	}
	if !slices.Equal(r.uploads, []string{"frame_0"}) {
		t.Errorf("uploads = %v, want the free frame texture", r.uploads)
	}

	res, err = s.Render(arrival.Add(20 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if res.Real || !res.Interpolated {
		t.Errorf("result = %+v, want an interpolated frame", res)
	}
}

func TestStaleGenerationIgnored(t *testing.T) {
	r := newRecordingRenderer()
	s, src, _ := newTestScene(t, r)

	src.push(5)
	src.push(3)
	now := time.Now()
	if res, _ := s.Render(now); !res.Real {
		t.Fatal("first frame not uploaded")
	}
	res, err := s.Render(now.Add(16 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if res.Real || len(r.uploads) != 1 {
		t.Errorf("stale frame uploaded: uploads = %v", r.uploads)
	}

	s.RequestReset()
	src.push(3)
	if res, _ := s.Render(now.Add(32 * time.Millisecond)); !res.Real {
		t.Error("frame after reset rejected")
	}
}

func TestResizeRecreatesSceneTarget(t *testing.T) {
	r := newRecordingRenderer()
	s, _, _ := newTestScene(t, r)
	now := time.Now()

	for range 2 {
		if _, err := s.Render(now); err != nil {
			t.Fatal(err)
		}
	}
	r.Resize(1280, 720)
	if _, err := s.Render(now); err != nil {
		t.Fatal(err)
	}

	n := 0
	for _, label := range r.created {
		if label == "scene_target" {
			n++
		}
	}
	if n != 2 {
		t.Errorf("scene targets created = %d, want 2", n)
	}
}

func TestRenderSkipsZeroSurface(t *testing.T) {
	r := newRecordingRenderer()
	s, _, _ := newTestScene(t, r)
	r.Resize(0, 0)

	res, err := s.Render(time.Now())
	if err != nil || !res.Skipped {
		t.Errorf("Render() = %+v, %v, want skipped", res, err)
	}
	if r.frames != 0 {
		t.Errorf("frames begun = %d, want 0", r.frames)
	}
}

func TestUploadErrorIsStableAcrossFrames(t *testing.T) {
	r := newRecordingRenderer()
	r.failUpload = errors.New("queue lost")
	s, src, _ := newTestScene(t, r)
	now := time.Now()

	var msgs []string
	for gen := uint64(1); gen <= 2; gen++ {
		src.push(gen)
		res, err := s.Render(now.Add(time.Duration(gen) * 16 * time.Millisecond))
		if err == nil || !errors.Is(err, r.failUpload) {
			t.Fatalf("generation %d: err = %v, want the upload error", gen, err)
		}
		if res.Real {
			t.Errorf("generation %d reported as uploaded", gen)
		}
		msgs = append(msgs, err.Error())
	}
	if msgs[0] != msgs[1] {
		t.Errorf("upload errors differ per frame: %q vs %q", msgs[0], msgs[1])
	}
}
