package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/veil/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeBackend struct {
	registered  []string
	failKey     string
	indexed     []int32
	fullscreen  int
	releaseSeen bool
}

func (f *fakeBackend) ConfigureSurface(int, int)                                       {}
func (f *fakeBackend) SetPresentMode(PresentMode)                                      {}
func (f *fakeBackend) SetClearColor(wgpu.Color)                                        {}
func (f *fakeBackend) SurfaceFormat() wgpu.TextureFormat                               { return wgpu.TextureFormatBGRA8Unorm }
func (f *fakeBackend) SurfaceSize() (int, int)                                         { return 1920, 1080 }
func (f *fakeBackend) BeginFrame() error                                               { return nil }
func (f *fakeBackend) BeginPass(RenderTarget) error                                    { return nil }
func (f *fakeBackend) EndPass()                                                        {}
func (f *fakeBackend) CopyToSurface(RenderTarget) error                                { return nil }
func (f *fakeBackend) EndFrame() error                                                 { return nil }
func (f *fakeBackend) Present()                                                        {}
func (f *fakeBackend) Release()                                                        { f.releaseSeen = true }
func (f *fakeBackend) WriteBuffers([]bind_group_provider.BufferWrite)                  {}
func (f *fakeBackend) WriteVertexBuffer(bind_group_provider.BindGroupProvider, []byte) {}

func (f *fakeBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.PipelineKey() == f.failKey {
		return errors.New("shader module rejected")
	}
	f.registered = append(f.registered, p.PipelineKey())
	return nil
}

func (f *fakeBackend) CreateRenderTarget(label string, w, h int, format wgpu.TextureFormat) (RenderTarget, error) {
	return &renderTarget{label: label, width: w, height: h, format: format}, nil
}

func (f *fakeBackend) WriteRenderTarget(RenderTarget, common.TextureStagingData) error { return nil }

func (f *fakeBackend) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	return nil
}

func (f *fakeBackend) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor) error {
	return nil
}

func (f *fakeBackend) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	return nil
}

func (f *fakeBackend) DrawIndexed(_ pipeline.Pipeline, _ bind_group_provider.BindGroupProvider, baseVertex int32, _ []bind_group_provider.BindGroupProvider) {
	f.indexed = append(f.indexed, baseVertex)
}

func (f *fakeBackend) DrawFullscreen(pipeline.Pipeline, []bind_group_provider.BindGroupProvider) {
	f.fullscreen++
}

func newTestRenderer(b *fakeBackend) *renderer {
	return &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backend:       b,
	}
}

func TestRegisterPipelinesSkipsDuplicates(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRenderer(b)

	composite := pipeline.NewPipeline("composite")
	if err := r.RegisterPipelines(composite, pipeline.NewPipeline("distortion")); err != nil {
		t.Fatalf("RegisterPipelines() error = %v", err)
	}
	if err := r.RegisterPipelines(composite); err != nil {
		t.Fatalf("second RegisterPipelines() error = %v", err)
	}

	if len(b.registered) != 2 {
		t.Errorf("backend registrations = %v, want 2", b.registered)
	}
	if r.Pipeline("composite") != composite {
		t.Error("composite not cached")
	}
}

func TestRegisterPipelinesFailureLeavesKeyUnregistered(t *testing.T) {
	b := &fakeBackend{failKey: "distortion"}
	r := newTestRenderer(b)

	err := r.RegisterPipelines(pipeline.NewPipeline("composite"), pipeline.NewPipeline("distortion"))
	if err == nil {
		t.Fatal("expected registration error")
	}
	if r.Pipeline("composite") == nil {
		t.Error("pipeline registered before the failure was dropped")
	}
	if r.Pipeline("distortion") != nil {
		t.Error("failed pipeline cached")
	}
	if err := r.DrawFullscreen("distortion", nil); !errors.Is(err, ErrPipelineNotFound) {
		t.Errorf("DrawFullscreen() error = %v, want ErrPipelineNotFound", err)
	}
}

func TestDrawCallForwardsBaseVertex(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRenderer(b)
	if err := r.RegisterPipelines(pipeline.NewPipeline("composite")); err != nil {
		t.Fatal(err)
	}
	mesh := bind_group_provider.NewBindGroupProvider("eyes")

	for _, base := range []int32{0, 4} {
		if err := r.DrawCall("composite", mesh, base, nil); err != nil {
			t.Fatalf("DrawCall(%d) error = %v", base, err)
		}
	}
	if len(b.indexed) != 2 || b.indexed[0] != 0 || b.indexed[1] != 4 {
		t.Errorf("base vertices = %v, want [0 4]", b.indexed)
	}
}

func TestPipelinesReturnsCopy(t *testing.T) {
	r := newTestRenderer(&fakeBackend{})
	if err := r.RegisterPipelines(pipeline.NewPipeline("composite")); err != nil {
		t.Fatal(err)
	}
	delete(r.Pipelines(), "composite")
	if r.Pipeline("composite") == nil {
		t.Error("mutating Pipelines() result changed the cache")
	}
}

func TestReleaseClearsCache(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRenderer(b)
	if err := r.RegisterPipelines(pipeline.NewPipeline("composite")); err != nil {
		t.Fatal(err)
	}
	r.Release()
	if len(r.Pipelines()) != 0 || !b.releaseSeen {
		t.Error("Release did not clear pipelines and backend")
	}
}

func TestRenderTargetMatches(t *testing.T) {
	tests := []struct {
		name   string
		target *renderTarget
		w, h   int
		want   bool
	}{
		{"live same size", &renderTarget{width: 640, height: 480, view: &wgpu.TextureView{}}, 640, 480, true},
		{"live other size", &renderTarget{width: 640, height: 480, view: &wgpu.TextureView{}}, 1280, 720, false},
		{"released", &renderTarget{width: 640, height: 480}, 640, 480, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.Matches(tt.w, tt.h); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	if complete(nil) {
		t.Error("nil target reported complete")
	}
	if complete(&renderTarget{width: 0, height: 10, view: &wgpu.TextureView{}}) {
		t.Error("zero width target reported complete")
	}
	if !complete(&renderTarget{width: 10, height: 10, view: &wgpu.TextureView{}}) {
		t.Error("live target reported incomplete")
	}
}

func TestPreferredSurfaceFormat(t *testing.T) {
	tests := []struct {
		name    string
		formats []wgpu.TextureFormat
		want    wgpu.TextureFormat
	}{
		{"srgb first", []wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm}, wgpu.TextureFormatBGRA8Unorm},
		{"rgba only", []wgpu.TextureFormat{wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatRGBA8Unorm}, wgpu.TextureFormatRGBA8Unorm},
		{"no linear", []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}, wgpu.TextureFormatRGBA16Float},
		{"empty", nil, wgpu.TextureFormatBGRA8Unorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preferredSurfaceFormat(tt.formats); got != tt.want {
				t.Errorf("preferredSurfaceFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}
