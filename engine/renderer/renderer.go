package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/veil/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/veil/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	clearColor           wgpu.Color
}

// Renderer is the frame-level GPU API the scene renders through.
//
// A frame is BeginFrame, one or more BeginPass/draw/EndPass sequences targeting offscreen RenderTargets
// or the surface, then EndFrame and Present. All passes of a frame are submitted together.
// Pipelines are registered once and referenced by key afterwards.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline for key, or nil.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline, or nil if not registered
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: pipeline keys to Pipelines
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU pipelines and caches them by PipelineKey.
	// Keys that are already registered are skipped. Registration stops at the first failure; pipelines
	// registered before it stay cached.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error naming the pipeline that failed
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetPresentMode sets the present mode; it takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the swapchain format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the configured swapchain size.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	SurfaceSize() (int, int)

	// CreateRenderTarget creates an offscreen color target.
	//
	// Parameters:
	//   - label: the debug label
	//   - width, height: the size in pixels
	//   - format: the texture format, wgpu.TextureFormatUndefined for the surface format
	//
	// Returns:
	//   - RenderTarget: the new target
	//   - error: an error if the target could not be created
	CreateRenderTarget(label string, width, height int, format wgpu.TextureFormat) (RenderTarget, error)

	// WriteRenderTarget uploads RGBA8 pixels covering the whole target.
	//
	// Parameters:
	//   - target: the destination target
	//   - data: the pixels
	//
	// Returns:
	//   - error: an error if the target is incomplete or the sizes differ
	WriteRenderTarget(target RenderTarget, data common.TextureStagingData) error

	// InitMeshBuffers creates GPU vertex and index buffers on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffers on
	//   - vertexData: the initial vertex bytes
	//   - indexData: the index bytes
	//   - indexCount: the number of indices per draw call
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// WriteVertexBuffer overwrites the provider's vertex buffer.
	//
	// Parameters:
	//   - provider: the mesh provider
	//   - data: the vertex bytes
	WriteVertexBuffer(provider bind_group_provider.BindGroupProvider, data []byte)

	// InitBindGroup creates missing uniform buffers and a fresh bind group on the provider. Texture
	// views and samplers must already be set.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the bind group on
	//   - descriptor: the layout descriptor of the group
	//
	// Returns:
	//   - error: an error if a binding is missing or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// InitSampler creates a sampler on the provider at bindingKey.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: the writes to apply
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain image and starts recording the frame.
	//
	// Returns:
	//   - error: an error if the image could not be acquired
	BeginFrame() error

	// BeginPass starts a clearing render pass into target, or into the surface when target is nil.
	//
	// Parameters:
	//   - target: the attachment, or nil
	//
	// Returns:
	//   - error: ErrTargetIncomplete when the attachment cannot be rendered to, or ErrNoFrame
	BeginPass(target RenderTarget) error

	// DrawCall draws the mesh with the registered pipeline.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - meshProvider: the provider holding vertex and index buffers
	//   - baseVertex: the vertex offset added to each index
	//   - bindGroups: providers bound at group 0, 1, ...
	//
	// Returns:
	//   - error: ErrPipelineNotFound if the key is not registered
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, baseVertex int32, bindGroups []bind_group_provider.BindGroupProvider) error

	// DrawFullscreen draws one attachment-covering triangle with the registered pipeline.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - bindGroups: providers bound at group 0, 1, ...
	//
	// Returns:
	//   - error: ErrPipelineNotFound if the key is not registered
	DrawFullscreen(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndPass ends the current pass.
	EndPass()

	// CopyToSurface copies src into the swapchain image.
	//
	// Parameters:
	//   - src: a target with the surface's size and format
	//
	// Returns:
	//   - error: an error if the copy is not possible this frame
	CopyToSurface(src RenderTarget) error

	// EndFrame submits the recorded frame.
	//
	// Returns:
	//   - error: an error if the frame could not be submitted
	EndFrame() error

	// Present displays the swapchain image.
	Present()

	// Release releases the GPU pipelines and the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer for the window using the given backend.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - window: the window providing the surface
//   - options: optional builder options
//
// Returns:
//   - Renderer: the new renderer, with the surface configured to the window size
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		clearColor:    wgpu.Color{A: 1},
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(r.clearColor)

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) CreateRenderTarget(label string, width, height int, format wgpu.TextureFormat) (RenderTarget, error) {
	return r.backend.CreateRenderTarget(label, width, height, format)
}

func (r *renderer) WriteRenderTarget(target RenderTarget, data common.TextureStagingData) error {
	return r.backend.WriteRenderTarget(target, data)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) WriteVertexBuffer(provider bind_group_provider.BindGroupProvider, data []byte) {
	r.backend.WriteVertexBuffer(provider, data)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	return r.backend.InitBindGroup(provider, descriptor)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	if len(writes) == 0 {
		return
	}
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) BeginPass(target RenderTarget) error {
	return r.backend.BeginPass(target)
}

func (r *renderer) lookup(pipelineKey string) (pipeline.Pipeline, error) {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("%q: %w", pipelineKey, ErrPipelineNotFound)
	}
	return p, nil
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, baseVertex int32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	r.backend.DrawIndexed(p, meshProvider, baseVertex, bindGroups)
	return nil
}

func (r *renderer) DrawFullscreen(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	r.backend.DrawFullscreen(p, bindGroups)
	return nil
}

func (r *renderer) EndPass() {
	r.backend.EndPass()
}

func (r *renderer) CopyToSurface(src RenderTarget) error {
	return r.backend.CopyToSurface(src)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
