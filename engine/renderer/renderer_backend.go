package renderer

import "errors"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. The render loop is paced
	// by this mode: one pipeline invocation per display refresh.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

var (
	// ErrTargetIncomplete is returned by BeginPass when the attachment cannot be rendered to this
	// frame: the target was released, has no size, or the surface image was not acquired.
	// The caller skips the pass and keeps the target's previous content.
	ErrTargetIncomplete = errors.New("render target incomplete")

	// ErrPipelineNotFound is returned when a draw names a pipeline that was never registered.
	ErrPipelineNotFound = errors.New("render pipeline not found")

	// ErrNoFrame is returned by frame operations called outside BeginFrame and EndFrame.
	ErrNoFrame = errors.New("no frame in progress")
)

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
