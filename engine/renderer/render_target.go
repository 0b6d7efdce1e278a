package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderTarget is an offscreen color texture that passes render into and later passes sample.
// The camera texture, the two frame history textures and the scene target are all render targets.
// Targets are owned by the render thread and recreated, never resized, when their size changes.
type RenderTarget interface {
	// Label returns the debug label of the texture.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Width returns the texture width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the texture height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Format returns the texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the format
	Format() wgpu.TextureFormat

	// Texture returns the GPU texture, or nil after Release.
	//
	// Returns:
	//   - *wgpu.Texture: the texture
	Texture() *wgpu.Texture

	// View returns the default view of the texture, or nil after Release.
	//
	// Returns:
	//   - *wgpu.TextureView: the view
	View() *wgpu.TextureView

	// Matches reports whether the target is live and has the given size.
	//
	// Parameters:
	//   - width: the expected width in pixels
	//   - height: the expected height in pixels
	//
	// Returns:
	//   - bool: true if the target can be reused for that size
	Matches(width, height int) bool

	// Release destroys the texture and its view. Safe to call more than once.
	Release()
}

type renderTarget struct {
	label   string
	width   int
	height  int
	format  wgpu.TextureFormat
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

var _ RenderTarget = &renderTarget{}

func (t *renderTarget) Label() string {
	return t.label
}

func (t *renderTarget) Width() int {
	return t.width
}

func (t *renderTarget) Height() int {
	return t.height
}

func (t *renderTarget) Format() wgpu.TextureFormat {
	return t.format
}

func (t *renderTarget) Texture() *wgpu.Texture {
	return t.texture
}

func (t *renderTarget) View() *wgpu.TextureView {
	return t.view
}

func (t *renderTarget) Matches(width, height int) bool {
	return t.view != nil && t.width == width && t.height == height
}

func (t *renderTarget) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// complete reports whether a pass can render into the target.
func complete(t RenderTarget) bool {
	return t != nil && t.View() != nil && t.Width() > 0 && t.Height() > 0
}
