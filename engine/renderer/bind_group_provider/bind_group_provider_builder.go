package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithTextureView pre-populates a borrowed texture view for a binding.
//
// Parameters:
//   - binding: the binding index
//   - tv: the texture view, owned by a render target
//
// Returns:
//   - BindGroupProviderOption: a function that sets the texture view for the binding
func WithTextureView(binding int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = tv
	}
}

// WithIndexCount sets the index count of a mesh provider whose buffers are created later.
//
// Parameters:
//   - count: the number of indices drawn per eye
//
// Returns:
//   - BindGroupProviderOption: a function that sets the index count
func WithIndexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexCount = count
	}
}
