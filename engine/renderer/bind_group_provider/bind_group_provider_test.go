package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProvider(t *testing.T) {
	view := &wgpu.TextureView{}
	p := NewBindGroupProvider("composite", WithTextureView(1, view), WithIndexCount(6))

	if p.Label() != "composite" {
		t.Errorf("label = %q", p.Label())
	}
	if p.TextureView(1) != view {
		t.Error("texture view option not applied")
	}
	if p.IndexCount() != 6 {
		t.Errorf("index count = %d", p.IndexCount())
	}
	if p.BindGroup() != nil || p.Buffer(0) != nil || p.Sampler(2) != nil {
		t.Error("GPU resources set before initialization")
	}
}

func TestReleaseForgetsBorrowedViews(t *testing.T) {
	p := NewBindGroupProvider("distortion")
	p.SetTextureView(1, &wgpu.TextureView{})
	p.SetIndexCount(12)

	p.Release()

	if p.TextureView(1) != nil {
		t.Error("borrowed view kept after Release")
	}
	if p.IndexCount() != 0 {
		t.Errorf("index count = %d after Release", p.IndexCount())
	}
	p.ReleaseBindGroup()
	p.Release()
}

func TestBufferWriteTargetsProvider(t *testing.T) {
	p := NewBindGroupProvider("params")
	w := BufferWrite{Provider: p, Binding: 0, Data: []byte{1, 2, 3, 4}}
	if w.Provider.Label() != "params" || len(w.Data) != 4 {
		t.Errorf("write = %+v", w)
	}
}
