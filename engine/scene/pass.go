package scene

import (
	"bytes"
	"fmt"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/renderer"
	"github.com/Carmen-Shannon/veil/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/veil/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/veil/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline keys, also the shader file stems under assets/.
const (
	passComposite  = "composite"
	passDistortion = "distortion"
	passSnapshot   = "snapshot"
)

// viewResolver returns the texture view currently backing a provider identity, or nil.
type viewResolver func(identity shader.AnnotationArg) *wgpu.TextureView

// pass is one registered pipeline plus the single bind group it draws with. Resources are wired by
// the provider identities declared in the shader, not by variable name.
type pass struct {
	key        string
	pipeline   pipeline.Pipeline
	provider   bind_group_provider.BindGroupProvider
	descriptor wgpu.BindGroupLayoutDescriptor

	uniformBinding int
	views          map[int]shader.AnnotationArg
	samplers       []int

	bound       map[int]*wgpu.TextureView
	lastUniform []byte
}

// newPass reads the declarations of the pass's fragment shader and registers its pipeline.
func newPass(r renderer.Renderer, p pipeline.Pipeline) (*pass, error) {
	fragment := p.Shader(shader.ShaderTypeFragment)
	if fragment == nil {
		return nil, fmt.Errorf("pass %s: no fragment shader", p.PipelineKey())
	}

	ps := &pass{
		key:            p.PipelineKey(),
		pipeline:       p,
		provider:       bind_group_provider.NewBindGroupProvider(p.PipelineKey()),
		descriptor:     p.BindGroupLayoutDescriptors()[0],
		uniformBinding: -1,
		views:          make(map[int]shader.AnnotationArg),
		bound:          make(map[int]*wgpu.TextureView),
	}

	for _, decl := range fragment.Declarations() {
		if decl.Group == nil || decl.Binding == nil || *decl.Group != 0 {
			continue
		}
		switch decl.Type {
		case shader.AnnotationTypeBindingGroup:
			ps.uniformBinding = *decl.Binding
		case shader.AnnotationTypeProvider:
			if decl.Args[0] == shader.AnnotationArgLinearSampler {
				ps.samplers = append(ps.samplers, *decl.Binding)
			} else {
				ps.views[*decl.Binding] = decl.Args[0]
			}
		}
	}
	if ps.uniformBinding < 0 {
		return nil, fmt.Errorf("pass %s: no uniform binding declared", ps.key)
	}

	if err := r.RegisterPipelines(p); err != nil {
		return nil, err
	}
	for _, binding := range ps.samplers {
		if err := r.InitSampler(ps.provider, binding, common.ClampToEdgeSampler()); err != nil {
			return nil, fmt.Errorf("pass %s: sampler %d: %w", ps.key, binding, err)
		}
	}
	return ps, nil
}

// bind points the pass at the current texture views, rebuilding the bind group only when a view
// changed. A missing view means its target does not exist yet.
func (ps *pass) bind(r renderer.Renderer, resolve viewResolver) error {
	dirty := ps.provider.BindGroup() == nil
	for binding, identity := range ps.views {
		view := resolve(identity)
		if view == nil {
			return fmt.Errorf("pass %s: %s: %w", ps.key, identity, renderer.ErrTargetIncomplete)
		}
		if ps.bound[binding] != view {
			ps.provider.SetTextureView(binding, view)
			ps.bound[binding] = view
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	if err := r.InitBindGroup(ps.provider, ps.descriptor); err != nil {
		return fmt.Errorf("pass %s: bind group: %w", ps.key, err)
	}
	return nil
}

// uniformWrite stages data for the pass's uniform buffer, or returns nil when the bytes equal the
// last staged write.
func (ps *pass) uniformWrite(data []byte) []bind_group_provider.BufferWrite {
	if bytes.Equal(ps.lastUniform, data) {
		return nil
	}
	ps.lastUniform = append(ps.lastUniform[:0], data...)
	return []bind_group_provider.BufferWrite{{
		Provider: ps.provider,
		Binding:  ps.uniformBinding,
		Data:     data,
	}}
}

func (ps *pass) release() {
	ps.provider.Release()
	clear(ps.bound)
	ps.lastUniform = nil
}
