package scene

import "github.com/Carmen-Shannon/veil/engine/pacer"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithShaderDir loads shader programs from dir before the bundled copies. Files missing from dir
// fall back to the bundled program of the same name.
//
// Parameters:
//   - dir: the override directory, "" for bundled programs only
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShaderDir(dir string) SceneBuilderOption {
	return func(s *scene) {
		s.shaderDir = dir
	}
}

// WithMirror sets whether the composite is mirrored horizontally. Defaults to true.
//
// Parameters:
//   - mirror: whether to flip x
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMirror(mirror bool) SceneBuilderOption {
	return func(s *scene) {
		s.mirror = mirror
	}
}

// WithPacer replaces the default frame pacer.
//
// Parameters:
//   - p: the pacer, owned by the scene from now on
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPacer(p *pacer.Pacer) SceneBuilderOption {
	return func(s *scene) {
		s.pacer = p
	}
}
