package scene

import (
	"embed"
	"errors"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/veil/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/veil/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/*.wgsl
var embeddedShaders embed.FS

// overlayFS serves files from an override directory first and falls back to the bundled shaders
// per file, so an override directory may replace any subset of the programs.
type overlayFS struct {
	override fs.FS
	base     fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if o.override != nil {
		f, err := o.override.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return o.base.Open(name)
}

// shaderFS returns the file system the passes load their programs from.
func shaderFS(overrideDir string) fs.FS {
	base, _ := fs.Sub(embeddedShaders, "assets")
	if overrideDir == "" {
		return base
	}
	return overlayFS{override: os.DirFS(overrideDir), base: base}
}

// loadPipeline builds the vertex and fragment stages of one program file into an unregistered pipeline.
func loadPipeline(fsys fs.FS, key string, colorFormat wgpu.TextureFormat) (pipeline.Pipeline, error) {
	path := key + ".wgsl"
	vs, err := shader.NewShader(key+"_vs", shader.ShaderTypeVertex, fsys, path)
	if err != nil {
		return nil, err
	}
	frag, err := shader.NewShader(key+"_fs", shader.ShaderTypeFragment, fsys, path)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(key,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(frag),
		pipeline.WithColorFormat(colorFormat),
	), nil
}
