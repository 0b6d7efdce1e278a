package compositor

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/veil/engine/settings"
)

// GPUEyeVertexSource is the canonical WGSL definition of the EyeVertex input struct.
// Matches GPUEyeVertex layout exactly (16 bytes).
//
//go:embed assets/eye_vertex.wgsl
var GPUEyeVertexSource string

// GPUCompositeParamsSource is the canonical WGSL definition of the CompositeParams uniform struct.
// Matches GPUCompositeParams layout exactly (32 bytes).
//
//go:embed assets/composite_params.wgsl
var GPUCompositeParamsSource string

// GPUEyeVertex is one corner of an eye quad.
// Size: 16 bytes.
type GPUEyeVertex struct {
	Position [2]float32 // offset 0: NDC position (vec2<f32>)
	UV       [2]float32 // offset 8: source texture coordinate (vec2<f32>)
}

// Size returns the size of the GPUEyeVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUEyeVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUEyeVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUEyeVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, g.Position[0], g.Position[1], g.UV[0], g.UV[1])
	return buf
}

// GPUCompositeParams is the uniform block of the composite pass.
// Size: 32 bytes.
type GPUCompositeParams struct {
	TexelSize   [2]float32 // offset  0: 1/width, 1/height of the camera texture (vec2<f32>)
	BlendFactor float32    // offset  8: weight of the current frame against the previous one
	Sharpness   float32    // offset 12
	Contrast    float32    // offset 16
	Brightness  float32    // offset 20
	Saturation  float32    // offset 24
	_pad        float32    // offset 28: padding to 32 bytes
}

// NewCompositeParams builds the uniform block for a frame.
//
// Parameters:
//   - post: the post-process parameters
//   - frameWidth, frameHeight: the camera texture size in pixels
//   - blend: the frame pacer blend factor, 1 for the current frame only
//
// Returns:
//   - GPUCompositeParams: the uniform block
func NewCompositeParams(post settings.PostProcessParams, frameWidth, frameHeight uint32, blend float32) GPUCompositeParams {
	p := GPUCompositeParams{
		BlendFactor: blend,
		Sharpness:   float32(post.Sharpness),
		Contrast:    float32(post.Contrast),
		Brightness:  float32(post.Brightness),
		Saturation:  float32(post.Saturation),
	}
	if frameWidth > 0 && frameHeight > 0 {
		p.TexelSize = [2]float32{1 / float32(frameWidth), 1 / float32(frameHeight)}
	}
	return p
}

// Size returns the size of the GPUCompositeParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUCompositeParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCompositeParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCompositeParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, g.TexelSize[0], g.TexelSize[1], g.BlendFactor, g.Sharpness, g.Contrast, g.Brightness, g.Saturation, 0)
	return buf
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
