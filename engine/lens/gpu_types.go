package lens

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/veil/engine/settings"
)

// GPULensParamsSource is the canonical WGSL definition of the LensParams uniform struct.
// Matches GPULensParams layout exactly (32 bytes).
//
//go:embed assets/lens_params.wgsl
var GPULensParamsSource string

// GPULensParams is the uniform block of the distortion pass.
// Size: 32 bytes.
type GPULensParams struct {
	K       [4]float32 // offset  0: k1, k2, k3, eye aspect (vec4<f32>)
	Centers [4]float32 // offset 16: left x, left y, right x, right y (vec4<f32>)
}

// NewLensParams builds the uniform block for a scene of the given size.
//
// Parameters:
//   - m: the lens model
//   - sceneWidth, sceneHeight: the scene target size in pixels
//
// Returns:
//   - GPULensParams: the uniform block
func NewLensParams(m settings.LensModel, sceneWidth, sceneHeight int) GPULensParams {
	left, right := Center(m, false), Center(m, true)
	return GPULensParams{
		K: [4]float32{float32(m.K1), float32(m.K2), float32(m.K3), float32(EyeAspect(sceneWidth, sceneHeight))},
		Centers: [4]float32{
			float32(left.X), float32(left.Y),
			float32(right.X), float32(right.Y),
		},
	}
}

// Size returns the size of the GPULensParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULensParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULensParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULensParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.K[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Centers[i]))
	}
	return buf
}
