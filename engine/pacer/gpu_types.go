package pacer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBlendParamsSource is the canonical WGSL definition of the BlendParams uniform struct.
// Matches GPUBlendParams layout exactly (16 bytes).
//
//go:embed assets/blend_params.wgsl
var GPUBlendParamsSource string

// GPUBlendParams is the uniform block of the snapshot pass.
// Size: 16 bytes.
type GPUBlendParams struct {
	Factor float32    // offset 0: weight of the current frame
	_pad   [3]float32 // offset 4: padding to 16 bytes
}

// Size returns the size of the GPUBlendParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUBlendParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBlendParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUBlendParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf, math.Float32bits(g.Factor))
	return buf
}
