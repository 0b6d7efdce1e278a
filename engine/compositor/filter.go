package compositor

import (
	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/settings"
)

// RGB is a linear color with components in [0, 1].
type RGB [3]float32

// Blur kernel weights for the 3x3 unsharp mask.
const (
	kernelCenter = 0.25
	kernelEdge   = 0.125
	kernelCorner = 0.0625
)

// Luma weights used by the saturation step.
var luma = RGB{0.299, 0.587, 0.114}

// Filter applies the post-process chain to the center of a 3x3 neighborhood given in row-major order
// (index 4 is the center): unsharp mask, contrast, brightness, saturation. It mirrors the fragment
// stage of composite.wgsl and is used to verify it.
//
// Parameters:
//   - n: the 3x3 neighborhood, row-major
//   - p: the post-process parameters
//
// Returns:
//   - RGB: the filtered color, clamped to [0, 1]
func Filter(n [9]RGB, p settings.PostProcessParams) RGB {
	sharpness := float32(p.Sharpness)
	contrast := float32(p.Contrast)
	brightness := float32(p.Brightness)
	saturation := float32(p.Saturation)

	var out RGB
	for c := range 3 {
		blur := kernelCenter*n[4][c] +
			kernelEdge*(n[1][c]+n[3][c]+n[5][c]+n[7][c]) +
			kernelCorner*(n[0][c]+n[2][c]+n[6][c]+n[8][c])
		v := n[4][c] + (n[4][c]-blur)*sharpness
		v = (v-0.5)*contrast + 0.5
		out[c] = v + brightness
	}

	l := luma[0]*out[0] + luma[1]*out[1] + luma[2]*out[2]
	for c := range 3 {
		out[c] = common.Clamp(common.Mix(l, out[c], saturation), 0, 1)
	}
	return out
}

// Uniform returns a neighborhood where every texel is c.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - [9]RGB: the flat neighborhood
func Uniform(c RGB) [9]RGB {
	var n [9]RGB
	for i := range n {
		n[i] = c
	}
	return n
}
