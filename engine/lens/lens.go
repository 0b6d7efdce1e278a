// Package lens implements the radial distortion model used to pre-warp each eye for the viewer optics.
// The same math runs in distortion.wgsl; these functions are its CPU reference.
package lens

import (
	"math"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/settings"
)

// Point is a 2D coordinate in eye-local texture space: x and y in [0, 1] across one eye half, y down.
type Point struct {
	X, Y float64
}

// Factor evaluates the radial polynomial 1 + k1*r^2 + k2*r^4 + k3*r^6.
//
// Parameters:
//   - k1, k2, k3: the distortion coefficients
//   - r: the corrected radius
//
// Returns:
//   - float64: the scale applied to the offset from the optical center
func Factor(k1, k2, k3, r float64) float64 {
	r2 := r * r
	return 1 + r2*(k1+r2*(k2+r2*k3))
}

// EyeAspect returns sceneHeight / (sceneWidth / 2), the factor that turns an eye-local x distance into
// the same pixel scale as y.
//
// Parameters:
//   - sceneWidth, sceneHeight: the scene target size in pixels
//
// Returns:
//   - float64: the eye aspect factor, 1 when the size is unknown
func EyeAspect(sceneWidth, sceneHeight int) float64 {
	if sceneWidth <= 0 || sceneHeight <= 0 {
		return 1
	}
	return float64(sceneHeight) / (float64(sceneWidth) * 0.5)
}

// SourceCoord maps a destination coordinate to the eye-local coordinate it samples. The x distance
// is divided by aspect before the radius is taken, so the warp is circular in pixels. The result is
// clamped to the eye so no eye ever samples its neighbour.
//
// Parameters:
//   - dest: the destination coordinate in eye-local space
//   - center: the optical center of this eye
//   - m: the shared distortion coefficients
//   - aspect: the value of EyeAspect for the scene
//
// Returns:
//   - Point: the eye-local source coordinate
func SourceCoord(dest, center Point, m settings.LensModel, aspect float64) Point {
	dx, dy := dest.X-center.X, dest.Y-center.Y
	if aspect <= 0 {
		aspect = 1
	}
	r := math.Hypot(dx/aspect, dy)
	f := Factor(m.K1, m.K2, m.K3, r)
	return Point{
		X: common.Clamp(center.X+dx*f, 0, 1),
		Y: common.Clamp(center.Y+dy*f, 0, 1),
	}
}

// Center returns the optical center of one eye from the lens model.
//
// Parameters:
//   - m: the lens model
//   - right: true for the right eye
//
// Returns:
//   - Point: the optical center
func Center(m settings.LensModel, right bool) Point {
	if right {
		return Point{X: m.RightCenter.X, Y: m.RightCenter.Y}
	}
	return Point{X: m.LeftCenter.X, Y: m.LeftCenter.Y}
}

// SceneU converts an eye-local x coordinate to the scene texture's u coordinate.
//
// Parameters:
//   - x: the eye-local x in [0, 1]
//   - right: true for the right eye
//
// Returns:
//   - float64: u in [0, 0.5] for the left eye, [0.5, 1] for the right
func SceneU(x float64, right bool) float64 {
	if right {
		return 0.5 + 0.5*x
	}
	return 0.5 * x
}

// Identity reports whether m leaves every coordinate unchanged.
func Identity(m settings.LensModel) bool {
	return m.K1 == 0 && m.K2 == 0 && m.K3 == 0
}
