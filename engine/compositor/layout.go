// Package compositor computes the stereo composite: where each eye image lands on screen, the vertex
// data that places it there, and a CPU reference of the fused post-process filter.
package compositor

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/veil/engine/settings"
)

// Eye indexes the two halves of the stereo composite.
type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
)

// VerticesPerEye and IndicesPerEye describe the quad drawn for each eye.
const (
	VerticesPerEye = 4
	IndicesPerEye  = 6
)

// QuadIndices is the index list for one eye quad. The right eye draws the same indices with a base
// vertex of VerticesPerEye.
var QuadIndices = [IndicesPerEye]uint32{0, 1, 2, 0, 2, 3}

// EyeQuad is one eye's screen rectangle in normalized device coordinates (Y up) and the
// horizontal texture range it samples.
type EyeQuad struct {
	X0, X1 float32
	Y0, Y1 float32
	U0, U1 float32
}

// Screen describes the live viewport and the camera frame being composited.
type Screen struct {
	Width, Height           int
	FrameWidth, FrameHeight int

	// Mirror flips the whole composite horizontally (x -> -x).
	Mirror bool
}

// Layout places both eye quads.
//
// halfWidth = 0.5*(1-convergence) and centerOffset = 0.25*convergence. The left quad spans
// [-1+centerOffset+offset, -1+centerOffset+offset+2*halfWidth] and the right quad mirrors it toward +1.
// Pixel offsets are normalized by half the viewport. The composite is then optionally mirrored,
// letterboxed or pillarboxed to keep the camera aspect, and scaled vertically by verticalScale.
// Mirroring comes after the offsets: with Mirror set, a positive X offset moves its quad left on
// screen and the left-source quad lands on the right half.
//
// Parameters:
//   - eyes: the eye placement parameters
//   - verticalScale: the vertical stretch factor
//   - screen: viewport and frame sizes
//
// Returns:
//   - [2]EyeQuad: the left and right quads
func Layout(eyes settings.EyeViewParameters, verticalScale float64, screen Screen) [2]EyeQuad {
	c := eyes.Convergence
	halfWidth := 0.5 * (1 - c)
	centerOffset := 0.25 * c

	halfW := float64(max(screen.Width, 1)) / 2
	halfH := float64(max(screen.Height, 1)) / 2

	lx := float64(eyes.Left.X) / halfW
	ly := float64(eyes.Left.Y) / halfH
	rx := float64(eyes.Right.X) / halfW
	ry := float64(eyes.Right.Y) / halfH

	quads := [2][4]float64{
		{-1 + centerOffset + lx, -1 + centerOffset + lx + 2*halfWidth, -1 + ly, 1 + ly},
		{1 - centerOffset - 2*halfWidth + rx, 1 - centerOffset + rx, -1 + ry, 1 + ry},
	}

	sx, sy := aspectScale(screen)
	sy *= verticalScale

	out := [2]EyeQuad{}
	for i, q := range quads {
		x0, x1 := q[0]*sx, q[1]*sx
		if screen.Mirror {
			x0, x1 = -x0, -x1
		}
		out[i] = EyeQuad{
			X0: float32(x0), X1: float32(x1),
			Y0: float32(q[2] * sy), Y1: float32(q[3] * sy),
			U0: 0.5 * float32(i), U1: 0.5 * float32(i+1),
		}
	}
	return out
}

// aspectScale returns the uniform shrink on the shorter axis that keeps the camera aspect on screen.
func aspectScale(s Screen) (float64, float64) {
	if s.Width <= 0 || s.Height <= 0 || s.FrameWidth <= 0 || s.FrameHeight <= 0 {
		return 1, 1
	}
	camera := float64(s.FrameWidth) / float64(s.FrameHeight)
	display := float64(s.Width) / float64(s.Height)
	if camera > display {
		return 1, display / camera
	}
	return camera / display, 1
}

// Vertices returns the quad corners as position (x, y) and texture coordinate (u, v), in the order
// top-left, top-right, bottom-right, bottom-left. V runs top to bottom. A mirrored quad keeps its
// texture coordinates, so the sampled image is flipped with it.
//
// Returns:
//   - [VerticesPerEye][4]float32: the corner vertices
func (q EyeQuad) Vertices() [VerticesPerEye][4]float32 {
	return [VerticesPerEye][4]float32{
		{q.X0, q.Y1, q.U0, 0},
		{q.X1, q.Y1, q.U1, 0},
		{q.X1, q.Y0, q.U1, 1},
		{q.X0, q.Y0, q.U0, 1},
	}
}

// VertexBytes serializes both quads into one vertex buffer, left eye first.
//
// Parameters:
//   - quads: the eye quads from Layout
//
// Returns:
//   - []byte: 2*VerticesPerEye vertices of GPUEyeVertex layout
func VertexBytes(quads [2]EyeQuad) []byte {
	stride := (&GPUEyeVertex{}).Size()
	buf := make([]byte, 0, 2*VerticesPerEye*stride)
	for _, q := range quads {
		for _, v := range q.Vertices() {
			gv := GPUEyeVertex{Position: [2]float32{v[0], v[1]}, UV: [2]float32{v[2], v[3]}}
			buf = append(buf, gv.Marshal()...)
		}
	}
	return buf
}

// IndexBytes serializes QuadIndices.
//
// Returns:
//   - []byte: the little-endian uint32 indices
func IndexBytes() []byte {
	buf := make([]byte, 4*IndicesPerEye)
	for i, idx := range QuadIndices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
