package settings

import (
	"math"
	"time"
)

// Key names a persisted tunable. The string value is the storage key.
type Key string

const (
	KeyLeftEyeOffsetX          Key = "leftEyeOffsetX"
	KeyLeftEyeOffsetY          Key = "leftEyeOffsetY"
	KeyRightEyeOffsetX         Key = "rightEyeOffsetX"
	KeyRightEyeOffsetY         Key = "rightEyeOffsetY"
	KeyConvergence             Key = "convergenceFactor"
	KeySharpness               Key = "sharpness"
	KeyContrast                Key = "contrast"
	KeyBrightness              Key = "brightness"
	KeySaturation              Key = "saturation"
	KeyVerticalScale           Key = "verticalScale"
	KeyLensK1                  Key = "lensK1"
	KeyLensK2                  Key = "lensK2"
	KeyLensK3                  Key = "lensK3"
	KeyLensCenterLeftX         Key = "lensCenterLeftX"
	KeyLensCenterLeftY         Key = "lensCenterLeftY"
	KeyLensCenterRightX        Key = "lensCenterRightX"
	KeyLensCenterRightY        Key = "lensCenterRightY"
	KeyResolutionIndex         Key = "resolutionIndex"
	KeyInterpolationEnabled    Key = "interpolationEnabled"
	KeyInterpolationMinDelayMs Key = "interpolationMinDelayMs"
)

// tunable binds a Key to its range, default, and the snapshot field it controls.
type tunable struct {
	min, max float64
	def      float64
	integer  bool
	get      func(*Snapshot) float64
	set      func(*Snapshot, float64)
}

// pixelRange bounds the eye offsets so a stored value always survives the conversion to int.
var pixelRange = [2]float64{math.MinInt32, math.MaxInt32}

// keyOrder is the stable iteration order used for loading, resetting and listing keys.
var keyOrder = []Key{
	KeyLeftEyeOffsetX, KeyLeftEyeOffsetY, KeyRightEyeOffsetX, KeyRightEyeOffsetY,
	KeyConvergence,
	KeySharpness, KeyContrast, KeyBrightness, KeySaturation, KeyVerticalScale,
	KeyLensK1, KeyLensK2, KeyLensK3,
	KeyLensCenterLeftX, KeyLensCenterLeftY, KeyLensCenterRightX, KeyLensCenterRightY,
	KeyResolutionIndex,
	KeyInterpolationEnabled, KeyInterpolationMinDelayMs,
}

var tunables = map[Key]tunable{
	KeyLeftEyeOffsetX: {min: pixelRange[0], max: pixelRange[1], integer: true,
		get: func(s *Snapshot) float64 { return float64(s.Eyes.Left.X) },
		set: func(s *Snapshot, v float64) { s.Eyes.Left.X = int(v) }},
	KeyLeftEyeOffsetY: {min: pixelRange[0], max: pixelRange[1], integer: true,
		get: func(s *Snapshot) float64 { return float64(s.Eyes.Left.Y) },
		set: func(s *Snapshot, v float64) { s.Eyes.Left.Y = int(v) }},
	KeyRightEyeOffsetX: {min: pixelRange[0], max: pixelRange[1], integer: true,
		get: func(s *Snapshot) float64 { return float64(s.Eyes.Right.X) },
		set: func(s *Snapshot, v float64) { s.Eyes.Right.X = int(v) }},
	KeyRightEyeOffsetY: {min: pixelRange[0], max: pixelRange[1], integer: true,
		get: func(s *Snapshot) float64 { return float64(s.Eyes.Right.Y) },
		set: func(s *Snapshot, v float64) { s.Eyes.Right.Y = int(v) }},
	KeyConvergence: {min: 0, max: 1,
		get: func(s *Snapshot) float64 { return s.Eyes.Convergence },
		set: func(s *Snapshot, v float64) { s.Eyes.Convergence = v }},
	KeySharpness: {min: 0, max: 1,
		get: func(s *Snapshot) float64 { return s.Post.Sharpness },
		set: func(s *Snapshot, v float64) { s.Post.Sharpness = v }},
	KeyContrast: {min: 0.5, max: 1.5, def: 1,
		get: func(s *Snapshot) float64 { return s.Post.Contrast },
		set: func(s *Snapshot, v float64) { s.Post.Contrast = v }},
	KeyBrightness: {min: -0.5, max: 0.5,
		get: func(s *Snapshot) float64 { return s.Post.Brightness },
		set: func(s *Snapshot, v float64) { s.Post.Brightness = v }},
	KeySaturation: {min: 0, max: 2, def: 1,
		get: func(s *Snapshot) float64 { return s.Post.Saturation },
		set: func(s *Snapshot, v float64) { s.Post.Saturation = v }},
	KeyVerticalScale: {min: 0.1, max: 3, def: 1,
		get: func(s *Snapshot) float64 { return s.Post.VerticalScale },
		set: func(s *Snapshot, v float64) { s.Post.VerticalScale = v }},
	KeyLensK1: {min: -2, max: 2,
		get: func(s *Snapshot) float64 { return s.Lens.K1 },
		set: func(s *Snapshot, v float64) { s.Lens.K1 = v }},
	KeyLensK2: {min: -2, max: 2,
		get: func(s *Snapshot) float64 { return s.Lens.K2 },
		set: func(s *Snapshot, v float64) { s.Lens.K2 = v }},
	KeyLensK3: {min: -2, max: 2,
		get: func(s *Snapshot) float64 { return s.Lens.K3 },
		set: func(s *Snapshot, v float64) { s.Lens.K3 = v }},
	KeyLensCenterLeftX: {min: 0, max: 1, def: 0.5,
		get: func(s *Snapshot) float64 { return s.Lens.LeftCenter.X },
		set: func(s *Snapshot, v float64) { s.Lens.LeftCenter.X = v }},
	KeyLensCenterLeftY: {min: 0, max: 1, def: 0.5,
		get: func(s *Snapshot) float64 { return s.Lens.LeftCenter.Y },
		set: func(s *Snapshot, v float64) { s.Lens.LeftCenter.Y = v }},
	KeyLensCenterRightX: {min: 0, max: 1, def: 0.5,
		get: func(s *Snapshot) float64 { return s.Lens.RightCenter.X },
		set: func(s *Snapshot, v float64) { s.Lens.RightCenter.X = v }},
	KeyLensCenterRightY: {min: 0, max: 1, def: 0.5,
		get: func(s *Snapshot) float64 { return s.Lens.RightCenter.Y },
		set: func(s *Snapshot, v float64) { s.Lens.RightCenter.Y = v }},
	// max is replaced per State by the resolution profile length.
	KeyResolutionIndex: {min: 0, max: 0, integer: true,
		get: func(s *Snapshot) float64 { return float64(s.ResolutionIndex) },
		set: func(s *Snapshot, v float64) { s.ResolutionIndex = int(v) }},
	KeyInterpolationEnabled: {min: 0, max: 1, def: 1, integer: true,
		get: func(s *Snapshot) float64 {
			if s.Interpolation.Enabled {
				return 1
			}
			return 0
		},
		set: func(s *Snapshot, v float64) { s.Interpolation.Enabled = v != 0 }},
	KeyInterpolationMinDelayMs: {min: 0, max: 100, def: 10,
		get: func(s *Snapshot) float64 { return float64(s.Interpolation.MinDelay) / float64(time.Millisecond) },
		set: func(s *Snapshot, v float64) { s.Interpolation.MinDelay = time.Duration(v * float64(time.Millisecond)) }},
}

// Keys returns every tunable key in a stable order.
//
// Returns:
//   - []Key: a fresh slice of all keys
func Keys() []Key {
	out := make([]Key, len(keyOrder))
	copy(out, keyOrder)
	return out
}

// Valid reports whether k names a known tunable.
//
// Returns:
//   - bool: true if k is known
func (k Key) Valid() bool {
	_, ok := tunables[k]
	return ok
}

// Range returns the static bounds of k. Eye offsets report the int32 range. The resolution index reports
// [0, 0] here because its upper bound depends on the camera profile held by a State.
//
// Returns:
//   - float64: the lower bound
//   - float64: the upper bound
func (k Key) Range() (float64, float64) {
	s := tunables[k]
	return s.min, s.max
}

// Default returns the default value for k.
//
// Returns:
//   - float64: the default value
func (k Key) Default() float64 {
	return tunables[k].def
}
