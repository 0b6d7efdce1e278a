package settings

import "github.com/Carmen-Shannon/veil/common"

// DisplayMin and DisplayMax bound the user-facing slider scale.
const (
	DisplayMin = 0.0
	DisplayMax = 100.0
)

// displayScaled lists the keys exposed on the 0-100 display scale. Every one of them maps linearly
// from [DisplayMin, DisplayMax] onto its full stored range:
//
//	contrast      0.5 + d/100
//	brightness    (d - 50)/100
//	saturation    d/50
//	verticalScale 0.1 + d*2.9/100
//	sharpness     d/100
//	convergence   d/100
//	lensK1..K3    (d - 50)/25
//	lens centers  d/100
//
// Offsets, the resolution index and the interpolation keys are entered in their own units.
var displayScaled = map[Key]bool{
	KeyContrast:         true,
	KeyBrightness:       true,
	KeySaturation:       true,
	KeyVerticalScale:    true,
	KeySharpness:        true,
	KeyConvergence:      true,
	KeyLensK1:           true,
	KeyLensK2:           true,
	KeyLensK3:           true,
	KeyLensCenterLeftX:  true,
	KeyLensCenterLeftY:  true,
	KeyLensCenterRightX: true,
	KeyLensCenterRightY: true,
}

// HasDisplayScale reports whether key is adjusted on the 0-100 display scale.
//
// Parameters:
//   - key: the tunable
//
// Returns:
//   - bool: true if FromDisplay and ToDisplay convert key
func HasDisplayScale(key Key) bool {
	return displayScaled[key]
}

// FromDisplay converts a display value to the stored value of key. Display values are clamped to
// [DisplayMin, DisplayMax] first. Keys without a display scale are returned unchanged.
//
// Parameters:
//   - key: the tunable
//   - d: the display value
//
// Returns:
//   - float64: the stored-unit value
func FromDisplay(key Key, d float64) float64 {
	if !displayScaled[key] {
		return d
	}
	lo, hi := key.Range()
	d = common.Clamp(d, DisplayMin, DisplayMax)
	return lo + (d-DisplayMin)/(DisplayMax-DisplayMin)*(hi-lo)
}

// ToDisplay converts a stored value of key to the display scale. It is the inverse of FromDisplay.
//
// Parameters:
//   - key: the tunable
//   - v: the stored-unit value
//
// Returns:
//   - float64: the display value
func ToDisplay(key Key, v float64) float64 {
	if !displayScaled[key] {
		return v
	}
	lo, hi := key.Range()
	return DisplayMin + (v-lo)/(hi-lo)*(DisplayMax-DisplayMin)
}
