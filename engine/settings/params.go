package settings

import "time"

// EyeOffset is a manual per-eye translation in screen pixels, applied before the composite's optional
// horizontal mirror. Positive X moves the eye image right in the unmirrored composite and left on a
// mirrored screen; positive Y always moves it up.
type EyeOffset struct {
	X int
	Y int
}

// EyeViewParameters describes where each eye image is placed in the composite.
type EyeViewParameters struct {
	Left  EyeOffset
	Right EyeOffset

	// Convergence controls the horizontal overlap of the two eye images in [0, 1].
	// 0 keeps the halves fully separated, 1 collapses them to zero width.
	Convergence float64
}

// OpticalCenter is a normalized lens center inside one eye's half of the frame.
type OpticalCenter struct {
	X float64
	Y float64
}

// LensModel is the radial distortion model shared by both eyes. Only the optical centers differ per eye.
type LensModel struct {
	K1, K2, K3  float64
	LeftCenter  OpticalCenter
	RightCenter OpticalCenter
}

// PostProcessParams are the color controls applied while compositing.
type PostProcessParams struct {
	Sharpness     float64
	Contrast      float64
	Brightness    float64
	Saturation    float64
	VerticalScale float64
}

// InterpolationParams configure the frame pacer.
type InterpolationParams struct {
	Enabled  bool
	MinDelay time.Duration
}

// Snapshot is an immutable view of every tunable. A new Snapshot is published on each change;
// readers hold a pointer for the duration of one frame and never observe partial writes.
type Snapshot struct {
	Eyes            EyeViewParameters
	Lens            LensModel
	Post            PostProcessParams
	Interpolation   InterpolationParams
	ResolutionIndex int
}

// Defaults returns the snapshot used before anything has been persisted.
//
// Returns:
//   - Snapshot: the default tunables
func Defaults() Snapshot {
	s := Snapshot{}
	for _, k := range Keys() {
		tunables[k].set(&s, tunables[k].def)
	}
	return s
}
