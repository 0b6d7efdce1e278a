package camera

import "fmt"

// DefaultResolutions is the supported capture profile, largest first.
var DefaultResolutions = []Resolution{
	{Width: 3840, Height: 1080},
	{Width: 2560, Height: 720},
	{Width: 1280, Height: 480},
}

// ResolutionProfile is an ordered list of capture resolutions with a current index.
// The index always satisfies 0 <= index < len(resolutions).
type ResolutionProfile struct {
	resolutions []Resolution
	index       int
}

// NewResolutionProfile creates a profile positioned at index, clamped into range.
//
// Parameters:
//   - resolutions: the supported resolutions; DefaultResolutions is used when empty
//   - index: the starting index
//
// Returns:
//   - *ResolutionProfile: the profile
func NewResolutionProfile(resolutions []Resolution, index int) *ResolutionProfile {
	if len(resolutions) == 0 {
		resolutions = DefaultResolutions
	}
	p := &ResolutionProfile{resolutions: append([]Resolution(nil), resolutions...)}
	p.index = min(max(index, 0), len(p.resolutions)-1)
	return p
}

// Len returns the number of resolutions in the profile.
func (p *ResolutionProfile) Len() int {
	return len(p.resolutions)
}

// Index returns the current position in the profile.
func (p *ResolutionProfile) Index() int {
	return p.index
}

// Current returns the resolution at the current index.
func (p *ResolutionProfile) Current() Resolution {
	return p.resolutions[p.index]
}

// Step moves the index by delta. The index is left unchanged when the target lies outside the
// profile; the error then wraps ErrAtBoundary.
//
// Parameters:
//   - delta: the signed number of entries to move
//
// Returns:
//   - int: the resulting index
//   - error: ErrAtBoundary if the step was refused
func (p *ResolutionProfile) Step(delta int) (int, error) {
	next := p.index + delta
	if next < 0 || next >= len(p.resolutions) {
		return p.index, fmt.Errorf("%w: index %d of %d", ErrAtBoundary, next, len(p.resolutions))
	}
	p.index = next
	return p.index, nil
}
