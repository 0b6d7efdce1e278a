package pacer

import "time"

// PacerBuilderOption is a functional option applied to a Pacer during construction via New.
type PacerBuilderOption func(*Pacer)

// WithEnabled sets whether blending starts enabled.
//
// Parameters:
//   - enabled: the initial state
//
// Returns:
//   - PacerBuilderOption: a function that applies the flag to a Pacer
func WithEnabled(enabled bool) PacerBuilderOption {
	return func(p *Pacer) {
		p.enabled = enabled
	}
}

// WithMinDelay sets the hold time after each arrival.
//
// Parameters:
//   - d: the minimum delay before blending starts
//
// Returns:
//   - PacerBuilderOption: a function that applies the delay to a Pacer
func WithMinDelay(d time.Duration) PacerBuilderOption {
	return func(p *Pacer) {
		p.minDelay = max(d, 0)
	}
}
