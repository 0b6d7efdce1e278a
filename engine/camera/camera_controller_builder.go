package camera

import (
	"time"

	"github.com/Carmen-Shannon/veil/engine/settings"
)

// ControllerBuilderOption is a functional option applied to a Controller during construction via NewController.
type ControllerBuilderOption func(*controller)

// WithResolutions sets the resolution profile, largest first.
//
// Parameters:
//   - resolutions: the supported capture resolutions
//
// Returns:
//   - ControllerBuilderOption: a function that applies the profile to a Controller
func WithResolutions(resolutions []Resolution) ControllerBuilderOption {
	return func(c *controller) {
		if len(resolutions) > 0 {
			c.resolutions = resolutions
		}
	}
}

// WithSettings restores the profile index from state and persists it on every accepted step.
//
// Parameters:
//   - state: the Configuration State
//
// Returns:
//   - ControllerBuilderOption: a function that applies the settings to a Controller
func WithSettings(state settings.State) ControllerBuilderOption {
	return func(c *controller) {
		c.state = state
	}
}

// WithRetryPolicy sets the open and reopen retry bounds.
//
// Parameters:
//   - p: the retry policy
//
// Returns:
//   - ControllerBuilderOption: a function that applies the policy to a Controller
func WithRetryPolicy(p RetryPolicy) ControllerBuilderOption {
	return func(c *controller) {
		c.retry = p
	}
}

// WithSettleDelay sets the pause between releasing the device and reopening it.
//
// Parameters:
//   - d: the settle delay
//
// Returns:
//   - ControllerBuilderOption: a function that applies the delay to a Controller
func WithSettleDelay(d time.Duration) ControllerBuilderOption {
	return func(c *controller) {
		c.settleDelay = d
	}
}

// WithOnReconfigured registers a callback run on the worker after every reopen job.
//
// Parameters:
//   - fn: receives the target resolution and the final error, nil on success
//
// Returns:
//   - ControllerBuilderOption: a function that applies the callback to a Controller
func WithOnReconfigured(fn func(Resolution, error)) ControllerBuilderOption {
	return func(c *controller) {
		c.onReconfigured = fn
	}
}
