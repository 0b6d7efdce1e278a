package settings

// StateBuilderOption is a functional option applied to a State during construction via NewState.
type StateBuilderOption func(*state)

// WithResolutionCount sets the number of entries in the camera resolution profile, which bounds the
// resolution index to [0, n-1].
//
// Parameters:
//   - n: the profile length; values below 1 are treated as 1
//
// Returns:
//   - StateBuilderOption: a function that applies the resolution count to a State
func WithResolutionCount(n int) StateBuilderOption {
	return func(s *state) {
		s.resolutionCount = max(n, 1)
	}
}
