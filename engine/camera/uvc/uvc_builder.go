package uvc

// SourceBuilderOption is a functional option applied to a Source during construction via NewSource.
type SourceBuilderOption func(*source)

// WithFPS sets the requested capture rate.
//
// Parameters:
//   - fps: frames per second; values <= 0 are ignored
//
// Returns:
//   - SourceBuilderOption: a function that applies the rate to a Source
func WithFPS(fps float64) SourceBuilderOption {
	return func(s *source) {
		if fps > 0 {
			s.fps = fps
		}
	}
}

// withOpener replaces the device opener.
func withOpener(fn openFunc) SourceBuilderOption {
	return func(s *source) {
		s.open = fn
	}
}
