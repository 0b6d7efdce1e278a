package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width. Ignored in fullscreen, where the monitor's mode wins.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height. Ignored in fullscreen, where the monitor's mode wins.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithFullscreen opens the window fullscreen on the given monitor at the monitor's current video mode.
// An index past the end of the monitor list falls back to the primary monitor.
//
// Parameters:
//   - enabled: whether to go fullscreen
//   - monitor: index into the connected monitors, 0 for the primary
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFullscreen(enabled bool, monitor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.fullscreen = enabled
		w.monitor = monitor
	}
}
