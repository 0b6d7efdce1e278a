package engine

import (
	"time"

	"github.com/Carmen-Shannon/veil/engine/scene"
	"github.com/Carmen-Shannon/veil/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the per-second render stats log.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithWindow sets the window the engine runs its message loop on. Required.
//
// Parameters:
//   - w: a created Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene sets the scene rendered once per frame. Required; it must already be initialized.
//
// Parameters:
//   - s: the Scene to render
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithSurface sets the renderer that receives window resizes and is released last on the render thread.
//
// Parameters:
//   - s: usually the renderer.Renderer the scene draws with
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to let the present mode pace the loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithTeardown registers a step run after the render and command loops have stopped.
// Steps run in registration order, before the window is closed.
//
// Parameters:
//   - name: a label for logs and errors
//   - fn: the step
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTeardown(name string, fn func() error) EngineBuilderOption {
	return func(e *engine) {
		e.teardown = append(e.teardown, namedCloser{name: name, fn: fn})
	}
}

// WithCommandQueue sets the capacity of the utterance queue. Values <= 0 keep the default of 16.
//
// Parameters:
//   - size: the queue capacity
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCommandQueue(size int) EngineBuilderOption {
	return func(e *engine) {
		if size > 0 {
			e.commands = make(chan string, size)
		}
	}
}
