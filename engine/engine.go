// Package engine runs the viewer: the window message loop on the calling thread, the render loop on
// its own locked OS thread, and the command loop that applies queued utterances.
package engine

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/command"
	"github.com/Carmen-Shannon/veil/engine/profiler"
	"github.com/Carmen-Shannon/veil/engine/scene"
	"github.com/Carmen-Shannon/veil/engine/window"
	"github.com/sirupsen/logrus"
)

// ErrFramePanic wraps a panic recovered from a single frame.
var ErrFramePanic = errors.New("frame panicked")

// Surface is the part of the renderer the engine drives directly. renderer.Renderer satisfies it.
type Surface interface {
	// Resize reconfigures the presentation surface.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Release frees every GPU resource.
	Release()
}

// CommandHandler applies utterances and key presses. command.Interpreter satisfies it.
type CommandHandler interface {
	Apply(utterance string) (command.Result, error)
	HandleKey(keyCode uint32) bool
}

// engine implements the Engine interface.
// Coordinates the window, render and command threads.
type engine struct {
	paused atomic.Bool
	wg     sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	surface  Surface
	scene    scene.Scene
	handler  CommandHandler
	commands chan string

	// pendingResize packs the latest framebuffer size as width<<32 | height; 0 means none pending.
	pendingResize atomic.Uint64

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool
	errors           *errorLimiter

	renderFrameLimit time.Duration // minimum frame duration; 0 = paced by present
	pausePoll        time.Duration
	teardown         []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// Engine is the main entry point of the viewer.
// It orchestrates the render loop, the command loop and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// SetCommandHandler registers the handler for queued utterances and window key presses.
	// Must be called before Run.
	//
	// Parameters:
	//   - h: the handler, usually a command.Interpreter
	SetCommandHandler(h CommandHandler)

	// Submit queues an utterance for the command loop without blocking.
	//
	// Parameters:
	//   - utterance: one line of recognized text
	//
	// Returns:
	//   - bool: false if the queue was full and the utterance was dropped
	Submit(utterance string) bool

	// Pause stops issuing frames until Resume. The last presented image stays on screen.
	Pause()

	// Resume restarts the render loop after Pause.
	Resume()

	// Paused reports whether the render loop is paused.
	//
	// Returns:
	//   - bool: true while paused
	Paused() bool

	// EnableProfiler enables the per-second render stats log.
	EnableProfiler()

	// DisableProfiler disables the render stats log.
	DisableProfiler()

	// Run starts the render and command loops and blocks in the window message loop until the window
	// closes or Quit is called. Every teardown step runs before Run returns.
	//
	// Returns:
	//   - error: the joined errors of the teardown steps
	Run() error

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times and from any goroutine; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A window and a scene are required.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		commands:    make(chan string, 16),
		profiler:    profiler.NewProfiler(),
		errors:      newErrorLimiter(time.Second),
		pausePoll:   20 * time.Millisecond,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.window == nil || e.scene == nil {
		panic("engine: a window and a scene are required")
	}

	e.window.SetResizeCallback(func(width, height int) {
		e.pendingResize.Store(packSize(width, height))
	})
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		if e.handler != nil {
			e.handler.HandleKey(keyCode)
		}
	})
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
		default:
		}
	})

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) SetCommandHandler(h CommandHandler) {
	e.handler = h
}

func (e *engine) Submit(utterance string) bool {
	select {
	case e.commands <- utterance:
		return true
	default:
		common.Logger().WithField("utterance", utterance).Warn("command queue full, utterance dropped")
		return false
	}
}

func (e *engine) Pause() {
	if !e.paused.Swap(true) {
		common.Logger().Info("rendering paused")
	}
}

func (e *engine) Resume() {
	if e.paused.Swap(false) {
		common.Logger().Info("rendering resumed")
	}
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) Run() error {
	e.wg.Add(2)
	go e.handleRender()
	go e.handleCommands()

	e.window.ProcessMessages()

	// The window closed on its own (Escape, close button) or Quit was called; either way stop the loops.
	e.signalQuit()
	e.wg.Wait()
	return e.shutdown()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
	e.window.RequestClose()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleRender runs the render loop on a locked OS thread. Each iteration presents one frame unless
// paused; frame errors and panics are contained and logged at a bounded rate. GPU resources are
// released on this thread when the loop exits.
func (e *engine) handleRender() {
	defer e.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer func() {
		e.scene.Release()
		if e.surface != nil {
			e.surface.Release()
		}
		common.Logger().Debug("render thread released GPU resources")
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		if e.paused.Load() {
			select {
			case <-e.quitChannel:
				return
			case <-time.After(e.pausePoll):
			}
			continue
		}

		start := time.Now()
		if size := e.pendingResize.Swap(0); size != 0 && e.surface != nil {
			e.surface.Resize(unpackSize(size))
		}

		res, err := e.renderFrame(start)
		if err != nil {
			e.errors.log(err)
		}

		if e.profilingEnabled.Load() {
			e.profiler.Frame(res.Real, res.Interpolated, res.Skipped, err != nil)
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame runs one scene frame and converts a panic into an error.
func (e *engine) renderFrame(now time.Time) (res scene.FrameResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFramePanic, r)
		}
	}()
	return e.scene.Render(now)
}

// handleCommands drains the utterance queue until quit.
func (e *engine) handleCommands() {
	defer e.wg.Done()

	for {
		select {
		case <-e.quitChannel:
			return
		case utterance := <-e.commands:
			e.applyCommand(utterance)
		}
	}
}

func (e *engine) applyCommand(utterance string) {
	log := common.Logger().WithField("utterance", utterance)
	if e.handler == nil {
		log.Warn("no command handler registered")
		return
	}
	res, err := e.handler.Apply(utterance)
	if err != nil {
		log.WithError(err).Info("command not applied")
		return
	}
	keys := make([]string, len(res.Keys))
	for i, k := range res.Keys {
		keys[i] = string(k)
	}
	log.WithFields(logrus.Fields{
		"rule":    res.Rule,
		"keys":    keys,
		"value":   res.Value,
		"changed": res.Changed,
	}).Info("command applied")
}

// shutdown runs the registered teardown steps in order, then closes the window.
func (e *engine) shutdown() error {
	var errs []error
	for _, c := range e.teardown {
		if err := c.fn(); err != nil {
			errs = append(errs, fmt.Errorf("teardown %s: %w", c.name, err))
		}
	}
	if err := e.window.Close(); err != nil {
		errs = append(errs, fmt.Errorf("teardown window: %w", err))
	}
	common.Logger().Info("engine stopped")
	return errors.Join(errs...)
}

func packSize(width, height int) uint64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return uint64(uint32(width))<<32 | uint64(uint32(height))
}

func unpackSize(v uint64) (int, int) {
	return int(v >> 32), int(uint32(v))
}
