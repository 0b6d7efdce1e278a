// Command veil renders a side-by-side stereo camera feed to a head-mounted viewer with per-eye
// alignment, color post-processing and lens distortion correction.
//
// Tunables are adjusted with the window's key bindings or by typing commands on stdin, one per line:
//
//	convergence 30
//	left eye up 5
//	sharpness 40
//	pause
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine"
	"github.com/Carmen-Shannon/veil/engine/camera"
	"github.com/Carmen-Shannon/veil/engine/camera/uvc"
	"github.com/Carmen-Shannon/veil/engine/command"
	"github.com/Carmen-Shannon/veil/engine/renderer"
	"github.com/Carmen-Shannon/veil/engine/scene"
	"github.com/Carmen-Shannon/veil/engine/settings"
	"github.com/Carmen-Shannon/veil/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Version is the application version reported at startup.
const Version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "", "override the log level (debug, info, warn, error)")
	device := flag.String("device", "", `override the camera device ("0", "/dev/video2" or "pattern")`)
	shaderDir := flag.String("shaders", "", "override the shader directory")
	windowed := flag.Bool("windowed", false, "run in a window instead of fullscreen")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *logLevel, *device, *shaderDir, *windowed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	session := uuid.NewString()
	logger := initLogger(cfg.Log, os.Stdout, session)
	common.SetLogger(logger)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"device":  cfg.Camera.Device,
		"config":  *configPath,
	}).Info("starting veil")

	if err := run(cfg); err != nil {
		logger.WithError(err).Error("veil stopped with errors")
		os.Exit(1)
	}
	logger.Info("veil shut down")
}

// loadConfig reads the config file, when given, and applies the command line overrides.
func loadConfig(path, logLevel, device, shaderDir string, windowed bool) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if device != "" {
		cfg.Camera.Device = device
	}
	if shaderDir != "" {
		cfg.Render.ShaderDir = shaderDir
	}
	if windowed {
		cfg.Window.Fullscreen = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run wires the viewer together and blocks until it shuts down. It must run on the main goroutine:
// the window message loop stays on the thread that created the window.
func run(cfg *Config) error {
	resolutions, err := cfg.Camera.ParseResolutions()
	if err != nil {
		return err
	}

	store, err := settings.NewSQLiteStore(cfg.Settings.Path)
	if err != nil {
		return err
	}
	state := settings.NewState(store, settings.WithResolutionCount(len(resolutions)))

	var source camera.Source
	if cfg.Camera.Device == PatternDevice {
		source = camera.NewPatternSource(cfg.Camera.FPS)
	} else {
		source = uvc.NewSource(cfg.Camera.Device, uvc.WithFPS(cfg.Camera.FPS))
	}

	// Assigned before the controller starts, so reconfiguration callbacks always see it.
	var sc scene.Scene
	ctrl := camera.NewController(source,
		camera.WithResolutions(resolutions),
		camera.WithSettings(state),
		camera.WithRetryPolicy(cfg.Camera.RetryPolicy()),
		camera.WithSettleDelay(time.Duration(cfg.Camera.SettleDelayMs)*time.Millisecond),
		camera.WithOnReconfigured(func(res camera.Resolution, err error) {
			if err == nil && sc != nil {
				sc.RequestReset()
			}
		}),
	)

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithFullscreen(cfg.Window.Fullscreen, cfg.Window.Monitor),
	)

	presentMode := renderer.PresentModeVSync
	if !cfg.Render.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(wgpu.Color{A: 1}),
		renderer.WithForceSoftwareRenderer(cfg.Render.Software),
	)

	sc = scene.NewScene(r, ctrl, state,
		scene.WithShaderDir(cfg.Render.ShaderDir),
		scene.WithMirror(cfg.Render.Mirror),
	)
	if err := sc.Init(); err != nil {
		sc.Release()
		r.Release()
		return errors.Join(err, state.Close(), win.Close())
	}

	if err := ctrl.Start(); err != nil {
		common.Logger().WithError(err).Warn("camera unavailable, rendering without it")
	}

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithScene(sc),
		engine.WithSurface(r),
		engine.WithProfiling(cfg.Render.Profile),
		engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
		engine.WithTeardown("camera", func() error {
			ctrl.Stop()
			return nil
		}),
		engine.WithTeardown("settings", state.Close),
	)
	eng.SetCommandHandler(command.NewInterpreter(state,
		command.WithPipelineControl(eng),
		command.WithResolutionControl(ctrl),
	))

	common.Logger().WithFields(logrus.Fields{
		"distortion":    sc.DistortionEnabled(),
		"interpolation": sc.InterpolationAvailable(),
		"resolution":    ctrl.Resolution().String(),
	}).Info("pipeline ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		eng.Quit()
	}()
	go readCommands(os.Stdin, eng)

	return eng.Run()
}
