package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/veil/engine/camera"
	"gopkg.in/yaml.v3"
)

// PatternDevice selects the synthetic test-pattern source instead of a camera.
const PatternDevice = "pattern"

// Config is the application configuration file.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Render   RenderConfig   `yaml:"render"`
	Settings SettingsConfig `yaml:"settings"`
	Log      LogConfig      `yaml:"log"`
}

// WindowConfig contains the viewer window settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	Monitor    int    `yaml:"monitor"` // index into the connected monitors, 0 = primary
}

// CameraConfig contains capture settings.
type CameraConfig struct {
	Device         string   `yaml:"device"` // index ("0"), device path, or "pattern"
	FPS            float64  `yaml:"fps"`
	Resolutions    []string `yaml:"resolutions"` // "WIDTHxHEIGHT", largest first
	SettleDelayMs  int      `yaml:"settle_delay_ms"`
	RetryAttempts  int      `yaml:"retry_attempts"` // retries after the first open attempt
	RetryBackoffMs int      `yaml:"retry_backoff_ms"`
}

// RenderConfig contains render loop settings.
type RenderConfig struct {
	VSync      bool    `yaml:"vsync"`
	FrameLimit float64 `yaml:"frame_limit"` // fps cap, 0 = paced by present
	ShaderDir  string  `yaml:"shader_dir"`  // optional override directory for the WGSL programs
	Mirror     bool    `yaml:"mirror"`
	Software   bool    `yaml:"software"` // force the fallback adapter
	Profile    bool    `yaml:"profile"`
}

// SettingsConfig locates the tunables database.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - *Config: the defaults
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Veil",
			Width:      1920,
			Height:     1080,
			Fullscreen: true,
		},
		Camera: CameraConfig{
			Device:         "0",
			FPS:            60,
			Resolutions:    []string{"3840x1080", "2560x720", "1280x480"},
			SettleDelayMs:  300,
			RetryAttempts:  1,
			RetryBackoffMs: 500,
		},
		Render: RenderConfig{
			VSync:  true,
			Mirror: true,
		},
		Settings: SettingsConfig{
			Path: "veil-settings.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates the result.
// Fields missing from the file keep their default values.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - *Config: the loaded configuration
//   - error: a read, parse or validation error
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
//
// Returns:
//   - error: the joined validation errors, or nil
func (c *Config) Validate() error {
	var errs []error

	if !c.Window.Fullscreen && (c.Window.Width <= 0 || c.Window.Height <= 0) {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.Monitor < 0 {
		errs = append(errs, fmt.Errorf("window monitor %d must not be negative", c.Window.Monitor))
	}

	if strings.TrimSpace(c.Camera.Device) == "" {
		errs = append(errs, errors.New("camera device is required"))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera fps %v must be positive", c.Camera.FPS))
	}
	if _, err := c.Camera.ParseResolutions(); err != nil {
		errs = append(errs, err)
	}
	if c.Camera.SettleDelayMs < 0 || c.Camera.RetryAttempts < 0 || c.Camera.RetryBackoffMs < 0 {
		errs = append(errs, errors.New("camera delays and retry attempts must not be negative"))
	}

	if c.Render.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("render frame_limit %v must not be negative", c.Render.FrameLimit))
	}
	if c.Render.ShaderDir != "" {
		if info, err := os.Stat(c.Render.ShaderDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("render shader_dir %q is not a directory", c.Render.ShaderDir))
		}
	}

	if c.Settings.Path == "" {
		errs = append(errs, errors.New("settings path is required"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q must be text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ParseResolutions converts the configured profile into camera resolutions.
//
// Returns:
//   - []camera.Resolution: the profile, largest first as configured
//   - error: an error naming the first malformed entry
func (c CameraConfig) ParseResolutions() ([]camera.Resolution, error) {
	if len(c.Resolutions) == 0 {
		return nil, errors.New("camera resolutions must not be empty")
	}
	out := make([]camera.Resolution, 0, len(c.Resolutions))
	for _, s := range c.Resolutions {
		var r camera.Resolution
		if n, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(s)), "%dx%d", &r.Width, &r.Height); err != nil || n != 2 {
			return nil, fmt.Errorf("camera resolution %q must be WIDTHxHEIGHT", s)
		}
		if r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("camera resolution %q must be positive", s)
		}
		out = append(out, r)
	}
	return out, nil
}

// RetryPolicy returns the reopen policy for the camera controller.
//
// Returns:
//   - camera.RetryPolicy: the configured policy
func (c CameraConfig) RetryPolicy() camera.RetryPolicy {
	p := camera.DefaultRetryPolicy()
	p.MaxRetries = c.RetryAttempts
	p.Delay = time.Duration(c.RetryBackoffMs) * time.Millisecond
	return p
}
