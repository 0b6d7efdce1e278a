package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/veil/engine/camera"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "veil.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
camera:
  device: pattern
  fps: 30
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.Device != PatternDevice || cfg.Camera.FPS != 30 {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if !cfg.Render.VSync || !cfg.Render.Mirror {
		t.Errorf("render defaults lost: %+v", cfg.Render)
	}
	if len(cfg.Camera.Resolutions) != 3 {
		t.Errorf("resolutions = %v", cfg.Camera.Resolutions)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "camera: [", "failed to parse config"},
		{"bad level", "log:\n  level: loud\n", `log level "loud"`},
		{"bad format", "log:\n  format: xml\n", `log format "xml"`},
		{"no device", "camera:\n  device: \"\"\n", "camera device is required"},
		{"bad resolution", "camera:\n  resolutions: [\"wide\"]\n", `camera resolution "wide"`},
		{"negative limit", "render:\n  frame_limit: -1\n", "frame_limit"},
		{"missing shader dir", "render:\n  shader_dir: /does/not/exist\n", "shader_dir"},
		{"windowed zero size", "window:\n  fullscreen: false\n  width: 0\n", "window size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Camera.FPS = 0
	cfg.Settings.Path = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"camera fps", "settings path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestParseResolutions(t *testing.T) {
	tests := []struct {
		in      []string
		want    []camera.Resolution
		wantErr bool
	}{
		{in: []string{"3840x1080", " 1280X480 "}, want: []camera.Resolution{{Width: 3840, Height: 1080}, {Width: 1280, Height: 480}}},
		{in: nil, wantErr: true},
		{in: []string{"0x480"}, wantErr: true},
		{in: []string{"1280"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := CameraConfig{Resolutions: tt.in}.ParseResolutions()
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResolutions(%v) error = %v", tt.in, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseResolutions(%v) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseResolutions(%v)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestRetryPolicy(t *testing.T) {
	p := CameraConfig{RetryAttempts: 2, RetryBackoffMs: 250}.RetryPolicy()
	if p.MaxRetries != 2 || p.Delay != 250*time.Millisecond {
		t.Errorf("policy = %+v", p)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig("", "warn", PatternDevice, "", true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Camera.Device != PatternDevice || cfg.Window.Fullscreen {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	if _, err := loadConfig("", "loud", "", "", false); err == nil {
		t.Error("expected an invalid level override to fail")
	}
}

type recordingSubmitter struct {
	lines []string
	full  bool
}

func (r *recordingSubmitter) Submit(utterance string) bool {
	if r.full {
		return false
	}
	r.lines = append(r.lines, utterance)
	return true
}

func TestReadCommands(t *testing.T) {
	in := strings.NewReader("convergence 30\n\n  # a note\n  left eye up 5  \npause\n")
	s := &recordingSubmitter{}
	if n := readCommands(in, s); n != 3 {
		t.Errorf("submitted %d, want 3", n)
	}
	want := []string{"convergence 30", "left eye up 5", "pause"}
	if strings.Join(s.lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", s.lines, want)
	}

	if n := readCommands(strings.NewReader("pause\n"), &recordingSubmitter{full: true}); n != 0 {
		t.Errorf("submitted %d to a full queue, want 0", n)
	}
}

func TestInitLoggerStampsSession(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(LogConfig{Level: "info", Format: "json"}, &buf, "abc-123")
	logger.Debug("hidden")
	logger.WithField("component", "test").Info("hello")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["session"] != "abc-123" || entry["component"] != "test" || entry["msg"] != "hello" {
		t.Errorf("entry = %v", entry)
	}
}
