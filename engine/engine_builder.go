package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/config"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine presents to and reads input from.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the render device instead of creating one on the window surface.
//
// Parameters:
//   - d: the device, owned and closed by the engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(d renderer.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithSettings sets the pipeline settings. Ignored when WithSettingsFile is used.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSettings(s config.Settings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = s
	}
}

// WithSettingsFile loads the pipeline settings from a JSON file and swaps the
// camera renderer whenever the file changes.
//
// Parameters:
//   - path: the settings file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSettingsFile(path string) EngineBuilderOption {
	return func(e *engine) {
		e.settingsPath = path
	}
}

// WithCameras registers cameras in render order.
//
// Parameters:
//   - cams: the cameras
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCameras(cams ...camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.cameras = append(e.cameras, cams...)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
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
