package engine

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/config"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	"github.com/Carmen-Shannon/oxy-ink/engine/window"
)

func newTestScene(t *testing.T) scene.Scene {
	t.Helper()
	sc := scene.NewScene("harbour", scene.WithDrawables(scene.Drawable{
		Name:               "hull",
		ShaderTags:         []string{"CustomLit", "ColorShadowPass", "WarpPass"},
		Queue:              2000,
		RenderingLayerMask: 1,
		Bounds:             common.Bounds{Extents: [3]float32{1, 1, 1}},
	}))
	t.Cleanup(sc.Close)
	return sc
}

func newTestCamera(name string) camera.Camera {
	return camera.NewCamera(
		camera.WithName(name),
		camera.WithPixelSize(64, 32),
		camera.WithController(camera.NewCameraController()),
	)
}

// shutdown stops an engine that was never run and releases its resources.
func shutdown(e Engine) {
	e.Quit()
	e.Run()
}

func TestNewEngineRequirements(t *testing.T) {
	if _, err := NewEngine(nil, WithDevice(renderer.NewHeadlessDevice())); err == nil {
		t.Error("a nil scene should fail")
	}
	if _, err := NewEngine(newTestScene(t)); err == nil {
		t.Error("an engine without window and device should fail")
	}

	s := config.DefaultSettings()
	s.Pipeline = "deferred"
	if _, err := NewEngine(newTestScene(t), WithDevice(renderer.NewHeadlessDevice()), WithSettings(s)); err == nil {
		t.Error("invalid settings should fail")
	}
}

func TestRunRendersEveryCamera(t *testing.T) {
	dev := renderer.NewHeadlessDevice()
	e, err := NewEngine(newTestScene(t),
		WithDevice(dev),
		WithCameras(newTestCamera("Main"), newTestCamera("Minimap")),
		WithTickRate(240),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	var frames, ticks atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })
	e.SetRenderCallback(func(float32) {
		if frames.Add(1) == 4 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not stop")
	}

	// The frame that called Quit still renders.
	if got := dev.Submits(); got != 8 {
		t.Errorf("submits = %d, want 8", got)
	}
	if dev.Live() != 0 {
		t.Errorf("%d textures alive after Run", dev.Live())
	}
}

func TestApplySettingsSwapsRenderer(t *testing.T) {
	e, err := NewEngine(newTestScene(t), WithDevice(renderer.NewHeadlessDevice()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer shutdown(e)

	s := config.DefaultSettings()
	s.Pipeline = config.PipelineForward
	if err := e.ApplySettings(s); err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	if e.Settings().Pipeline != config.PipelineForward {
		t.Errorf("pipeline = %q", e.Settings().Pipeline)
	}

	s.Pipeline = "deferred"
	if err := e.ApplySettings(s); err == nil {
		t.Fatal("invalid settings should fail")
	}
	if e.Settings().Pipeline != config.PipelineForward {
		t.Error("a failed swap should keep the previous settings")
	}
}

func TestSettingsFileReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(`{"pipeline": "custom"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(newTestScene(t), WithDevice(renderer.NewHeadlessDevice()), WithSettingsFile(path))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer shutdown(e)

	if e.Settings().Pipeline != config.PipelineForward {
		t.Fatalf("pipeline = %q, want the file's", e.Settings().Pipeline)
	}
	if err := os.WriteFile(path, []byte(`{"pipeline": "aosa"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for e.Settings().Pipeline != config.PipelineInk {
		if time.Now().After(deadline) {
			t.Fatal("settings file change was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleInput(t *testing.T) {
	cam := newTestCamera("Main")
	e, err := NewEngine(newTestScene(t), WithDevice(renderer.NewHeadlessDevice()), WithCameras(cam))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer shutdown(e)
	impl := e.(*engine)
	ctrl := cam.Controller()

	radius := ctrl.Radius()
	impl.handleInput(window.InputEvent{Type: window.InputScroll, Delta: 2})
	if ctrl.Radius() != radius-2 {
		t.Errorf("radius = %v, want %v", ctrl.Radius(), radius-2)
	}

	impl.handleInput(window.InputEvent{Type: window.InputDrag, X: -100})
	if ctrl.Azimuth() <= 0 {
		t.Errorf("azimuth = %v, dragging left should orbit positively", ctrl.Azimuth())
	}

	impl.handleInput(window.InputEvent{Type: window.InputKeyDown, Key: window.KeyP})
	if !impl.profilingEnabled {
		t.Error("KeyP should enable profiling")
	}
	impl.handleInput(window.InputEvent{Type: window.InputKeyUp, Key: window.KeyP})
	impl.handleInput(window.InputEvent{Type: window.InputKeyDown, Key: window.KeyP})
	if impl.profilingEnabled {
		t.Error("a second KeyP should disable profiling")
	}
}

func TestResizeUpdatesGameCameras(t *testing.T) {
	game := newTestCamera("Main")
	preview := camera.NewCamera(camera.WithType(camera.CameraTypePreview), camera.WithPixelSize(16, 16))
	e, err := NewEngine(newTestScene(t), WithDevice(renderer.NewHeadlessDevice()), WithCameras(game, preview))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer shutdown(e)

	e.(*engine).resize(800, 600)
	if got := game.PixelSize(); got != (common.Vec2Int{X: 800, Y: 600}) {
		t.Errorf("game camera = %v", got)
	}
	if got := preview.PixelSize(); got != (common.Vec2Int{X: 16, Y: 16}) {
		t.Errorf("preview camera = %v, should keep its size", got)
	}
}
