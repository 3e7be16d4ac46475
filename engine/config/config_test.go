package config

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/aos"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/aosa"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/custom"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

func TestParseEmptyDocumentIsDefault(t *testing.T) {
	s, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(s, DefaultSettings()) {
		t.Errorf("settings = %+v, want the defaults", s)
	}
}

func TestParseKeepsDefaultsOfMissingFields(t *testing.T) {
	doc := `{"pipeline": "custom", "custom": {"cameraBuffer": {"renderScale": 0.5}}, "aosa": {"debugDrawMode": "SoftBlur"}}`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Pipeline != PipelineForward || s.Forward.CameraBuffer.RenderScale != 0.5 {
		t.Errorf("pipeline %q render scale %v", s.Pipeline, s.Forward.CameraBuffer.RenderScale)
	}
	if s.Forward.EdgeBreakup.Skew != 4 || s.Ink.SoftBlurDownsample != 4 {
		t.Error("fields missing from the document should keep their defaults")
	}
	if s.Ink.DebugDrawMode != aosa.DebugDrawSoftBlur {
		t.Errorf("debug draw mode = %v", s.Ink.DebugDrawMode)
	}
}

func TestParseSail(t *testing.T) {
	s, err := Parse([]byte(`{"pipeline": "aos", "aos": {"debugDrawMode": "FinalShadow", "warpBloom": true}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Pipeline != PipelineSail || s.Sail.DebugDrawMode != aos.DebugDrawFinalShadow || !s.Sail.WarpBloom {
		t.Errorf("pipeline %q sail %+v", s.Pipeline, s.Sail)
	}
	if s.Sail.HeavyBlurDownsample != 8 {
		t.Error("fields missing from the sail section should keep their defaults")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		incomplete bool
	}{
		{"unknown field", `{"pipline": "aosa"}`, false},
		{"unknown pipeline", `{"pipeline": "deferred"}`, false},
		{"out of range", `{"aosa": {"heavyBlurDownsample": 1}}`, false},
		{"sail out of range", `{"aos": {"softBlurDownsample": 0}}`, false},
		{"wrong type", `{"aosa": {"warpWidth": "wide"}}`, false},
		{"truncated", `{"aosa": {"warpWidth": 1`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if incomplete(err) != tt.incomplete {
				t.Errorf("incomplete(%v) = %v, want %v", err, incomplete(err), tt.incomplete)
			}
		})
	}
}

func TestValidateRejectsNonFiniteFloats(t *testing.T) {
	s := DefaultSettings()
	s.Ink.ShadowThreshold = float32(math.NaN())
	s.Forward.Shadows.Directional.CascadeRatio1 = float32(math.Inf(1))

	err := s.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, field := range []string{"Ink.ShadowThreshold", "Forward.Shadows.Directional.CascadeRatio1"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name %s", err, field)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := DefaultSettings()
	s.Ink.WarpTexture = common.ImageSource{Name: "warp", Data: []byte{1, 2, 3}}
	c := s.Clone()
	c.Ink.WarpTexture.Data[0] = 9
	if s.Ink.WarpTexture.Data[0] != 1 {
		t.Error("clone shares the texture data")
	}
}

func TestStrictContracts(t *testing.T) {
	s := DefaultSettings()
	s.Forward.StrictContracts = true
	if s.StrictContracts() {
		t.Error("the ink pipeline is selected and not strict")
	}
	s.Pipeline = PipelineForward
	if !s.StrictContracts() {
		t.Error("the forward pipeline is strict")
	}
	s.Pipeline = PipelineSail
	if s.StrictContracts() {
		t.Error("the sail pipeline is selected and not strict")
	}
	s.Sail.StrictContracts = true
	if !s.StrictContracts() {
		t.Error("the sail pipeline is strict")
	}
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBuild(t *testing.T) {
	dev := renderer.NewHeadlessDevice()
	t.Cleanup(dev.Close)

	t.Run("ink", func(t *testing.T) {
		s := DefaultSettings()
		s.Ink.WarpTexture = common.ImageSource{Name: "warp", Data: encodePNG(t)}
		cr, release, err := s.Build(dev)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if _, ok := cr.(aosa.CameraRenderer); !ok {
			t.Errorf("renderer = %T, want the ink renderer", cr)
		}
		if dev.Live() != 1 {
			t.Errorf("live textures = %d, want the warp texture", dev.Live())
		}
		release()
		if dev.Live() != 0 {
			t.Errorf("live textures after release = %d", dev.Live())
		}
	})

	t.Run("sail", func(t *testing.T) {
		s := DefaultSettings()
		s.Pipeline = PipelineSail
		s.Ink.WarpTexture = common.ImageSource{Name: "ink warp", Data: []byte("not an image")}
		s.Sail.WarpTexture = common.ImageSource{Name: "warp", Data: encodePNG(t)}
		cr, release, err := s.Build(dev)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if _, ok := cr.(aos.CameraRenderer); !ok {
			t.Errorf("renderer = %T, want the sail renderer", cr)
		}
		if dev.Live() != 1 {
			t.Errorf("live textures = %d, want the sail warp texture", dev.Live())
		}
		release()
	})

	t.Run("forward without edge breakup", func(t *testing.T) {
		s := DefaultSettings()
		s.Pipeline = PipelineForward
		s.Forward.EdgeBreakup.WarpTexture = common.ImageSource{Name: "breakup", Data: encodePNG(t)}
		cr, release, err := s.Build(dev)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		defer release()
		if _, ok := cr.(custom.CameraRenderer); !ok {
			t.Errorf("renderer = %T, want the forward renderer", cr)
		}
		if dev.Live() != 0 {
			t.Error("a disabled edge breakup should not load its texture")
		}
	})

	t.Run("bad texture", func(t *testing.T) {
		s := DefaultSettings()
		s.Ink.WarpTexture = common.ImageSource{Name: "warp", Data: []byte("not an image")}
		if _, _, err := s.Build(dev); err == nil {
			t.Error("expected a decode error")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		s := DefaultSettings()
		s.Pipeline = "deferred"
		if _, _, err := s.Build(dev); err == nil {
			t.Error("expected a validation error")
		}
	})
}

func writeFile(t *testing.T, path, doc string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadRetriesTruncatedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	writeFile(t, path, `{"pipeline": "cus`)
	go func() {
		time.Sleep(30 * time.Millisecond)
		os.WriteFile(path, []byte(`{"pipeline": "custom"}`), 0o644)
	}()

	s, err := load(context.Background(), path, 5*time.Millisecond, 5*time.Second)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Pipeline != PipelineForward {
		t.Errorf("pipeline = %q", s.Pipeline)
	}
}

func TestLoadDoesNotRetryInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	writeFile(t, path, `{"pipeline": "deferred"}`)

	start := time.Now()
	if _, err := load(context.Background(), path, time.Second, 10*time.Second); err == nil {
		t.Fatal("expected an error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("validation errors should fail without retrying")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	writeFile(t, path, `{}`)

	changes := make(chan Settings, 4)
	w, err := NewWatcher(path, WithRetry(5*time.Millisecond, time.Second), WithOnChange(func(s Settings) { changes <- s }))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	writeFile(t, path, `{"pipeline": "custom"}`)
	select {
	case s := <-changes:
		if s.Pipeline != PipelineForward {
			t.Errorf("pipeline = %q", s.Pipeline)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the file changed")
	}
	if w.Settings().Pipeline != PipelineForward {
		t.Error("Settings should return the reloaded document")
	}
}

func TestWatcherKeepsSettingsOnInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	writeFile(t, path, `{"pipeline": "custom"}`)

	called := false
	w, err := NewWatcher(path, WithRetry(5*time.Millisecond, 50*time.Millisecond), WithOnChange(func(Settings) { called = true }))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	// Stop the event loop so only the explicit reload runs.
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	writeFile(t, path, `{"custom": {"cameraBuffer": {"renderScale": 9}}}`)
	if err := w.Reload(context.Background()); err == nil {
		t.Fatal("expected a validation error")
	}
	if w.Settings().Pipeline != PipelineForward || called {
		t.Error("an invalid document must keep the previous settings")
	}
}

func TestNewWatcherFailsOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := NewWatcher(path, WithRetry(time.Millisecond, 20*time.Millisecond)); err == nil {
		t.Error("expected an error")
	}
}
