package aos

import (
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"soft blur too small", func(s *Settings) { s.SoftBlurDownsample = 0 }, false},
		{"soft blur too large", func(s *Settings) { s.SoftBlurDownsample = 17 }, false},
		{"heavy blur too small", func(s *Settings) { s.HeavyBlurDownsample = 1 }, false},
		{"negative step count", func(s *Settings) { s.ShadowStepCount = -1 }, false},
		{"inner glow above one", func(s *Settings) { s.ShadowInnerGlow = 1.5 }, false},
		{"negative warp width", func(s *Settings) { s.WarpWidth = -1 }, false},
		{"unknown debug mode", func(s *Settings) { s.DebugDrawMode = 9 }, false},
		{"bad shadows", func(s *Settings) { s.Shadows.MaxDistance = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok = %v", err, tt.ok)
			}
		})
	}
}

func TestDebugDrawModeJSON(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{"debugDrawMode": "FinalShadow"}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.DebugDrawMode != DebugDrawFinalShadow {
		t.Errorf("mode = %v, want FinalShadow", s.DebugDrawMode)
	}
	if err := json.Unmarshal([]byte(`{"debugDrawMode": "LitColor"}`), &s); err == nil {
		t.Error("a mode of the ink pipeline should not decode")
	}
}

func TestDownsampled(t *testing.T) {
	tests := []struct {
		size common.Vec2Int
		by   int
		want common.Vec2Int
	}{
		{common.Vec2Int{X: 64, Y: 32}, 4, common.Vec2Int{X: 16, Y: 8}},
		{common.Vec2Int{X: 65, Y: 33}, 8, common.Vec2Int{X: 9, Y: 5}},
		{common.Vec2Int{X: 3, Y: 1}, 16, common.Vec2Int{X: 1, Y: 1}},
	}
	for _, tt := range tests {
		if got := downsampled(tt.size, tt.by); got != tt.want {
			t.Errorf("downsampled(%v, %d) = %v, want %v", tt.size, tt.by, got, tt.want)
		}
	}
}

func harbourScene(t *testing.T, withSun bool, tags ...string) scene.Scene {
	t.Helper()
	var drawables []scene.Drawable
	for _, tag := range tags {
		drawables = append(drawables, scene.Drawable{
			Name:               "sail " + tag,
			ShaderTags:         []string{tag},
			Queue:              2000,
			RenderingLayerMask: 1,
			CastShadows:        true,
			Bounds:             common.Bounds{Extents: [3]float32{1, 1, 1}},
		})
	}
	opts := []scene.SceneBuilderOption{scene.WithDrawables(drawables...), scene.WithComputeWorkers(1)}
	if withSun {
		sun := light.NewLight(light.LightTypeDirectional, light.WithDirection(0.3, -1, 0.2), light.WithShadows(light.ShadowsHard, 1))
		opts = append(opts, scene.WithLights(sun))
	}
	s := scene.NewScene("harbour", opts...)
	t.Cleanup(s.Close)
	return s
}

// render draws one frame and returns the device and the executed pass names in order.
func render(t *testing.T, sc scene.Scene, settings Settings, cam camera.Camera) (*renderer.HeadlessDevice, pipeline.Pipeline, []string) {
	t.Helper()
	var (
		mu       sync.Mutex
		executed []string
	)
	observe := func(pass string, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		executed = append(executed, pass)
	}
	dev := renderer.NewHeadlessDevice()
	p := pipeline.NewPipeline(dev, sc, NewCameraRenderer(settings),
		pipeline.WithStrictContracts(true),
		pipeline.WithGraphOptions(rendergraph.WithPassObserver(observe)))
	t.Cleanup(func() {
		p.Close()
		dev.Close()
	})
	if err := p.Render(cam); err != nil {
		t.Fatalf("Render: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	return dev, p, slices.Clone(executed)
}

func newCamera(opts ...camera.CameraBuilderOption) camera.Camera {
	return camera.NewCamera(append([]camera.CameraBuilderOption{
		camera.WithName("Main Camera"),
		camera.WithPixelSize(64, 32),
		camera.WithRenderingLayerMask(1),
		camera.WithController(camera.NewCameraController(camera.WithRadius(10))),
	}, opts...)...)
}

// lastDraw returns the index of the last procedural draw of pass and the render target bound for it.
func lastDraw(cmds []renderer.Command, pass int) (index int, target renderer.Command, ok bool) {
	for i := len(cmds) - 1; i >= 0; i-- {
		if cmds[i].Type != renderer.CmdDrawProcedural || cmds[i].Pass != pass {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if cmds[j].Type == renderer.CmdSetRenderTarget {
				return i, cmds[j], true
			}
		}
	}
	return -1, target, false
}

// source returns the texture bound as source slot of the draw at index.
func source(cmds []renderer.Command, index, slot int) renderer.Texture {
	for i := index - 1; i >= 0; i-- {
		if cmds[i].Type == renderer.CmdSetGlobalTexture && cmds[i].Name == passes.SourceID(slot) {
			return cmds[i].Texture
		}
	}
	return nil
}

// keyword returns the last state set for a keyword.
func keyword(cmds []renderer.Command, name string) (enabled, ok bool) {
	for i := len(cmds) - 1; i >= 0; i-- {
		if cmds[i].Type == renderer.CmdSetKeyword && cmds[i].Name == name {
			return cmds[i].Enabled, true
		}
	}
	return false, false
}

// clearedBefore reports whether tex was bound and cleared with c before index.
func clearedBefore(cmds []renderer.Command, tex renderer.Texture, c common.Color, index int) bool {
	for i := 0; i+1 < index; i++ {
		if cmds[i].Type == renderer.CmdSetRenderTarget && slices.Contains(cmds[i].Colors, tex) &&
			cmds[i+1].Type == renderer.CmdClearRenderTarget && cmds[i+1].Color == c {
			return true
		}
	}
	return false
}

func TestSingleDirectionalLight(t *testing.T) {
	dev, p, executed := render(t, harbourScene(t, true, "WarpPass", "ShadowPass", "ColorPass"), DefaultSettings(), newCamera())

	want := []string{
		"Lighting",
		"Setup",
		"Warp Pass (Opaque Geometry)",
		"Shadow Pass (Opaque Geometry)",
		"Blur Pass",
		"Final Shadow Pass",
		"Color Pass (Opaque Geometry)",
		"Skybox",
		"Final Color Pass",
	}
	if !slices.Equal(executed, want) {
		t.Errorf("executed passes = %v, want %v", executed, want)
	}
	if culled := p.Graph().Stats().CulledNames; !slices.Equal(culled, []string{"Transparent Geometry"}) {
		t.Errorf("culled = %v", culled)
	}

	cmds := dev.Executed()
	if enabled, ok := keyword(cmds, UseShadowsKeyword); !ok || !enabled {
		t.Error("_USE_SHADOWS should be enabled for a shadowed sun")
	}
	if !slices.ContainsFunc(cmds, func(c renderer.Command) bool {
		return c.Type == renderer.CmdClearRenderTarget && !c.ClearDepth && c.Color == LitClearColor
	}) {
		t.Error("the light term was not cleared to fully lit")
	}

	shadowIndex, shadowRT, ok := lastDraw(cmds, PassFinalShadow)
	if !ok {
		t.Fatal("no final shadow draw")
	}
	if i := slices.IndexFunc(cmds, func(c renderer.Command) bool {
		return c.Type == renderer.CmdSetGlobalTexture && c.Name == FinalShadowBufferID
	}); i < shadowIndex || cmds[i].Texture != shadowRT.Colors[0] {
		t.Error("the color pass should sample the final shadow buffer after it is written")
	}

	target, _ := dev.CameraTarget(64, 32)
	finalIndex, rt, ok := lastDraw(cmds, PassFinalColor)
	if !ok {
		t.Fatal("no final color draw")
	}
	if len(rt.Colors) != 1 || rt.Colors[0] != target {
		t.Errorf("final color target = %v, want the camera target", rt.Colors)
	}
	if source(cmds, finalIndex, 2) != shadowRT.Colors[0] {
		t.Error("final color should read the final shadow buffer as its third source")
	}
	if dev.Submits() != 1 {
		t.Errorf("submits = %d, want 1", dev.Submits())
	}
}

func TestInkPassesCulledWithoutShadowGeometry(t *testing.T) {
	dev, p, executed := render(t, harbourScene(t, true, "WarpPass", "ColorPass"), DefaultSettings(), newCamera())

	culled := p.Graph().Stats().CulledNames
	for _, name := range []string{"Shadow Pass (Opaque Geometry)", "Blur Pass", "Final Shadow Pass"} {
		if !slices.Contains(culled, name) {
			t.Errorf("%s should be culled, culled = %v", name, culled)
		}
	}
	if !slices.Contains(executed, "Color Pass (Opaque Geometry)") {
		t.Errorf("the color pass should still run, executed = %v", executed)
	}

	cmds := dev.Executed()
	i := slices.IndexFunc(cmds, func(c renderer.Command) bool {
		return c.Type == renderer.CmdSetGlobalTexture && c.Name == FinalShadowBufferID
	})
	if i < 0 {
		t.Fatal("the final shadow buffer was never bound")
	}
	if !clearedBefore(cmds, cmds[i].Texture, LitClearColor, i) {
		t.Error("the final shadow buffer should be cleared to fully lit before the color pass samples it")
	}
}

func TestNoLight(t *testing.T) {
	dev, _, executed := render(t, harbourScene(t, false, "ShadowPass", "ColorPass"), DefaultSettings(), newCamera())

	if !slices.Contains(executed, "Final Shadow Pass") {
		t.Errorf("shadow geometry should still be shaded, executed = %v", executed)
	}
	cmds := dev.Executed()
	if enabled, ok := keyword(cmds, UseShadowsKeyword); !ok || enabled {
		t.Error("_USE_SHADOWS should be disabled without a light")
	}
	if slices.ContainsFunc(cmds, func(c renderer.Command) bool {
		return c.Type == renderer.CmdClearRenderTarget && c.Color == LitClearColor
	}) {
		t.Error("nothing should be cleared to fully lit without a light")
	}
}

func TestDebugDrawMode(t *testing.T) {
	settings := DefaultSettings()
	settings.Editor = true
	settings.DebugDrawMode = DebugDrawFinalShadow
	sc := harbourScene(t, true, "WarpPass", "ShadowPass", "ColorPass")

	t.Run("scene view", func(t *testing.T) {
		dev, _, _ := render(t, sc, settings, newCamera(camera.WithType(camera.CameraTypeSceneView)))
		cmds := dev.Executed()
		if _, _, ok := lastDraw(cmds, PassFinalColor); ok {
			t.Error("debug mode should replace the final color")
		}
		copyIndex, rt, ok := lastDraw(cmds, PassCopy)
		if !ok {
			t.Fatal("no debug copy")
		}
		target, _ := dev.CameraTarget(64, 32)
		if len(rt.Colors) != 1 || rt.Colors[0] != target {
			t.Errorf("debug copy target = %v, want the camera target", rt.Colors)
		}
		_, shadowRT, _ := lastDraw(cmds, PassFinalShadow)
		if source(cmds, copyIndex, 0) != shadowRT.Colors[0] {
			t.Error("debug copy should show the final shadow buffer")
		}
		if !slices.ContainsFunc(cmds, func(c renderer.Command) bool { return c.Type == renderer.CmdDrawGizmos }) {
			t.Error("editor gizmos were not drawn")
		}
	})

	t.Run("game camera", func(t *testing.T) {
		dev, _, _ := render(t, sc, settings, newCamera())
		if _, _, ok := lastDraw(dev.Executed(), PassFinalColor); !ok {
			t.Error("game cameras ignore debug draw modes")
		}
	})
}

func TestWarpBloomKeyword(t *testing.T) {
	settings := DefaultSettings()
	settings.WarpBloom = true
	dev, _, _ := render(t, harbourScene(t, true, "ColorPass"), settings, newCamera())
	if enabled, ok := keyword(dev.Executed(), WarpBloomKeyword); !ok || !enabled {
		t.Error("_WARP_BLOOM should follow the settings")
	}
}

func TestNewCameraRendererPanicsOnInvalidSettings(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	s := DefaultSettings()
	s.HeavyBlurDownsample = 0
	NewCameraRenderer(s)
}
