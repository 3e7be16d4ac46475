package passes

import (
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
	"github.com/gogpu/gputypes"
)

func colorDesc(label string) renderer.TextureDescriptor {
	return renderer.TextureDescriptor{Label: label, Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm}
}

func depthDesc(label string) renderer.TextureDescriptor {
	return renderer.TextureDescriptor{Label: label, Width: 8, Height: 8, DepthBits: renderer.Depth32}
}

type fixture struct {
	dev   *renderer.HeadlessDevice
	graph *rendergraph.Graph
	cull  scene.CullingResults
}

func newFixture(t *testing.T, opts ...scene.SceneBuilderOption) *fixture {
	t.Helper()
	dev := renderer.NewHeadlessDevice()
	g := rendergraph.NewGraph(dev)
	s := scene.NewScene("passes", opts...)
	t.Cleanup(func() {
		s.Close()
		g.Cleanup()
		dev.Close()
	})

	cam := camera.NewCamera(camera.WithController(camera.NewCameraController(camera.WithRadius(10))))
	cull, ok := s.Cull(cam.CullingParameters(50))
	if !ok {
		t.Fatal("cull failed")
	}
	return &fixture{dev: dev, graph: g, cull: cull}
}

func (f *fixture) run(t *testing.T, record func(*rendergraph.Recorder)) *renderer.CommandBuffer {
	t.Helper()
	cmd := renderer.NewCommandBuffer(t.Name())
	if err := f.graph.RecordAndExecute(rendergraph.RecordParams{CommandBuffer: cmd}, record); err != nil {
		t.Fatalf("RecordAndExecute: %v", err)
	}
	return cmd
}

func TestDraw(t *testing.T) {
	dev := renderer.NewHeadlessDevice()
	defer dev.Close()
	a, _ := dev.CreateTexture(colorDesc("a"))
	b, _ := dev.CreateTexture(colorDesc("b"))
	out, _ := dev.CreateTexture(colorDesc("out"))

	cmd := renderer.NewCommandBuffer("draw")
	mat := &renderer.Material{Name: "PostFX"}
	Draw(cmd, mat, 3, []renderer.Texture{a, b}, out)

	cmds := cmd.Commands()
	if len(cmds) != 4 {
		t.Fatalf("recorded %d commands, want 4", len(cmds))
	}
	if cmds[0].Name != "_Source0" || cmds[0].Texture != a || cmds[1].Name != "_Source1" || cmds[1].Texture != b {
		t.Errorf("sources = %s, %s", cmds[0].Name, cmds[1].Name)
	}
	if cmds[2].Type != renderer.CmdSetRenderTarget || len(cmds[2].Colors) != 1 || cmds[2].Depth != nil {
		t.Errorf("target command = %+v", cmds[2])
	}
	if cmds[3].Material != mat || cmds[3].Pass != 3 {
		t.Errorf("draw command = %+v", cmds[3])
	}
}

func TestBufferSize(t *testing.T) {
	got := BufferSize(common.Vec2Int{X: 4, Y: 2})
	if got != (common.Vec4{0.25, 0.5, 4, 2}) {
		t.Errorf("buffer size = %v", got)
	}
}

func TestRecordSkyboxOnlyForSkyboxClear(t *testing.T) {
	tests := []struct {
		flags camera.ClearFlags
		want  int
	}{
		{camera.ClearFlagsSkybox, 1},
		{camera.ClearFlagsColor, 0},
		{camera.ClearFlagsNothing, 0},
	}
	for _, tt := range tests {
		f := newFixture(t)
		target, _ := f.dev.CameraTarget(8, 8)
		f.run(t, func(r *rendergraph.Recorder) {
			depth := r.CreateTexture(depthDesc("depth"))
			r.AddRenderPass("Clear Depth", func(b *rendergraph.PassBuilder) {
				b.WriteTexture(depth)
				b.SetRenderFunc(func(*rendergraph.Context) {})
			})
			RecordSkybox(r, tt.flags, r.ImportTexture(target), depth)
		})
		if got := f.graph.Stats().Executed; got != tt.want*2 {
			t.Errorf("flags %d: executed %d passes, want %d", tt.flags, got, tt.want*2)
		}
	}
}

func TestGeometryCulledWhenEmpty(t *testing.T) {
	f := newFixture(t, scene.WithDrawables(scene.Drawable{
		Name:               "glass",
		ShaderTags:         []string{"CustomLit"},
		Queue:              3000,
		RenderingLayerMask: 1,
		Bounds:             common.Bounds{Extents: [3]float32{1, 1, 1}},
	}))
	target, _ := f.dev.CameraTarget(8, 8)

	cmd := f.run(t, func(r *rendergraph.Recorder) {
		color := r.ImportTexture(target)
		depth := r.ImportTexture(target)
		RecordGeometry(r, f.cull, Geometry{
			Name:               "Opaque Geometry",
			ShaderTags:         DefaultShaderTags,
			QueueRange:         scene.QueueRangeOpaque,
			RenderingLayerMask: ^uint32(0),
			Color:              color,
			Depth:              depth,
		})
		RecordTransparent(r, f.cull, color, depth)
		RecordUnsupportedShaders(r, f.cull, false, color, depth)
	})

	stats := f.graph.Stats()
	if stats.Passes != 2 || stats.Executed != 1 || stats.CulledNames[0] != "Opaque Geometry" {
		t.Errorf("stats = %+v", stats)
	}
	draws := 0
	for _, c := range cmd.Commands() {
		if c.Type == renderer.CmdDrawRendererList {
			draws++
			if c.RendererList.Count() != 1 {
				t.Errorf("transparent list has %d drawables", c.RendererList.Count())
			}
		}
	}
	if draws != 1 {
		t.Errorf("draws = %d, want 1", draws)
	}
}

func TestLightingWithoutLights(t *testing.T) {
	f := newFixture(t)
	lighting := NewLighting(light.InkLimits)

	var textures shadows.Textures
	var total int
	f.run(t, func(r *rendergraph.Recorder) {
		textures, total = lighting.Record(r, f.cull, shadows.DefaultSettings(), ^uint32(0), false)
		if d := r.TextureDescriptor(textures.DirectionalAtlas); d.Width != 1 || !d.IsShadowMap {
			t.Errorf("directional atlas = %+v, want the default shadow texture", d)
		}
	})
	if total != 0 {
		t.Errorf("total lights = %d", total)
	}
	if f.graph.Stats().Executed != 1 {
		t.Error("the lighting pass must run with no lights")
	}
}

func TestLightingPacksLights(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional, light.WithShadows(light.ShadowsHard, 1))
	f := newFixture(t,
		scene.WithLights(sun),
		scene.WithDrawables(scene.Drawable{
			Name:               "caster",
			RenderingLayerMask: 1,
			CastShadows:        true,
			Bounds:             common.Bounds{Extents: [3]float32{1, 1, 1}},
		}))
	lighting := NewLighting(light.InkLimits)

	var total int
	f.run(t, func(r *rendergraph.Recorder) {
		var textures shadows.Textures
		textures, total = lighting.Record(r, f.cull, shadows.DefaultSettings(), ^uint32(0), false)
		if d := r.TextureDescriptor(textures.DirectionalAtlas); d.Width != int(shadows.DefaultSettings().Directional.AtlasSize) {
			t.Errorf("directional atlas width = %d", d.Width)
		}
	})
	if total != 1 || lighting.Globals().DirectionalCount != 1 || lighting.Shadows().DirectionalCount() != 1 {
		t.Errorf("total = %d, globals = %d, shadows = %d",
			total, lighting.Globals().DirectionalCount, lighting.Shadows().DirectionalCount())
	}
}

func TestLineBoilTime(t *testing.T) {
	got := LineBoilTime(3601.1)
	want := common.Vec4{1.1, 26.0 / 24, 13.0 / 12, 1}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > 1e-4 {
			t.Errorf("component %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRecordWarp(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		runs bool
	}{
		{"warp geometry", []string{"WarpPass"}, true},
		{"no warp geometry", []string{"CustomLit"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, scene.WithDrawables(scene.Drawable{
				Name:               "hull",
				ShaderTags:         tt.tags,
				Queue:              2000,
				RenderingLayerMask: 1,
				Bounds:             common.Bounds{Extents: [3]float32{1, 1, 1}},
			}))
			cmd := f.run(t, func(r *rendergraph.Recorder) {
				color := r.CreateTexture(colorDesc("warp color"))
				RecordWarp(r, f.cull, Warp{
					Scale:              2,
					RenderingLayerMask: ^uint32(0),
					Color:              color,
					Depth:              r.CreateTexture(depthDesc("warp depth")),
				})
				r.AddRenderPass("read", func(b *rendergraph.PassBuilder) {
					b.AllowPassCulling(false)
					b.ReadTexture(color)
					b.SetRenderFunc(func(*rendergraph.Context) {})
				})
			})

			cleared := slices.ContainsFunc(cmd.Commands(), func(c renderer.Command) bool {
				return c.Type == renderer.CmdClearRenderTarget && c.Color == WarpClearColor
			})
			scaled := slices.ContainsFunc(cmd.Commands(), func(c renderer.Command) bool {
				return c.Type == renderer.CmdSetGlobalFloat && c.Name == WarpTextureScaleID && c.Float == 2
			})
			if cleared != tt.runs || scaled != tt.runs {
				t.Errorf("cleared = %v, scale set = %v, want pass run = %v", cleared, scaled, tt.runs)
			}
		})
	}
}
