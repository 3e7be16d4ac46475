package scene

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

func box(x, y, z, e float32) common.Bounds {
	return common.Bounds{Center: [3]float32{x, y, z}, Extents: [3]float32{e, e, e}}
}

// forwardParams looks down -Z from the origin.
func forwardParams() CullingParameters {
	p := CullingParameters{Near: 0.1, Far: 100, ShadowDistance: 50}
	common.LookAt(p.View[:], [3]float32{0, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0})
	common.Perspective(p.Projection[:], 60*common.Deg2Rad, 1, p.Near, p.Far)
	return p
}

func newTestScene(t *testing.T, opts ...SceneBuilderOption) Scene {
	t.Helper()
	s := NewScene("test", append([]SceneBuilderOption{WithComputeWorkers(2), WithCullChunkSize(2)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestDrawableRegistry(t *testing.T) {
	s := newTestScene(t, WithDrawables(Drawable{Name: "a"}, Drawable{Name: "b"}))
	id := s.AddDrawable(Drawable{Name: "c"})
	if id != 3 {
		t.Fatalf("id = %d, want 3", id)
	}
	s.RemoveDrawable(2)
	s.RemoveDrawable(42)

	got := s.Drawables()
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("drawables = %v", got)
	}
}

func TestCullDrawables(t *testing.T) {
	s := newTestScene(t)
	for i := 0; i < 7; i++ {
		s.AddDrawable(Drawable{Name: "front", Bounds: box(0, 0, -5-float32(i), 0.5)})
	}
	s.AddDrawable(Drawable{Name: "behind", Bounds: box(0, 0, 5, 0.5)})
	s.AddDrawable(Drawable{Name: "beyond far", Bounds: box(0, 0, -200, 0.5)})

	r, ok := s.Cull(forwardParams())
	if !ok {
		t.Fatal("cull failed")
	}
	visible := r.VisibleDrawables()
	if len(visible) != 7 {
		t.Fatalf("visible = %d, want 7", len(visible))
	}
	for _, d := range visible {
		if d.Name != "front" {
			t.Errorf("%s should be culled", d.Name)
		}
	}
}

func TestCullRejectsDegenerateCamera(t *testing.T) {
	s := newTestScene(t)
	p := forwardParams()
	p.Far = p.Near
	if _, ok := s.Cull(p); ok {
		t.Error("far == near should fail")
	}
	if _, ok := s.Cull(CullingParameters{Near: 0.1, Far: 10}); ok {
		t.Error("zero matrices should fail")
	}
}

func TestCullLights(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional)
	off := light.NewLight(light.LightTypeDirectional, light.WithEnabled(false))
	near := light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, -5), light.WithRange(2))
	far := light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, 50), light.WithRange(2))
	s := newTestScene(t, WithLights(sun, off, near, far))

	r, _ := s.Cull(forwardParams())
	got := r.VisibleLights()
	if len(got) != 2 || got[0] != sun || got[1] != near {
		t.Errorf("visible lights = %d, want the sun and the near point light", len(got))
	}
}

func TestCreateRendererList(t *testing.T) {
	s := newTestScene(t, WithDrawables(
		Drawable{Name: "lit", ShaderTags: []string{"CustomLit"}, Queue: 2000, RenderingLayerMask: 1, Bounds: box(0, 0, -5, 1)},
		Drawable{Name: "glass", ShaderTags: []string{"CustomLit"}, Queue: 3000, RenderingLayerMask: 1, Bounds: box(0, 0, -5, 1)},
		Drawable{Name: "warp", ShaderTags: []string{"ColorShadowPass", "WarpPass"}, Queue: 2000, RenderingLayerMask: 1, Bounds: box(0, 0, -5, 1)},
		Drawable{Name: "layer2", ShaderTags: []string{"CustomLit"}, Queue: 2000, RenderingLayerMask: 2, Bounds: box(0, 0, -5, 1)},
	))
	r, _ := s.Cull(forwardParams())

	tests := []struct {
		name string
		desc RendererListDesc
		want []string
	}{
		{"opaque", RendererListDesc{ShaderTags: []string{"CustomLit"}, QueueRange: QueueRangeOpaque, RenderingLayerMask: 1}, []string{"lit"}},
		{"transparent", RendererListDesc{ShaderTags: []string{"CustomLit"}, QueueRange: QueueRangeTransparent, RenderingLayerMask: ^uint32(0)}, []string{"glass"}},
		{"all layers", RendererListDesc{ShaderTags: []string{"CustomLit", "WarpPass"}, QueueRange: QueueRangeAll, RenderingLayerMask: ^uint32(0)}, []string{"lit", "glass", "warp", "layer2"}},
		{"no tags", RendererListDesc{QueueRange: QueueRangeAll, RenderingLayerMask: ^uint32(0)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := r.CreateRendererList(tt.desc)
			if l.Count() != len(tt.want) || l.IsEmpty() != (len(tt.want) == 0) {
				t.Fatalf("count = %d, want %d", l.Count(), len(tt.want))
			}
			for i, d := range l.Drawables() {
				if d.Name != tt.want[i] {
					t.Errorf("drawable %d = %s, want %s", i, d.Name, tt.want[i])
				}
			}
		})
	}
}

func TestShadowCasterBounds(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional)
	spot := light.NewLight(light.LightTypeSpot, light.WithPosition(0, 0, -5), light.WithRange(3), light.WithDirection(0, 0, -1))
	s := newTestScene(t, WithLights(sun, spot), WithDrawables(
		Drawable{Name: "caster", Bounds: box(0, 0, -20, 1), RenderingLayerMask: 1, CastShadows: true},
		Drawable{Name: "receiver", Bounds: box(0, 0, -5, 1), RenderingLayerMask: 1},
	))
	r, _ := s.Cull(forwardParams())

	b, ok := r.GetShadowCasterBounds(0)
	if !ok || b.Center[2] != -20 {
		t.Errorf("directional caster bounds = %v, %v", b, ok)
	}
	if _, ok := r.GetShadowCasterBounds(1); ok {
		t.Error("spot light reaches no caster")
	}
	if _, ok := r.GetShadowCasterBounds(7); ok {
		t.Error("out of range index should have no bounds")
	}
}

func TestPointShadowFaces(t *testing.T) {
	point := light.NewLight(light.LightTypePoint, light.WithPosition(1, 2, 3), light.WithRange(10))
	s := newTestScene(t, WithLights(point))
	r, _ := s.Cull(forwardParams())

	for face := renderer.CubemapFacePositiveX; face <= renderer.CubemapFaceNegativeZ; face++ {
		view, _, split, ok := r.ComputePointShadowMatricesAndCullingPrimitives(0, face, 0)
		if !ok {
			t.Fatalf("face %d failed", face)
		}
		f := cubeFaces[face][0]
		p := common.TransformPoint(&view, [3]float32{1 + f[0], 2 + f[1], 3 + f[2]})
		if !approx(p[0], 0) || !approx(p[1], 0) || !approx(p[2], -1) {
			t.Errorf("face %d looks at %v, want (0, 0, -1)", face, p)
		}
		if split.CullingSphere != [4]float32{1, 2, 3, 10} {
			t.Errorf("face %d sphere = %v", face, split.CullingSphere)
		}
	}
	if _, _, _, ok := r.ComputeSpotShadowMatricesAndCullingPrimitives(0); ok {
		t.Error("a point light has no spot matrices")
	}
}

func TestDirectionalCascades(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional)
	s := newTestScene(t, WithLights(sun))
	r, _ := s.Cull(forwardParams())
	ratios := [3]float32{0.1, 0.25, 0.5}

	prev := float32(0)
	for i := 0; i < 4; i++ {
		_, proj, split, ok := r.ComputeDirectionalShadowMatricesAndCullingPrimitives(0, i, 4, ratios, 1024, 0.2)
		if !ok {
			t.Fatalf("cascade %d failed", i)
		}
		radius := split.CullingSphere[3]
		if radius <= prev {
			t.Errorf("cascade %d radius %v not larger than %v", i, radius, prev)
		}
		if !approx(proj[0], 1/radius) {
			t.Errorf("cascade %d ortho scale %v, want %v", i, proj[0], 1/radius)
		}
		prev = radius
	}
	if _, _, _, ok := r.ComputeDirectionalShadowMatricesAndCullingPrimitives(0, 4, 4, ratios, 1024, 0); ok {
		t.Error("cascade index past the count should fail")
	}
}
