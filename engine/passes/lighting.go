package passes

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
)

// Lighting packs the visible lights and renders their shadow atlases. One
// Lighting is kept per pipeline and reused for every camera.
type Lighting struct {
	globals *light.Globals
	shadows *shadows.Packer
}

// NewLighting returns a Lighting packing at most limits lights.
func NewLighting(limits light.Limits) *Lighting {
	return &Lighting{
		globals: light.NewGlobals(limits),
		shadows: shadows.NewPacker(),
	}
}

// Globals returns the packed lights of the last recorded camera.
func (l *Lighting) Globals() *light.Globals {
	return l.globals
}

// Shadows returns the shadow packer.
func (l *Lighting) Shadows() *shadows.Packer {
	return l.shadows
}

// Record packs the lights and adds the forced "Lighting" pass that sets the
// light globals and renders the shadow atlases.
//
// Parameters:
//   - r: the recorder of the current camera
//   - cull: the camera's culling results
//   - settings: the shadow settings
//   - renderingLayerMask: the layers lights must share with the camera
//   - reversedZ: whether the device uses a reversed depth buffer
//
// Returns:
//   - shadows.Textures: the atlas handles
//   - int: the number of packed lights
func (l *Lighting) Record(r *rendergraph.Recorder, cull scene.CullingResults, settings shadows.Settings,
	renderingLayerMask uint32, reversedZ bool) (shadows.Textures, int) {
	l.shadows.Setup(cull, settings, reversedZ)
	total := l.globals.Setup(cull.VisibleLights(), renderingLayerMask, l.shadows)

	var textures shadows.Textures
	r.AddRenderPass("Lighting", func(b *rendergraph.PassBuilder) {
		b.AllowPassCulling(false)
		textures = l.shadows.GetRenderTextures(r, b)
		b.SetRenderFunc(l.render)
	})
	return textures, total
}

func (l *Lighting) render(ctx *rendergraph.Context) {
	l.globals.Apply(ctx.Cmd())
	l.shadows.Render(ctx)
}
