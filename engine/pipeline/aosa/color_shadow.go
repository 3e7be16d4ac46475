package aosa

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
)

type colorShadowPass struct {
	list rendergraph.RendererListHandle

	litColor, shadowedColor, depth rendergraph.TextureHandle
	shadowBuffers                  []rendergraph.TextureHandle

	litClear    common.Color
	lightColors []common.Vec4
}

// shadowBufferClear is the clear color of shadow buffer i. The red and blue
// channels hold the alpha of the first light packed into the buffer.
func shadowBufferClear(lightColors []common.Vec4, i int) common.Color {
	var a float32
	if 2*i < len(lightColors) {
		a = lightColors[2*i][3]
	}
	return common.Color{R: a, B: a}
}

func (p colorShadowPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	targets := make([]renderer.Texture, 0, 2+len(p.shadowBuffers))
	clearTarget := func(h rendergraph.TextureHandle, c common.Color) {
		tex := ctx.Texture(h)
		cmd.SetRenderTarget([]renderer.Texture{tex}, nil)
		cmd.ClearRenderTarget(true, true, c)
		targets = append(targets, tex)
	}
	clearTarget(p.litColor, p.litClear)
	clearTarget(p.shadowedColor, common.ClearColor)
	for i, h := range p.shadowBuffers {
		clearTarget(h, shadowBufferClear(p.lightColors, i))
	}

	cmd.SetRenderTarget(targets, ctx.Texture(p.depth))
	cmd.ClearRenderTarget(true, false, common.ClearColor)
	cmd.DrawRendererList(ctx.RendererList(p.list))
}

// recordColorShadow draws the opaque ColorShadowPass geometry into the lit,
// shadowed and per light shadow buffers. The returned list gates the blur and
// compositing passes.
func recordColorShadow(r *rendergraph.Recorder, cull scene.CullingResults, cam camera.Camera, t *CameraTextures,
	atlases shadows.Textures, lightColors []common.Vec4) rendergraph.RendererListHandle {
	list := r.CreateRendererList(cull.CreateRendererList(scene.RendererListDesc{
		Name:               "Color Shadow",
		ShaderTags:         []string{"ColorShadowPass"},
		QueueRange:         scene.QueueRangeOpaque,
		RenderingLayerMask: cam.RenderingLayerMask(),
	}))

	litClear := common.ClearColor
	if cam.ClearFlags() == camera.ClearFlagsColor {
		litClear = cam.BackgroundColor().WithAlpha(0)
	}

	r.AddRenderPass("Color Shadow Pass (Opaque Geometry)", func(b *rendergraph.PassBuilder) {
		p := colorShadowPass{
			list:        b.UseRendererList(list),
			litClear:    litClear,
			lightColors: lightColors,
		}
		b.ReadWriteTextures(t.ShadowBuffers)
		p.shadowBuffers = t.ShadowBuffers
		p.litColor = b.ReadWriteTexture(t.LitColor)
		p.shadowedColor = b.ReadWriteTexture(t.ShadowedColor)
		p.depth = b.ReadWriteTexture(t.Depth)
		b.ReadTexture(atlases.DirectionalAtlas)
		b.ReadTexture(atlases.OtherAtlas)
		b.SetRenderFunc(p.render)
	})
	return list
}
