package aos

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

const FinalShadowBufferID = "_FinalShadowBuffer"

type colorPass struct {
	list                rendergraph.RendererListHandle
	color, depth, final rendergraph.TextureHandle
	background          common.Color
}

func (p colorPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.ClearRenderTarget(false, true, p.background)
	cmd.SetGlobalTexture(FinalShadowBufferID, ctx.Texture(p.final))
	cmd.DrawRendererList(ctx.RendererList(p.list))
}

// recordColor replaces the light term with the shaded color of the opaque
// ColorPass geometry, sampling the final shadow buffer.
func recordColor(r *rendergraph.Recorder, cull scene.CullingResults, layerMask uint32, background common.Color, t *CameraTextures) {
	r.AddRenderPass("Color Pass (Opaque Geometry)", func(b *rendergraph.PassBuilder) {
		p := colorPass{
			list: b.UseRendererList(r.CreateRendererList(cull.CreateRendererList(scene.RendererListDesc{
				Name:               "Color",
				ShaderTags:         []string{"ColorPass"},
				QueueRange:         scene.QueueRangeOpaque,
				RenderingLayerMask: layerMask,
			}))),
			color:      b.ReadWriteTexture(t.Color),
			depth:      b.ReadWriteTexture(t.Depth),
			final:      b.ReadTexture(t.FinalShadowBuffer),
			background: background,
		}
		b.SetRenderFunc(p.render)
	})
}
