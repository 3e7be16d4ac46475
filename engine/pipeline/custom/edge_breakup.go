package custom

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// EdgeBreakupShaderTag selects the shader pass writing screen space edge offsets.
const EdgeBreakupShaderTag = "EdgeBreakup"

type edgeBreakupPass struct {
	list         rendergraph.RendererListHandle
	color, depth rendergraph.TextureHandle
}

func (p edgeBreakupPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.DrawRendererList(ctx.RendererList(p.list))
}

// recordEdgeBreakup draws the opaque edge offsets into the edge breakup
// buffers. Nothing is recorded when edge breakup is disabled.
func recordEdgeBreakup(r *rendergraph.Recorder, cull scene.CullingResults, layers uint32, t *CameraTextures) {
	if !t.EdgeBreakupColor.IsValid() {
		return
	}
	r.AddRenderPass("Edge Breakup Pass (Opaque Geometry)", func(b *rendergraph.PassBuilder) {
		list := r.CreateRendererList(cull.CreateRendererList(scene.RendererListDesc{
			Name:               "Edge Breakup",
			ShaderTags:         []string{EdgeBreakupShaderTag},
			QueueRange:         scene.QueueRangeOpaque,
			RenderingLayerMask: layers,
		}))
		p := edgeBreakupPass{
			list:  b.UseRendererList(list),
			color: b.ReadWriteTexture(t.EdgeBreakupColor),
			depth: b.ReadWriteTexture(t.EdgeBreakupDepth),
		}
		b.SetRenderFunc(p.render)
	})
}
