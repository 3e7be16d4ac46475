package aos

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
)

// UseShadowsKeyword is enabled while the sail light has a shadow atlas tile.
const UseShadowsKeyword = "_USE_SHADOWS"

type shadowPass struct {
	list         rendergraph.RendererListHandle
	color, depth rendergraph.TextureHandle

	clear      common.Color
	useShadows bool
}

func (p shadowPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetKeyword(UseShadowsKeyword, p.useShadows)
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.ClearRenderTarget(false, true, p.clear)
	cmd.DrawRendererList(ctx.RendererList(p.list))
}

type shadowParams struct {
	layerMask  uint32
	hasLight   bool
	useShadows bool
}

// recordShadow draws the light term of the opaque ShadowPass geometry into the
// color attachment. The returned list gates the blur and final shadow passes.
func recordShadow(r *rendergraph.Recorder, cull scene.CullingResults, t *CameraTextures, atlases shadows.Textures,
	sp shadowParams) rendergraph.RendererListHandle {
	list := r.CreateRendererList(cull.CreateRendererList(scene.RendererListDesc{
		Name:               "Shadow",
		ShaderTags:         []string{"ShadowPass"},
		QueueRange:         scene.QueueRangeOpaque,
		RenderingLayerMask: sp.layerMask,
	}))

	r.AddRenderPass("Shadow Pass (Opaque Geometry)", func(b *rendergraph.PassBuilder) {
		p := shadowPass{
			list:       b.UseRendererList(list),
			color:      b.ReadWriteTexture(t.Color),
			depth:      b.ReadWriteTexture(t.Depth),
			clear:      shadowClear(sp.hasLight),
			useShadows: sp.useShadows,
		}
		b.ReadTexture(atlases.DirectionalAtlas)
		b.SetRenderFunc(p.render)
	})
	return list
}
