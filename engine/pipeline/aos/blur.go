package aos

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

type blurPass struct {
	material *renderer.Material

	color, soft, heavy  rendergraph.TextureHandle
	softDesc, heavyDesc renderer.TextureDescriptor
}

// blur downsamples from into to and blurs to horizontally then vertically
// through a temporary of the same size.
func (p blurPass) blur(ctx *rendergraph.Context, from, to renderer.Texture, desc renderer.TextureDescriptor, filter renderer.FilterMode) {
	cmd := ctx.Cmd()
	desc.Label, desc.Filter = passes.TempRTID(0), filter
	temp, release := ctx.TemporaryTexture(desc)
	defer release()

	passes.Draw(cmd, p.material, PassDownsample, []renderer.Texture{from}, to)
	passes.Draw(cmd, p.material, PassBlurHorizontal, []renderer.Texture{to}, temp)
	passes.Draw(cmd, p.material, PassBlurVertical, []renderer.Texture{temp}, to)
}

func (p blurPass) render(ctx *rendergraph.Context) {
	soft := ctx.Texture(p.soft)
	p.blur(ctx, ctx.Texture(p.color), soft, p.softDesc, renderer.FilterPoint)
	p.blur(ctx, soft, ctx.Texture(p.heavy), p.heavyDesc, renderer.FilterBilinear)
}

// recordBlur blurs the light term into the soft buffer, then the soft buffer
// into the heavy one. The pass is culled with the shadow pass.
func recordBlur(r *rendergraph.Recorder, material *renderer.Material, t *CameraTextures, list rendergraph.RendererListHandle) {
	r.AddRenderPass("Blur Pass", func(b *rendergraph.PassBuilder) {
		p := blurPass{
			material:  material,
			color:     b.ReadTexture(t.Color),
			soft:      b.ReadWriteTexture(t.SoftBlurBuffer),
			heavy:     b.ReadWriteTexture(t.HeavyBlurBuffer),
			softDesc:  r.TextureDescriptor(t.SoftBlurBuffer),
			heavyDesc: r.TextureDescriptor(t.HeavyBlurBuffer),
		}
		b.DependsOn(list)
		b.SetRenderFunc(p.render)
	})
}
