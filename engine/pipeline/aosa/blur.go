package aosa

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

type blurPass struct {
	material *renderer.Material
	format   renderer.TextureDescriptor

	soft, heavy common.Vec2Int

	shadowBuffers, softBlurBuffers, heavyBlurBuffers []rendergraph.TextureHandle
}

// temporaries acquires one temporary per shadow buffer. The returned func releases them all.
func (p blurPass) temporaries(ctx *rendergraph.Context, size common.Vec2Int, filter renderer.FilterMode) ([]renderer.Texture, func()) {
	desc := p.format
	desc.Width, desc.Height, desc.Filter = size.X, size.Y, filter
	temps := make([]renderer.Texture, len(p.shadowBuffers))
	releases := make([]func(), len(p.shadowBuffers))
	for i := range temps {
		desc.Label = passes.TempRTID(i)
		temps[i], releases[i] = ctx.TemporaryTexture(desc)
	}
	return temps, func() {
		for _, release := range releases {
			release()
		}
	}
}

// blur downsamples from into to and blurs to twice, ping-ponging through temps.
func (p blurPass) blur(cmd *renderer.CommandBuffer, from, to, temps []renderer.Texture) {
	passes.Draw(cmd, p.material, PassDownsampleArray, from, to...)
	passes.Draw(cmd, p.material, PassBlurHorizontalArray, to, temps...)
	passes.Draw(cmd, p.material, PassBlurVerticalArray, temps, to...)
}

func (p blurPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	shadowRTs := ctx.Textures(p.shadowBuffers)
	softRTs := ctx.Textures(p.softBlurBuffers)
	heavyRTs := ctx.Textures(p.heavyBlurBuffers)

	temps, release := p.temporaries(ctx, p.soft, renderer.FilterPoint)
	p.blur(cmd, shadowRTs, softRTs, temps)
	release()

	temps, release = p.temporaries(ctx, p.heavy, renderer.FilterBilinear)
	p.blur(cmd, softRTs, heavyRTs, temps)
	release()
}

// recordBlur blurs the shadow buffers into the soft and heavy blur buffers.
// The pass is culled with the color shadow pass.
func recordBlur(r *rendergraph.Recorder, material *renderer.Material, t *CameraTextures, list rendergraph.RendererListHandle) {
	r.AddRenderPass("Blur Pass", func(b *rendergraph.PassBuilder) {
		p := blurPass{
			material:         material,
			shadowBuffers:    t.ShadowBuffers,
			softBlurBuffers:  t.SoftBlurBuffers,
			heavyBlurBuffers: t.HeavyBlurBuffers,
		}
		if len(t.SoftBlurBuffers) > 0 {
			p.format = r.TextureDescriptor(t.SoftBlurBuffers[0])
			p.soft = common.Vec2Int{X: p.format.Width, Y: p.format.Height}
			heavy := r.TextureDescriptor(t.HeavyBlurBuffers[0])
			p.heavy = common.Vec2Int{X: heavy.Width, Y: heavy.Height}
		}
		b.ReadTextures(t.ShadowBuffers)
		b.WriteTextures(t.SoftBlurBuffers)
		b.WriteTextures(t.HeavyBlurBuffers)
		b.DependsOn(list)
		b.SetRenderFunc(p.render)
	})
}
