package aosa

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

const (
	ShadowStepCountID         = "_ShadowStepCount"
	ShadowThresholdID         = "_ShadowThreshold"
	ShadowThresholdSoftnessID = "_ShadowThresholdSoftness"
	ShadowInnerGlowID         = "_ShadowInnerGlow"
)

type compositingPass struct {
	material *renderer.Material
	settings *Settings

	litColor, shadowedColor           rendergraph.TextureHandle
	softBlurBuffers, heavyBlurBuffers []rendergraph.TextureHandle
	bloomBuffers                      []rendergraph.TextureHandle
}

func (p compositingPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	lit := ctx.Texture(p.litColor)

	desc := lit.Descriptor()
	desc.Label, desc.Filter = passes.TempRTID(0), renderer.FilterPoint
	litCopy, release := ctx.TemporaryTexture(desc)
	defer release()
	passes.Draw(cmd, p.material, PassCopy, []renderer.Texture{lit}, litCopy)

	cmd.SetGlobalInt(ShadowStepCountID, p.settings.ShadowStepCount)
	cmd.SetGlobalFloat(ShadowThresholdID, p.settings.ShadowThreshold)
	cmd.SetGlobalFloat(ShadowThresholdSoftnessID, p.settings.ShadowThresholdSoftness)
	cmd.SetGlobalFloat(ShadowInnerGlowID, p.settings.ShadowInnerGlow)

	// Sources: the lit copy, the shadowed color, then soft and heavy blur pairs.
	sources := []renderer.Texture{litCopy, ctx.Texture(p.shadowedColor)}
	for i := range p.softBlurBuffers {
		sources = append(sources, ctx.Texture(p.softBlurBuffers[i]), ctx.Texture(p.heavyBlurBuffers[i]))
	}
	targets := append([]renderer.Texture{lit}, ctx.Textures(p.bloomBuffers)...)
	passes.Draw(cmd, p.material, PassCompositing, sources, targets...)
}

// recordCompositing resolves the stepped ink shading into the lit buffer and
// extracts bloom. The pass is culled with the color shadow pass.
func recordCompositing(r *rendergraph.Recorder, material *renderer.Material, s *Settings, t *CameraTextures, list rendergraph.RendererListHandle) {
	r.AddRenderPass("CompositingPass", func(b *rendergraph.PassBuilder) {
		p := compositingPass{
			material:         material,
			settings:         s,
			litColor:         b.ReadWriteTexture(t.LitColor),
			shadowedColor:    b.ReadTexture(t.ShadowedColor),
			softBlurBuffers:  t.SoftBlurBuffers,
			heavyBlurBuffers: t.HeavyBlurBuffers,
			bloomBuffers:     t.BloomBuffers,
		}
		b.ReadTextures(t.SoftBlurBuffers)
		b.ReadTextures(t.HeavyBlurBuffers)
		b.WriteTextures(t.BloomBuffers)
		b.DependsOn(list)
		b.SetRenderFunc(p.render)
	})
}
