package aos

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

type finalShadowPass struct {
	material *renderer.Material
	settings *Settings

	color, soft, heavy, final rendergraph.TextureHandle
}

func (p finalShadowPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetGlobalInt(ShadowStepCountID, p.settings.ShadowStepCount)
	cmd.SetGlobalFloat(ShadowThresholdID, p.settings.ShadowThreshold)
	cmd.SetGlobalFloat(ShadowThresholdSoftnessID, p.settings.ShadowThresholdSoftness)
	cmd.SetGlobalFloat(ShadowInnerGlowID, p.settings.ShadowInnerGlow)

	sources := ctx.Textures([]rendergraph.TextureHandle{p.color, p.soft, p.heavy})
	passes.Draw(cmd, p.material, PassFinalShadow, sources, ctx.Texture(p.final))
}

// recordFinalShadow steps the light term and its blurs into the final shadow
// buffer. The pass is culled with the shadow pass.
func recordFinalShadow(r *rendergraph.Recorder, material *renderer.Material, s *Settings, t *CameraTextures, list rendergraph.RendererListHandle) {
	r.AddRenderPass("Final Shadow Pass", func(b *rendergraph.PassBuilder) {
		p := finalShadowPass{
			material: material,
			settings: s,
			color:    b.ReadTexture(t.Color),
			soft:     b.ReadTexture(t.SoftBlurBuffer),
			heavy:    b.ReadTexture(t.HeavyBlurBuffer),
			final:    b.WriteTexture(t.FinalShadowBuffer),
		}
		b.DependsOn(list)
		b.SetRenderFunc(p.render)
	})
}
