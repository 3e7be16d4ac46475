package custom

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

const (
	EdgeBreakupBufferID                 = "_EdgeBreakupBuffer"
	EdgeBreakupWarpTextureID            = "_EdgeBreakupWarpTexture"
	EdgeBreakupWarpTextureScaleID       = "_EdgeBreakupWarpTextureScale"
	EdgeBreakupDistanceID               = "_EdgeBreakupDistance"
	EdgeBreakupDistanceFadeMultiplierID = "_EdgeBreakupDistanceFadeMultiplier"
	EdgeBreakupSkewID                   = "_EdgeBreakupSkew"
	EdgeBreakupRenderScaleID            = "_EdgeBreakupRenderScale"

	AgeOfSailBlurBufferID     = "_AgeOfSailBlurBuffer"
	BlurRadiusID              = "_BlurRadius"
	ShadowThresholdID         = "_ShadowThreshold"
	ShadowThresholdSoftnessID = "_ShadowThresholdSoftness"
)

// Shader keywords toggled by the forward pipeline.
const (
	LightsPerObjectKeyword  = "_LIGHTS_PER_OBJECT"
	EdgeBreakupKeyword      = "_EDGE_BREAKUP"
	EdgeBreakupDebugKeyword = "_EDGE_BREAKUP_DEBUG"
	AgeOfSailKeyword        = "_AGE_OF_SAIL"
)

type postFXPass struct {
	material    *renderer.Material
	edgeBreakup EdgeBreakupSettings
	ageOfSail   AgeOfSailSettings
	warpTexture renderer.Texture
	renderScale float32
	blurSize    common.Vec2Int

	color, target    rendergraph.TextureHandle
	edgeBreakupColor rendergraph.TextureHandle
	blurBuffer       rendergraph.TextureHandle
}

func (p postFXPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	color := ctx.Texture(p.color)

	cmd.SetKeyword(EdgeBreakupKeyword, p.edgeBreakupColor.IsValid())
	if p.edgeBreakupColor.IsValid() {
		p.setEdgeBreakupGlobals(cmd, ctx.Texture(p.edgeBreakupColor))
	}

	cmd.SetKeyword(AgeOfSailKeyword, p.blurBuffer.IsValid())
	if p.blurBuffer.IsValid() {
		blur := ctx.Texture(p.blurBuffer)
		cmd.SetGlobalFloat(BlurRadiusID, p.ageOfSail.BlurRadius)
		cmd.SetGlobalFloat(ShadowThresholdID, p.ageOfSail.ShadowThreshold)
		cmd.SetGlobalFloat(ShadowThresholdSoftnessID, p.ageOfSail.ShadowThresholdSoftness)

		desc := renderer.TextureDescriptor{
			Label:  passes.TempRTID(0),
			Width:  p.blurSize.X,
			Height: p.blurSize.Y,
			Format: renderer.DefaultColorFormat(false),
		}
		temp, release := ctx.TemporaryTexture(desc)
		passes.Draw(cmd, p.material, PassBlurHorizontal, []renderer.Texture{color}, temp)
		passes.Draw(cmd, p.material, PassBlurVertical, []renderer.Texture{temp}, blur)
		release()
		cmd.SetGlobalTexture(AgeOfSailBlurBufferID, blur)
	}

	passes.Draw(cmd, p.material, PassPostFX, []renderer.Texture{color}, ctx.Texture(p.target))
}

func (p postFXPass) setEdgeBreakupGlobals(cmd *renderer.CommandBuffer, buffer renderer.Texture) {
	eb := p.edgeBreakup
	cmd.SetGlobalTexture(EdgeBreakupBufferID, buffer)
	if p.warpTexture != nil {
		cmd.SetGlobalTexture(EdgeBreakupWarpTextureID, p.warpTexture)
	}
	cmd.SetGlobalFloat(EdgeBreakupWarpTextureScaleID, eb.WarpTextureScale)
	cmd.SetGlobalFloat(EdgeBreakupDistanceID, eb.Distance)
	cmd.SetGlobalFloat(EdgeBreakupDistanceFadeMultiplierID, eb.DistanceFadeMultiplier)
	cmd.SetGlobalFloat(EdgeBreakupSkewID, eb.Skew)

	scale := p.renderScale
	if eb.IgnoreRenderScale {
		scale = 1
	}
	cmd.SetGlobalFloat(EdgeBreakupRenderScaleID, scale)
	cmd.SetKeyword(EdgeBreakupDebugKeyword, eb.Debug)
}

// recordPostFX resolves the intermediate color buffer into the camera target,
// applying edge breakup and the age of sail shading when enabled.
func recordPostFX(r *rendergraph.Recorder, material *renderer.Material, s *Settings, warpTexture renderer.Texture,
	plan bufferPlan, t *CameraTextures) {
	r.AddRenderPass("Post FX", func(b *rendergraph.PassBuilder) {
		p := postFXPass{
			material:    material,
			edgeBreakup: s.EdgeBreakup,
			ageOfSail:   s.AgeOfSail,
			warpTexture: warpTexture,
			renderScale: plan.renderScale,
			blurSize:    downsampled(plan.size, s.AgeOfSail.BlurDownsample),
			color:       b.ReadTexture(t.Color),
			target:      b.WriteTexture(t.Target),
		}
		if t.EdgeBreakupColor.IsValid() {
			p.edgeBreakupColor = b.ReadTexture(t.EdgeBreakupColor)
		}
		if t.BlurBuffer.IsValid() {
			p.blurBuffer = b.ReadWriteTexture(t.BlurBuffer)
		}
		b.SetRenderFunc(p.render)
	})
}

// downsampled divides a buffer size, never below one pixel.
func downsampled(size common.Vec2Int, by float32) common.Vec2Int {
	by = max(by, 1)
	return common.Vec2Int{X: max(int(float32(size.X)/by), 1), Y: max(int(float32(size.Y)/by), 1)}
}
