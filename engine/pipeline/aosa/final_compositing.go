package aosa

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

const (
	WarpBloomID  = "_WarpBloom"
	OverlayID    = "_Overlay"
	SaturationID = "_Saturation"
	DebugCountID = "_DebugCount"
)

type finalCompositingPass struct {
	material *renderer.Material
	target   rendergraph.TextureHandle

	warpBloom  bool
	overlay    common.Color
	saturation float32

	litColor, warpColor rendergraph.TextureHandle
	bloomBuffers        []rendergraph.TextureHandle

	debug        DebugDrawMode
	debugBuffers []rendergraph.TextureHandle
}

func (p finalCompositingPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	target := ctx.Texture(p.target)
	if p.debug != DebugDrawNone {
		p.renderDebug(ctx, cmd, target)
		return
	}

	var warpBloom float32
	if p.warpBloom {
		warpBloom = 1
	}
	cmd.SetGlobalFloat(WarpBloomID, warpBloom)
	cmd.SetGlobalVector(OverlayID, p.overlay.Vec4())
	cmd.SetGlobalFloat(SaturationID, p.saturation)

	sources := append([]renderer.Texture{ctx.Texture(p.litColor), ctx.Texture(p.warpColor)}, ctx.Textures(p.bloomBuffers)...)
	passes.Draw(cmd, p.material, PassFinalCompositing, sources, target)
}

func (p finalCompositingPass) renderDebug(ctx *rendergraph.Context, cmd *renderer.CommandBuffer, target renderer.Texture) {
	buffers := ctx.Textures(p.debugBuffers)
	if p.debug.copiesOneBuffer() {
		passes.Draw(cmd, p.material, PassCopy, buffers, target)
		return
	}
	cmd.SetGlobalInt(DebugCountID, len(buffers))
	passes.Draw(cmd, p.material, PassDebugMultiple, buffers, target)
}

// debugBuffers returns the buffers a debug draw mode shows.
func (t *CameraTextures) debugBuffers(mode DebugDrawMode) []rendergraph.TextureHandle {
	switch mode {
	case DebugDrawWarp:
		return []rendergraph.TextureHandle{t.WarpColor}
	case DebugDrawLitColor:
		return []rendergraph.TextureHandle{t.LitColor}
	case DebugDrawShadowedColor:
		return []rendergraph.TextureHandle{t.ShadowedColor}
	case DebugDrawShadow:
		return t.ShadowBuffers
	case DebugDrawSoftBlur:
		return t.SoftBlurBuffers
	case DebugDrawHeavyBlur:
		return t.HeavyBlurBuffers
	}
	return nil
}

type finalParams struct {
	overlay    common.Color
	saturation float32
	debug      DebugDrawMode
}

// recordFinalCompositing warps the lit buffer, adds bloom, overlay and
// saturation, and writes the camera target. A debug draw mode shows an
// intermediate buffer instead.
func recordFinalCompositing(r *rendergraph.Recorder, material *renderer.Material, s *Settings, fp finalParams,
	t *CameraTextures, target rendergraph.TextureHandle) {
	r.AddRenderPass("FinalCompositingPass", func(b *rendergraph.PassBuilder) {
		p := finalCompositingPass{
			material:   material,
			target:     b.WriteTexture(target),
			warpBloom:  s.WarpBloom,
			overlay:    fp.overlay,
			saturation: fp.saturation,
			debug:      fp.debug,
		}
		if fp.debug != DebugDrawNone {
			p.debugBuffers = t.debugBuffers(fp.debug)
			b.ReadTextures(p.debugBuffers)
		} else {
			p.litColor = b.ReadTexture(t.LitColor)
			p.warpColor = b.ReadTexture(t.WarpColor)
			p.bloomBuffers = t.BloomBuffers
			b.ReadTextures(t.BloomBuffers)
		}
		b.SetRenderFunc(p.render)
	})
}
