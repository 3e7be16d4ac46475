package aos

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

const WarpBloomKeyword = "_WARP_BLOOM"

type finalColorPass struct {
	material  *renderer.Material
	target    rendergraph.TextureHandle
	warpBloom bool

	sources []rendergraph.TextureHandle
	debug   DebugDrawMode
}

func (p finalColorPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	target := ctx.Texture(p.target)
	if p.debug != DebugDrawNone {
		passes.Draw(cmd, p.material, PassCopy, ctx.Textures(p.sources), target)
		return
	}
	cmd.SetKeyword(WarpBloomKeyword, p.warpBloom)
	passes.Draw(cmd, p.material, PassFinalColor, ctx.Textures(p.sources), target)
}

// debugBuffer returns the buffer a debug draw mode shows.
func (t *CameraTextures) debugBuffer(mode DebugDrawMode) rendergraph.TextureHandle {
	switch mode {
	case DebugDrawWarp:
		return t.WarpColor
	case DebugDrawFinalShadow:
		return t.FinalShadowBuffer
	case DebugDrawSoftBlur:
		return t.SoftBlurBuffer
	case DebugDrawHeavyBlur:
		return t.HeavyBlurBuffer
	}
	return t.Color
}

// recordFinalColor warps the color attachment, adds the glow of the final
// shadow buffer and writes the camera target. A debug draw mode copies an
// intermediate buffer instead.
func recordFinalColor(r *rendergraph.Recorder, material *renderer.Material, s *Settings, debug DebugDrawMode,
	t *CameraTextures, target rendergraph.TextureHandle) {
	r.AddRenderPass("Final Color Pass", func(b *rendergraph.PassBuilder) {
		p := finalColorPass{
			material:  material,
			target:    b.WriteTexture(target),
			warpBloom: s.WarpBloom,
			debug:     debug,
		}
		if debug != DebugDrawNone {
			p.sources = []rendergraph.TextureHandle{t.debugBuffer(debug)}
		} else {
			p.sources = []rendergraph.TextureHandle{t.Color, t.WarpColor, t.FinalShadowBuffer}
		}
		b.ReadTextures(p.sources)
		b.SetRenderFunc(p.render)
	})
}
