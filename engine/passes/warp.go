package passes

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

const (
	WarpTextureID            = "_WarpTexture"
	WarpTextureScaleID       = "_WarpTextureScale"
	WarpGlobalDistanceFadeID = "_WarpGlobalDistanceFade"
	WarpWidthID              = "_WarpWidth"
	LineBoilTimeID           = "_LineBoilTime"
)

// WarpClearColor is the neutral warp value: no offset in either direction.
var WarpClearColor = common.Color{R: 0.5, G: 0.5, B: 0, A: 1}

// LineBoilTime returns the time steps that animate line boil: real time, then
// the time stepped at 24, 12 and 8 frames per second. Time wraps every hour to
// keep float precision.
func LineBoilTime(seconds float64) common.Vec4 {
	t := float32(math.Mod(seconds, 3600))
	step := func(fps float32) float32 {
		return float32(math.Floor(float64(t*fps))) / fps
	}
	return common.Vec4{t, step(24), step(12), step(8)}
}

// Warp describes the warp pass of the ink pipelines.
type Warp struct {
	// Texture is the warp noise texture, nil leaves the global unbound.
	Texture      renderer.Texture
	Scale        float32
	DistanceFade float32
	Width        float32

	// Seconds is the pipeline time driving line boil.
	Seconds            float64
	RenderingLayerMask uint32

	Color, Depth rendergraph.TextureHandle
}

type warpPass struct {
	list                 rendergraph.RendererListHandle
	warpColor, warpDepth rendergraph.TextureHandle

	lineBoil       common.Vec4
	texture        renderer.Texture
	scale, fade, w float32
}

func (p warpPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.warpColor)}, ctx.Texture(p.warpDepth))
	cmd.ClearRenderTarget(true, true, WarpClearColor)

	cmd.SetGlobalVector(LineBoilTimeID, p.lineBoil)
	if p.texture != nil {
		cmd.SetGlobalTexture(WarpTextureID, p.texture)
	}
	cmd.SetGlobalFloat(WarpTextureScaleID, p.scale)
	cmd.SetGlobalFloat(WarpGlobalDistanceFadeID, p.fade)
	cmd.SetGlobalFloat(WarpWidthID, p.w)

	cmd.DrawRendererList(ctx.RendererList(p.list))
}

// RecordWarp draws the opaque WarpPass geometry into the warp buffer. The pass
// is culled when no visible drawable has the WarpPass tag.
func RecordWarp(r *rendergraph.Recorder, cull scene.CullingResults, w Warp) {
	r.AddRenderPass("Warp Pass (Opaque Geometry)", func(b *rendergraph.PassBuilder) {
		p := warpPass{
			list: b.UseRendererList(r.CreateRendererList(cull.CreateRendererList(scene.RendererListDesc{
				Name:               "Warp",
				ShaderTags:         []string{"WarpPass"},
				QueueRange:         scene.QueueRangeOpaque,
				RenderingLayerMask: w.RenderingLayerMask,
			}))),
			warpColor: b.ReadWriteTexture(w.Color),
			warpDepth: b.ReadWriteTexture(w.Depth),
			lineBoil:  LineBoilTime(w.Seconds),
			texture:   w.Texture,
			scale:     w.Scale,
			fade:      w.DistanceFade,
			w:         w.Width,
		}
		b.SetRenderFunc(p.render)
	})
}
