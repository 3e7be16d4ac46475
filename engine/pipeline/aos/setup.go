package aos

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/gogpu/gputypes"
)

var (
	// LitClearColor marks a pixel fully lit in the color attachment while the
	// shadow pass draws. The red channel is the light term.
	LitClearColor = common.Color{R: 1}

	// NoLightClearColor is used instead when the camera sees no light.
	NoLightClearColor = common.ClearColor
)

// shadowClear is the value of an unshadowed pixel.
func shadowClear(hasLight bool) common.Color {
	if hasLight {
		return LitClearColor
	}
	return NoLightClearColor
}

// CameraTextures are the buffers of one camera, declared by the setup pass.
type CameraTextures struct {
	Color             rendergraph.TextureHandle
	Depth             rendergraph.TextureHandle
	WarpColor         rendergraph.TextureHandle
	WarpDepth         rendergraph.TextureHandle
	SoftBlurBuffer    rendergraph.TextureHandle
	HeavyBlurBuffer   rendergraph.TextureHandle
	FinalShadowBuffer rendergraph.TextureHandle
}

type setupPass struct {
	size       common.Vec2Int
	view, proj [16]float32
	background common.Color
	hasLight   bool

	color, depth         rendergraph.TextureHandle
	warpColor, warpDepth rendergraph.TextureHandle
	soft, heavy, final   rendergraph.TextureHandle
}

func (p setupPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetViewProjectionMatrices(p.view, p.proj)
	cmd.SetGlobalVector(passes.CameraBufferSizeID, passes.BufferSize(p.size))

	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.ClearRenderTarget(true, true, p.background)

	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.warpColor)}, ctx.Texture(p.warpDepth))
	cmd.ClearRenderTarget(true, true, passes.WarpClearColor)

	// The ink buffers keep their clear values when the shadow pass has nothing to draw.
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.final)}, nil)
	cmd.ClearRenderTarget(false, true, shadowClear(p.hasLight))
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.soft), ctx.Texture(p.heavy)}, nil)
	cmd.ClearRenderTarget(false, true, common.ClearColor)
}

// downsampled divides a buffer size, rounding up.
func downsampled(size common.Vec2Int, by int) common.Vec2Int {
	return common.Vec2Int{X: max(common.CeilDiv(size.X, by), 1), Y: max(common.CeilDiv(size.Y, by), 1)}
}

type setupParams struct {
	size       common.Vec2Int
	hdr        bool
	hasLight   bool
	view, proj [16]float32
	background common.Color
}

// recordSetup declares the camera buffers and adds the forced pass clearing them.
func recordSetup(r *rendergraph.Recorder, s *Settings, sp setupParams) *CameraTextures {
	format := renderer.DefaultColorFormat(sp.hdr)
	desc := func(label string, size common.Vec2Int, format gputypes.TextureFormat) renderer.TextureDescriptor {
		return renderer.TextureDescriptor{Label: label, Width: size.X, Height: size.Y, Format: format}
	}
	depth := func(label string) renderer.TextureDescriptor {
		return renderer.TextureDescriptor{Label: label, Width: sp.size.X, Height: sp.size.Y, DepthBits: renderer.Depth32}
	}

	t := &CameraTextures{}
	r.AddRenderPass("Setup", func(b *rendergraph.PassBuilder) {
		b.AllowPassCulling(false)
		t.Color = r.CreateTexture(desc("Color Attachment", sp.size, format))
		t.FinalShadowBuffer = r.CreateTexture(desc("Final Shadow Buffer", sp.size, format))
		t.Depth = r.CreateTexture(depth("Depth Attachment"))
		t.WarpColor = r.CreateTexture(desc("Warp Pass Color", sp.size, gputypes.TextureFormatRG8Unorm))
		t.WarpDepth = r.CreateTexture(depth("Warp Pass Depth"))
		t.HeavyBlurBuffer = r.CreateTexture(desc("Heavy Blur Buffer", downsampled(sp.size, s.HeavyBlurDownsample), format))
		t.SoftBlurBuffer = r.CreateTexture(desc("Soft Blur Buffer", downsampled(sp.size, s.SoftBlurDownsample), format))

		p := setupPass{
			size:       sp.size,
			view:       sp.view,
			proj:       sp.proj,
			background: sp.background,
			hasLight:   sp.hasLight,
			color:      b.WriteTexture(t.Color),
			depth:      b.WriteTexture(t.Depth),
			warpColor:  b.WriteTexture(t.WarpColor),
			warpDepth:  b.WriteTexture(t.WarpDepth),
			soft:       b.WriteTexture(t.SoftBlurBuffer),
			heavy:      b.WriteTexture(t.HeavyBlurBuffer),
			final:      b.WriteTexture(t.FinalShadowBuffer),
		}
		b.SetRenderFunc(p.render)
	})
	return t
}
