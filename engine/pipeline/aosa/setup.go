package aosa

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/gogpu/gputypes"
)

// ShadowBufferCount is the number of shadow buffers for n lights. Each buffer
// packs two lights.
func ShadowBufferCount(n int) int {
	return common.CeilDiv(n, 2)
}

// BloomBufferCount is the number of bloom buffers for n lights. Each buffer
// packs four lights.
func BloomBufferCount(n int) int {
	return common.CeilDiv(n, 4)
}

// CameraTextures are the buffers of one camera, declared by the setup pass.
type CameraTextures struct {
	LitColor      rendergraph.TextureHandle
	ShadowedColor rendergraph.TextureHandle
	Depth         rendergraph.TextureHandle
	WarpColor     rendergraph.TextureHandle
	WarpDepth     rendergraph.TextureHandle

	ShadowBuffers    []rendergraph.TextureHandle
	SoftBlurBuffers  []rendergraph.TextureHandle
	HeavyBlurBuffers []rendergraph.TextureHandle
	BloomBuffers     []rendergraph.TextureHandle
}

type setupPass struct {
	size       common.Vec2Int
	view, proj [16]float32
	background common.Color

	color, depth         rendergraph.TextureHandle
	warpColor, warpDepth rendergraph.TextureHandle
	bloomBuffers         []rendergraph.TextureHandle
}

func (p setupPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetViewProjectionMatrices(p.view, p.proj)
	cmd.SetGlobalVector(passes.CameraBufferSizeID, passes.BufferSize(p.size))

	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.ClearRenderTarget(true, true, p.background)

	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.warpColor)}, ctx.Texture(p.warpDepth))
	cmd.ClearRenderTarget(true, true, passes.WarpClearColor)

	// Final compositing samples the bloom buffers even when compositing is culled.
	for _, tex := range ctx.Textures(p.bloomBuffers) {
		cmd.SetRenderTarget([]renderer.Texture{tex}, nil)
		cmd.ClearRenderTarget(false, true, common.ClearColor)
	}
}

// downsampled divides a buffer size, never below one pixel.
func downsampled(size common.Vec2Int, by int) common.Vec2Int {
	return common.Vec2Int{X: max(size.X/by, 1), Y: max(size.Y/by, 1)}
}

func bufferDesc(label string, size common.Vec2Int, format gputypes.TextureFormat) renderer.TextureDescriptor {
	return renderer.TextureDescriptor{Label: label, Width: size.X, Height: size.Y, Format: format}
}

type setupParams struct {
	size       common.Vec2Int
	hdr        bool
	lightCount int
	view, proj [16]float32
	background common.Color
}

// recordSetup declares every camera buffer and adds the forced pass clearing
// the attachments.
func recordSetup(r *rendergraph.Recorder, s *Settings, sp setupParams) *CameraTextures {
	format := renderer.DefaultColorFormat(sp.hdr)
	shadowCount := ShadowBufferCount(sp.lightCount)
	soft := downsampled(sp.size, s.SoftBlurDownsample)
	heavy := downsampled(sp.size, s.HeavyBlurDownsample)

	t := &CameraTextures{}
	r.AddRenderPass("Setup", func(b *rendergraph.PassBuilder) {
		b.AllowPassCulling(false)
		t.LitColor = r.CreateTexture(bufferDesc("Lit Color Buffer", sp.size, format))
		t.ShadowedColor = r.CreateTexture(bufferDesc("Shadowed Color Buffer", sp.size, format))
		t.BloomBuffers = r.CreateTextures(bufferDesc("Bloom Buffer ", sp.size, format), BloomBufferCount(sp.lightCount))
		t.ShadowBuffers = r.CreateTextures(bufferDesc("Shadow Buffer ", sp.size, format), shadowCount)
		t.Depth = r.CreateTexture(renderer.TextureDescriptor{Label: "Depth Attachment", Width: sp.size.X, Height: sp.size.Y, DepthBits: renderer.Depth32})
		t.WarpColor = r.CreateTexture(bufferDesc("Warp Pass Color", sp.size, gputypes.TextureFormatRG8Unorm))
		t.WarpDepth = r.CreateTexture(renderer.TextureDescriptor{Label: "Warp Pass Depth", Width: sp.size.X, Height: sp.size.Y, DepthBits: renderer.Depth32})
		t.SoftBlurBuffers = r.CreateTextures(bufferDesc("Soft Blur Buffer ", soft, format), shadowCount)
		t.HeavyBlurBuffers = r.CreateTextures(bufferDesc("Heavy Blur Buffer ", heavy, format), shadowCount)

		p := setupPass{
			size:       sp.size,
			view:       sp.view,
			proj:       sp.proj,
			background: sp.background,
			color:      b.WriteTexture(t.LitColor),
			depth:      b.WriteTexture(t.Depth),
			warpColor:  b.WriteTexture(t.WarpColor),
			warpDepth:  b.WriteTexture(t.WarpDepth),

			bloomBuffers: t.BloomBuffers,
		}
		b.WriteTextures(t.BloomBuffers)
		b.SetRenderFunc(p.render)
	})
	return t
}
