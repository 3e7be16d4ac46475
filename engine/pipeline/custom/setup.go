package custom

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/gogpu/gputypes"
)

// EdgeBreakupClearColor is the neutral edge breakup offset.
var EdgeBreakupClearColor = common.Color{R: 0.5, G: 0.5, B: 0, A: 1}

// CameraTextures are the attachments of one camera, declared by the setup pass.
type CameraTextures struct {
	// Target is the imported camera target.
	Target rendergraph.TextureHandle

	// Color is the target itself unless the camera renders to an intermediate buffer.
	Color rendergraph.TextureHandle
	Depth rendergraph.TextureHandle

	// ColorCopy and DepthCopy are invalid when copies are disabled.
	ColorCopy rendergraph.TextureHandle
	DepthCopy rendergraph.TextureHandle

	// EdgeBreakupColor and EdgeBreakupDepth are invalid when edge breakup is disabled.
	EdgeBreakupColor rendergraph.TextureHandle
	EdgeBreakupDepth rendergraph.TextureHandle

	// BlurBuffer is invalid unless the age of sail post process is used.
	BlurBuffer rendergraph.TextureHandle

	// ClearFlags are the camera's flags, clamped to color for intermediate buffers.
	ClearFlags camera.ClearFlags
}

type setupPass struct {
	size       common.Vec2Int
	view, proj [16]float32
	flags      camera.ClearFlags
	background common.Color
	perObject  bool

	color, depth rendergraph.TextureHandle

	edgeBreakupColor, edgeBreakupDepth rendergraph.TextureHandle
}

func (p setupPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetViewProjectionMatrices(p.view, p.proj)
	cmd.SetGlobalVector(passes.CameraBufferSizeID, passes.BufferSize(p.size))
	cmd.SetKeyword(LightsPerObjectKeyword, p.perObject)

	clearColor := common.Color{}
	if p.flags == camera.ClearFlagsColor {
		clearColor = p.background
	}
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.ClearRenderTarget(p.flags <= camera.ClearFlagsDepth, p.flags <= camera.ClearFlagsColor, clearColor)

	if p.edgeBreakupColor.IsValid() {
		cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.edgeBreakupColor)}, ctx.Texture(p.edgeBreakupDepth))
		cmd.ClearRenderTarget(true, true, EdgeBreakupClearColor)
	}
}

func colorDesc(label string, size common.Vec2Int, format gputypes.TextureFormat) renderer.TextureDescriptor {
	return renderer.TextureDescriptor{Label: label, Width: size.X, Height: size.Y, Format: format}
}

func depthDesc(label string, size common.Vec2Int) renderer.TextureDescriptor {
	return renderer.TextureDescriptor{Label: label, Width: size.X, Height: size.Y, DepthBits: renderer.Depth32}
}

// recordSetup declares the camera attachments and adds the forced pass
// clearing them. Without an intermediate buffer the camera target is drawn to
// directly.
func recordSetup(r *rendergraph.Recorder, s *Settings, cam camera.Camera, plan bufferPlan, target renderer.Texture) *CameraTextures {
	format := renderer.DefaultColorFormat(plan.hdr)
	t := &CameraTextures{ClearFlags: cam.ClearFlags()}
	r.AddRenderPass("Setup", func(b *rendergraph.PassBuilder) {
		b.AllowPassCulling(false)
		t.Target = r.ImportTexture(target)
		if plan.intermediate {
			t.ClearFlags = min(t.ClearFlags, camera.ClearFlagsColor)
			t.Color = r.CreateTexture(colorDesc("Color Attachment", plan.size, format))
		} else {
			t.Color = t.Target
		}
		t.Depth = r.CreateTexture(depthDesc("Depth Attachment", plan.size))
		if plan.copyColor {
			t.ColorCopy = r.CreateTexture(colorDesc("Color Copy", plan.size, format))
		}
		if plan.copyDepth {
			t.DepthCopy = r.CreateTexture(depthDesc("Depth Copy", plan.size))
		}

		p := setupPass{
			size:       plan.size,
			view:       cam.ViewMatrix(),
			proj:       cam.ProjectionMatrix(),
			flags:      t.ClearFlags,
			background: cam.BackgroundColor(),
			perObject:  s.UseLightsPerObject,
			color:      b.WriteTexture(t.Color),
			depth:      b.WriteTexture(t.Depth),
		}
		if s.EdgeBreakup.Enabled {
			t.EdgeBreakupColor = r.CreateTexture(colorDesc("Edge Breakup Color", plan.size, gputypes.TextureFormatRG16Float))
			t.EdgeBreakupDepth = r.CreateTexture(depthDesc("Edge Breakup Depth", plan.size))
			p.edgeBreakupColor = b.WriteTexture(t.EdgeBreakupColor)
			p.edgeBreakupDepth = b.WriteTexture(t.EdgeBreakupDepth)
		}
		if s.AgeOfSail.UsePipeline {
			t.BlurBuffer = r.CreateTexture(colorDesc("Blur Buffer", plan.size, gputypes.TextureFormatRGBA8Unorm))
		}
		b.SetRenderFunc(p.render)
	})
	return t
}
