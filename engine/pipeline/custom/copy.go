package custom

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

const (
	CameraColorTextureID = "_CameraColorTexture"
	CameraDepthTextureID = "_CameraDepthTexture"
)

type copyAttachmentsPass struct {
	color, depth         rendergraph.TextureHandle
	colorCopy, depthCopy rendergraph.TextureHandle
}

func (p copyAttachmentsPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	if p.colorCopy.IsValid() {
		dst := ctx.Texture(p.colorCopy)
		cmd.CopyTexture(ctx.Texture(p.color), dst)
		cmd.SetGlobalTexture(CameraColorTextureID, dst)
	}
	if p.depthCopy.IsValid() {
		dst := ctx.Texture(p.depthCopy)
		cmd.CopyTexture(ctx.Texture(p.depth), dst)
		cmd.SetGlobalTexture(CameraDepthTextureID, dst)
	}
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
}

// recordCopyAttachments copies the opaque color and depth for transparent
// shaders. Nothing is recorded when both copies are disabled.
func recordCopyAttachments(r *rendergraph.Recorder, t *CameraTextures) {
	if !t.ColorCopy.IsValid() && !t.DepthCopy.IsValid() {
		return
	}
	r.AddRenderPass("Copy Attachments", func(b *rendergraph.PassBuilder) {
		p := copyAttachmentsPass{
			color: b.ReadTexture(t.Color),
			depth: b.ReadTexture(t.Depth),
		}
		if t.ColorCopy.IsValid() {
			p.colorCopy = b.WriteTexture(t.ColorCopy)
		}
		if t.DepthCopy.IsValid() {
			p.depthCopy = b.WriteTexture(t.DepthCopy)
		}
		b.SetRenderFunc(p.render)
	})
}

type finalPass struct {
	material      *renderer.Material
	color, target rendergraph.TextureHandle
}

func (p finalPass) render(ctx *rendergraph.Context) {
	passes.Draw(ctx.Cmd(), p.material, PassCopy, []renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.target))
}

// recordFinal copies the intermediate color buffer to the camera target.
func recordFinal(r *rendergraph.Recorder, material *renderer.Material, t *CameraTextures) {
	r.AddRenderPass("Final", func(b *rendergraph.PassBuilder) {
		p := finalPass{
			material: material,
			color:    b.ReadTexture(t.Color),
			target:   b.WriteTexture(t.Target),
		}
		b.SetRenderFunc(p.render)
	})
}
