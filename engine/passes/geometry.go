package passes

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

var (
	// DefaultShaderTags are the shader passes drawn by the lit geometry passes.
	DefaultShaderTags = []string{"SRPDefaultUnlit", "CustomLit"}

	// LegacyShaderTags are the built in pipeline passes no variant supports.
	LegacyShaderTags = []string{"Always", "ForwardBase", "PrepassBase", "Vertex", "VertexLMRGBM", "VertexLM"}
)

// Geometry describes a renderer list draw into a color and depth attachment.
type Geometry struct {
	Name               string
	ShaderTags         []string
	QueueRange         scene.QueueRange
	RenderingLayerMask uint32

	Color rendergraph.TextureHandle
	Depth rendergraph.TextureHandle

	// Reads are textures the shaders sample, such as shadow atlases or attachment copies.
	Reads []rendergraph.TextureHandle
}

type geometryPass struct {
	list         rendergraph.RendererListHandle
	color, depth rendergraph.TextureHandle
}

func (p geometryPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.DrawRendererList(ctx.RendererList(p.list))
}

// RecordGeometry adds a pass drawing the visible drawables matching g. The pass
// is culled when its renderer list is empty.
//
// Returns:
//   - rendergraph.RendererListHandle: the pass's renderer list
func RecordGeometry(r *rendergraph.Recorder, cull scene.CullingResults, g Geometry) rendergraph.RendererListHandle {
	var list rendergraph.RendererListHandle
	r.AddRenderPass(g.Name, func(b *rendergraph.PassBuilder) {
		list = b.UseRendererList(r.CreateRendererList(cull.CreateRendererList(scene.RendererListDesc{
			Name:               g.Name,
			ShaderTags:         g.ShaderTags,
			QueueRange:         g.QueueRange,
			RenderingLayerMask: g.RenderingLayerMask,
		})))
		p := geometryPass{
			list:  list,
			color: b.ReadWriteTexture(g.Color),
			depth: b.ReadWriteTexture(g.Depth),
		}
		b.ReadTextures(g.Reads)
		b.SetRenderFunc(p.render)
	})
	return list
}

// RecordTransparent draws the transparent queue of every layer.
func RecordTransparent(r *rendergraph.Recorder, cull scene.CullingResults, color, depth rendergraph.TextureHandle, reads ...rendergraph.TextureHandle) {
	RecordGeometry(r, cull, Geometry{
		Name:               "Transparent Geometry",
		ShaderTags:         DefaultShaderTags,
		QueueRange:         scene.QueueRangeTransparent,
		RenderingLayerMask: ^uint32(0),
		Color:              color,
		Depth:              depth,
		Reads:              reads,
	})
}

// RecordUnsupportedShaders draws drawables using built in pipeline passes so
// they show up as errors. Only recorded when editor is set.
func RecordUnsupportedShaders(r *rendergraph.Recorder, cull scene.CullingResults, editor bool, color, depth rendergraph.TextureHandle) {
	if !editor {
		return
	}
	RecordGeometry(r, cull, Geometry{
		Name:               "Unsupported Shaders",
		ShaderTags:         LegacyShaderTags,
		QueueRange:         scene.QueueRangeAll,
		RenderingLayerMask: ^uint32(0),
		Color:              color,
		Depth:              depth,
	})
}

type skyboxPass struct {
	color, depth rendergraph.TextureHandle
}

func (p skyboxPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.color)}, ctx.Texture(p.depth))
	cmd.DrawSkybox()
}

// RecordSkybox draws the skybox behind the opaque geometry when the camera
// clears with ClearFlagsSkybox.
func RecordSkybox(r *rendergraph.Recorder, flags camera.ClearFlags, color, depth rendergraph.TextureHandle) {
	if flags != camera.ClearFlagsSkybox {
		return
	}
	r.AddRenderPass("Skybox", func(b *rendergraph.PassBuilder) {
		p := skyboxPass{
			color: b.ReadWriteTexture(color),
			depth: b.ReadTexture(depth),
		}
		b.SetRenderFunc(p.render)
	})
}

type gizmosPass struct {
	target, depth rendergraph.TextureHandle
}

func (p gizmosPass) render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	cmd.SetRenderTarget([]renderer.Texture{ctx.Texture(p.target)}, ctx.Texture(p.depth))
	cmd.DrawGizmos()
}

// RecordGizmos draws editor gizmos over the camera target, depth tested against
// the scene depth. Only recorded when editor is set.
func RecordGizmos(r *rendergraph.Recorder, editor bool, target, depth rendergraph.TextureHandle) {
	if !editor {
		return
	}
	r.AddRenderPass("Gizmos", func(b *rendergraph.PassBuilder) {
		p := gizmosPass{
			target: b.ReadWriteTexture(target),
			depth:  b.ReadWriteTexture(depth),
		}
		b.SetRenderFunc(p.render)
	})
}
