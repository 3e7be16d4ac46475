// Package custom is the general forward pipeline: lit opaque and transparent
// geometry into optionally scaled intermediate attachments, with attachment
// copies for transparent shaders and an edge breakup and ink shading post
// process.
package custom

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// Passes of the forward pipeline material.
const (
	PassCopy = iota
	PassBlurHorizontal
	PassBlurVertical
	PassPostFX
)

// DefaultMaterial is the forward pipeline copy and post processing material.
var DefaultMaterial = &renderer.Material{Name: "Hidden/Custom RP/Camera Renderer"}

// bufferPlan is how one camera's attachments are laid out.
type bufferPlan struct {
	size        common.Vec2Int
	renderScale float32
	scaled      bool
	hdr         bool

	copyColor, copyDepth bool
	postFX               bool

	// intermediate renders into attachments owned by the graph instead of the camera target.
	intermediate bool
}

func planBuffers(s *Settings, cam camera.Camera, camSettings camera.Settings) bufferPlan {
	p := bufferPlan{
		size:   cam.PixelSize(),
		hdr:    s.CameraBuffer.AllowHDR && cam.AllowHDR(),
		postFX: s.PostFXActive(),
	}
	if cam.Type() == camera.CameraTypeReflection {
		p.copyColor = s.CameraBuffer.CopyColorReflection
		p.copyDepth = s.CameraBuffer.CopyDepthReflection
	} else {
		p.copyColor = s.CameraBuffer.CopyColor && camSettings.CopyColor
		p.copyDepth = s.CameraBuffer.CopyDepth && camSettings.CopyDepth
	}

	scale := camSettings.ApplyRenderScale(s.CameraBuffer.RenderScale)
	p.scaled = (scale < 0.99 || scale > 1.01) && cam.Type() != camera.CameraTypeSceneView
	p.renderScale = 1
	if p.scaled {
		p.renderScale = common.Clamp(scale, RenderScaleMin, RenderScaleMax)
		p.size = common.Vec2Int{
			X: max(int(float32(p.size.X)*p.renderScale), 1),
			Y: max(int(float32(p.size.Y)*p.renderScale), 1),
		}
	}
	p.intermediate = p.scaled || p.copyColor || p.copyDepth || p.postFX
	return p
}

type cameraRendererImpl struct {
	settings           Settings
	material           *renderer.Material
	edgeBreakupTexture renderer.Texture
	lighting           *passes.Lighting
}

// CameraRenderer records the forward pipeline for one camera at a time.
type CameraRenderer interface {
	pipeline.CameraRenderer

	// Settings returns the settings the renderer was created with.
	Settings() Settings

	// Lighting returns the light and shadow packing shared by every camera.
	Lighting() *passes.Lighting
}

var _ CameraRenderer = &cameraRendererImpl{}

// NewCameraRenderer creates a forward camera renderer.
//
// Panics if settings fail validation.
//
// Parameters:
//   - settings: the pipeline settings
//   - options: variadic list of CameraRendererBuilderOption functions
//
// Returns:
//   - CameraRenderer: the new camera renderer
func NewCameraRenderer(settings Settings, options ...CameraRendererBuilderOption) CameraRenderer {
	if err := settings.Validate(); err != nil {
		panic(fmt.Sprintf("custom: invalid settings: %v", err))
	}
	cr := &cameraRendererImpl{
		settings: settings,
		material: DefaultMaterial,
		lighting: passes.NewLighting(light.ForwardLimits),
	}
	for _, option := range options {
		option(cr)
	}
	return cr
}

func (cr *cameraRendererImpl) Settings() Settings {
	return cr.settings
}

func (cr *cameraRendererImpl) Lighting() *passes.Lighting {
	return cr.lighting
}

func (cr *cameraRendererImpl) MaxShadowDistance() float32 {
	return cr.settings.Shadows.MaxDistance
}

func (cr *cameraRendererImpl) Record(r *rendergraph.Recorder, c *pipeline.CameraContext) {
	s := &cr.settings
	cam := c.Camera
	camSettings := camera.ResolveSettings(cam)
	plan := planBuffers(s, cam, camSettings)
	layers := camSettings.RenderingLayerMask

	atlases, _ := cr.lighting.Record(r, c.Culling, s.Shadows, camSettings.LightMask(), c.ReversedZ)
	t := recordSetup(r, s, cam, plan, c.Target)
	recordEdgeBreakup(r, c.Culling, layers, t)

	passes.RecordGeometry(r, c.Culling, passes.Geometry{
		Name:               "Opaque Geometry",
		ShaderTags:         passes.DefaultShaderTags,
		QueueRange:         scene.QueueRangeOpaque,
		RenderingLayerMask: layers,
		Color:              t.Color,
		Depth:              t.Depth,
		Reads:              []rendergraph.TextureHandle{atlases.DirectionalAtlas, atlases.OtherAtlas},
	})
	passes.RecordSkybox(r, t.ClearFlags, t.Color, t.Depth)
	recordCopyAttachments(r, t)

	reads := []rendergraph.TextureHandle{atlases.DirectionalAtlas, atlases.OtherAtlas}
	for _, h := range []rendergraph.TextureHandle{t.ColorCopy, t.DepthCopy} {
		if h.IsValid() {
			reads = append(reads, h)
		}
	}
	passes.RecordGeometry(r, c.Culling, passes.Geometry{
		Name:               "Transparent Geometry",
		ShaderTags:         passes.DefaultShaderTags,
		QueueRange:         scene.QueueRangeTransparent,
		RenderingLayerMask: layers,
		Color:              t.Color,
		Depth:              t.Depth,
		Reads:              reads,
	})
	passes.RecordUnsupportedShaders(r, c.Culling, s.Editor, t.Color, t.Depth)

	switch {
	case plan.postFX:
		recordPostFX(r, cr.material, s, cr.edgeBreakupTexture, plan, t)
	case plan.intermediate:
		recordFinal(r, cr.material, t)
	}
	passes.RecordGizmos(r, s.Editor, t.Target, t.Depth)
}
