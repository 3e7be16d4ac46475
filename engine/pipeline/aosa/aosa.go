// Package aosa is the ink pipeline. Every light gets a channel in a set of
// shadow buffers that are blurred twice and composited into stepped, glowing
// ink shading, then distorted by a warp buffer for hand drawn line work.
package aosa

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

// Passes of the ink post processing material.
const (
	PassCopy = iota
	PassDownsampleArray
	PassBlurHorizontalArray
	PassBlurVerticalArray
	PassCompositing
	PassFinalCompositing
	PassDebugMultiple
)

// DefaultMaterial is the ink post processing material.
var DefaultMaterial = &renderer.Material{Name: "Hidden/AoSA/PostProcess"}

type cameraRendererImpl struct {
	settings    Settings
	material    *renderer.Material
	warpTexture renderer.Texture
	lighting    *passes.Lighting
}

// CameraRenderer records the ink pipeline for one camera at a time.
type CameraRenderer interface {
	pipeline.CameraRenderer

	// Settings returns the settings the renderer was created with.
	Settings() Settings

	// Lighting returns the light and shadow packing shared by every camera.
	Lighting() *passes.Lighting
}

var _ CameraRenderer = &cameraRendererImpl{}

// NewCameraRenderer creates an ink camera renderer.
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
		panic(fmt.Sprintf("aosa: invalid settings: %v", err))
	}
	cr := &cameraRendererImpl{
		settings: settings,
		material: DefaultMaterial,
		lighting: passes.NewLighting(light.InkLimits),
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
	editor := s.Editor

	atlases, lightCount := cr.lighting.Record(r, c.Culling, s.Shadows, ^uint32(0), c.ReversedZ)
	t := recordSetup(r, s, setupParams{
		size:       cam.PixelSize(),
		hdr:        cam.AllowHDR(),
		lightCount: lightCount,
		view:       cam.ViewMatrix(),
		proj:       cam.ProjectionMatrix(),
		background: cam.BackgroundColor(),
	})
	recordWarp(r, c.Culling, s, cr.warpTexture, cam.RenderingLayerMask(), c.Time, t)
	list := recordColorShadow(r, c.Culling, cam, t, atlases, cr.lighting.Globals().Colors)
	recordBlur(r, cr.material, t, list)
	recordCompositing(r, cr.material, s, t, list)

	passes.RecordSkybox(r, cam.ClearFlags(), t.LitColor, t.Depth)
	passes.RecordTransparent(r, c.Culling, t.LitColor, t.Depth)
	passes.RecordUnsupportedShaders(r, c.Culling, editor, t.LitColor, t.Depth)

	fp := finalParams{overlay: camSettings.Overlay, saturation: camSettings.Saturation}
	if editor && cam.Type() == camera.CameraTypeSceneView {
		fp.debug = s.DebugDrawMode
	}
	target := r.ImportTexture(c.Target)
	recordFinalCompositing(r, cr.material, s, fp, t, target)
	passes.RecordGizmos(r, editor, target, t.Depth)
}
