// Package aos is the sail pipeline. A single directional light is drawn as a
// light term, blurred twice and stepped into a final shadow buffer that the
// color pass shades with before the warp buffer distorts the result.
package aos

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

// Passes of the sail post processing material.
const (
	PassCopy = iota
	PassDownsample
	PassBlurHorizontal
	PassBlurVertical
	PassFinalShadow
	PassFinalColor
)

// DefaultMaterial is the sail post processing material.
var DefaultMaterial = &renderer.Material{Name: "Hidden/AoS/PostProcess"}

type cameraRendererImpl struct {
	settings    Settings
	material    *renderer.Material
	warpTexture renderer.Texture
	lighting    *passes.Lighting
}

// CameraRenderer records the sail pipeline for one camera at a time.
type CameraRenderer interface {
	pipeline.CameraRenderer

	// Settings returns the settings the renderer was created with.
	Settings() Settings

	// Lighting returns the packing of the sail light.
	Lighting() *passes.Lighting
}

var _ CameraRenderer = &cameraRendererImpl{}

// NewCameraRenderer creates a sail camera renderer.
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
		panic(fmt.Sprintf("aos: invalid settings: %v", err))
	}
	cr := &cameraRendererImpl{
		settings: settings,
		material: DefaultMaterial,
		lighting: passes.NewLighting(light.SailLimits),
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

// useShadows reports whether the packed sail light got a shadow atlas tile.
func (cr *cameraRendererImpl) useShadows(lightCount int) bool {
	g := cr.lighting.Globals()
	return lightCount > 0 && g.DirectionalCount > 0 && g.DirShadowData[0][0] > 0
}

func (cr *cameraRendererImpl) Record(r *rendergraph.Recorder, c *pipeline.CameraContext) {
	s := &cr.settings
	cam := c.Camera
	editor := s.Editor
	layerMask := cam.RenderingLayerMask()

	atlases, lightCount := cr.lighting.Record(r, c.Culling, s.Shadows, ^uint32(0), c.ReversedZ)
	t := recordSetup(r, s, setupParams{
		size:       cam.PixelSize(),
		hdr:        cam.AllowHDR(),
		hasLight:   lightCount > 0,
		view:       cam.ViewMatrix(),
		proj:       cam.ProjectionMatrix(),
		background: cam.BackgroundColor(),
	})
	passes.RecordWarp(r, c.Culling, passes.Warp{
		Texture:            cr.warpTexture,
		Scale:              s.WarpGlobalScale,
		DistanceFade:       s.WarpGlobalDistanceFade,
		Width:              s.WarpWidth,
		Seconds:            c.Time,
		RenderingLayerMask: layerMask,
		Color:              t.WarpColor,
		Depth:              t.WarpDepth,
	})
	list := recordShadow(r, c.Culling, t, atlases, shadowParams{
		layerMask:  layerMask,
		hasLight:   lightCount > 0,
		useShadows: cr.useShadows(lightCount),
	})
	recordBlur(r, cr.material, t, list)
	recordFinalShadow(r, cr.material, s, t, list)
	recordColor(r, c.Culling, layerMask, cam.BackgroundColor(), t)

	passes.RecordSkybox(r, cam.ClearFlags(), t.Color, t.Depth)
	passes.RecordTransparent(r, c.Culling, t.Color, t.Depth)
	passes.RecordUnsupportedShaders(r, c.Culling, editor, t.Color, t.Depth)

	debug := DebugDrawNone
	if editor && cam.Type() == camera.CameraTypeSceneView {
		debug = s.DebugDrawMode
	}
	target := r.ImportTexture(c.Target)
	recordFinalColor(r, cr.material, s, debug, t, target)
	passes.RecordGizmos(r, editor, target, t.Depth)
}
