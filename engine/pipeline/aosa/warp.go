package aosa

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/passes"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// recordWarp draws the opaque WarpPass geometry into the warp buffer.
func recordWarp(r *rendergraph.Recorder, cull scene.CullingResults, s *Settings, warpTexture renderer.Texture,
	layerMask uint32, seconds float64, t *CameraTextures) {
	passes.RecordWarp(r, cull, passes.Warp{
		Texture:            warpTexture,
		Scale:              s.WarpGlobalScale,
		DistanceFade:       s.WarpGlobalDistanceFade,
		Width:              s.WarpWidth,
		Seconds:            seconds,
		RenderingLayerMask: layerMask,
		Color:              t.WarpColor,
		Depth:              t.WarpDepth,
	})
}
