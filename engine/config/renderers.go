package config

import (
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/aos"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/aosa"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/custom"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

// Build creates the camera renderer the settings select and uploads its noise
// texture to device.
//
// Parameters:
//   - device: the device owning the noise texture
//
// Returns:
//   - pipeline.CameraRenderer: the camera renderer
//   - func(): releases the noise texture once the renderer is no longer used
//   - error: a validation or texture loading error
func (s *Settings) Build(device renderer.Device) (pipeline.CameraRenderer, func(), error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	var src common.ImageSource
	switch {
	case s.Pipeline == PipelineInk:
		src = s.Ink.WarpTexture
	case s.Pipeline == PipelineSail:
		src = s.Sail.WarpTexture
	case s.Forward.EdgeBreakup.Enabled:
		src = s.Forward.EdgeBreakup.WarpTexture
	}
	var tex renderer.Texture
	if !src.IsZero() {
		var err error
		if tex, err = renderer.LoadTexture(device, src, renderer.FilterBilinear); err != nil {
			return nil, nil, err
		}
	}
	release := func() {
		if tex != nil {
			tex.Release()
		}
	}

	switch s.Pipeline {
	case PipelineForward:
		return custom.NewCameraRenderer(s.Forward, custom.WithEdgeBreakupTexture(tex)), release, nil
	case PipelineSail:
		return aos.NewCameraRenderer(s.Sail, aos.WithWarpTexture(tex)), release, nil
	}
	return aosa.NewCameraRenderer(s.Ink, aosa.WithWarpTexture(tex)), release, nil
}
