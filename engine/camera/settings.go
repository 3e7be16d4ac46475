package camera

import "github.com/Carmen-Shannon/oxy-ink/common"

// RenderScaleMode selects how a camera's render scale combines with the pipeline's.
type RenderScaleMode int

const (
	RenderScaleInherit RenderScaleMode = iota
	RenderScaleMultiply
	RenderScaleOverride
)

// Settings are per camera overrides of pipeline settings.
type Settings struct {
	// Overlay is blended over the final ink image, alpha is the strength.
	Overlay common.Color `json:"overlay"`

	// Saturation scales the final ink image saturation.
	Saturation float32 `json:"saturation"`

	// CopyColor and CopyDepth allow the pipeline to copy the attachments for
	// transparent geometry. The pipeline must enable copies as well.
	CopyColor bool `json:"copyColor"`
	CopyDepth bool `json:"copyDepth"`

	// RenderingLayerMask filters the lights the camera packs when MaskLights is set.
	RenderingLayerMask uint32 `json:"renderingLayerMask"`
	MaskLights         bool   `json:"maskLights"`

	RenderScaleMode RenderScaleMode `json:"renderScaleMode"`
	RenderScale     float32         `json:"renderScale"`
}

// DefaultSettings are used by cameras without overrides.
func DefaultSettings() Settings {
	return Settings{
		Overlay:            common.Color{R: 0.5, G: 0.5, B: 0.5, A: 0},
		Saturation:         1,
		CopyColor:          true,
		CopyDepth:          true,
		RenderingLayerMask: ^uint32(0),
		RenderScale:        1,
	}
}

// ResolveSettings returns the camera's overrides or the defaults.
func ResolveSettings(c Camera) Settings {
	if s := c.Settings(); s != nil {
		return *s
	}
	return DefaultSettings()
}

// LightMask returns the rendering layer mask lights are filtered with.
func (s Settings) LightMask() uint32 {
	if s.MaskLights {
		return s.RenderingLayerMask
	}
	return ^uint32(0)
}

// ApplyRenderScale combines the pipeline render scale with the camera's.
func (s Settings) ApplyRenderScale(scale float32) float32 {
	switch s.RenderScaleMode {
	case RenderScaleMultiply:
		return scale * s.RenderScale
	case RenderScaleOverride:
		return s.RenderScale
	default:
		return scale
	}
}
