package custom

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
)

// Render scale bounds of scaled rendering.
const (
	RenderScaleMin float32 = 0.1
	RenderScaleMax float32 = 2
)

// CameraBufferSettings configure the camera attachments.
type CameraBufferSettings struct {
	AllowHDR bool `json:"allowHDR"`

	// RenderScale scales the attachments of game cameras, 1 renders at pixel size.
	RenderScale float32 `json:"renderScale"`

	CopyColor           bool `json:"copyColor"`
	CopyColorReflection bool `json:"copyColorReflection"`
	CopyDepth           bool `json:"copyDepth"`
	CopyDepthReflection bool `json:"copyDepthReflection"`
}

// EdgeBreakupSettings configure the screen space edge breakup effect.
type EdgeBreakupSettings struct {
	Enabled bool `json:"enabled"`

	WarpTexture      common.ImageSource `json:"warpTexture"`
	WarpTextureScale float32            `json:"warpTextureScale"`

	// IgnoreRenderScale keeps the breakup width in camera pixels when rendering scaled.
	IgnoreRenderScale      bool    `json:"ignoreRenderScale"`
	Distance               float32 `json:"distance"`
	DistanceFadeMultiplier float32 `json:"distanceFadeMultiplier"`
	Skew                   float32 `json:"skew"`
	Debug                  bool    `json:"debug"`
}

// AgeOfSailSettings configure the ink shading composite of the forward pipeline.
type AgeOfSailSettings struct {
	UsePipeline             bool    `json:"usePipeline"`
	BlurDownsample          float32 `json:"blurDownsample"`
	BlurRadius              float32 `json:"blurRadius"`
	ShadowThreshold         float32 `json:"shadowThreshold"`
	ShadowThresholdSoftness float32 `json:"shadowThresholdSoftness"`
}

// Settings configure the forward pipeline.
type Settings struct {
	CameraBuffer       CameraBufferSettings `json:"cameraBuffer"`
	UseLightsPerObject bool                 `json:"useLightsPerObject"`
	Shadows            shadows.Settings     `json:"shadows"`
	EdgeBreakup        EdgeBreakupSettings  `json:"edgeBreakup"`
	AgeOfSail          AgeOfSailSettings    `json:"ageOfSail"`

	// Editor enables the unsupported shader and gizmo passes.
	Editor bool `json:"editor"`

	StrictContracts bool `json:"strictContracts"`
}

// DefaultSettings returns the default forward pipeline settings.
func DefaultSettings() Settings {
	return Settings{
		CameraBuffer: CameraBufferSettings{
			AllowHDR:    true,
			RenderScale: 1,
		},
		UseLightsPerObject: true,
		Shadows:            shadows.DefaultSettings(),
		EdgeBreakup: EdgeBreakupSettings{
			WarpTextureScale:       1,
			IgnoreRenderScale:      true,
			Distance:               1,
			DistanceFadeMultiplier: 1,
			Skew:                   4,
		},
		AgeOfSail: AgeOfSailSettings{
			BlurDownsample:          1,
			BlurRadius:              7,
			ShadowThreshold:         0.5,
			ShadowThresholdSoftness: 0.01,
		},
	}
}

// PostFXActive reports whether the post processing pass replaces the final copy.
func (s Settings) PostFXActive() bool {
	return s.EdgeBreakup.Enabled || s.AgeOfSail.UsePipeline
}

// Validate reports every out of range value.
func (s Settings) Validate() error {
	var errs []error
	if err := s.Shadows.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.CameraBuffer.RenderScale < RenderScaleMin || s.CameraBuffer.RenderScale > RenderScaleMax {
		errs = append(errs, fmt.Errorf("custom: render scale %v out of [%v, %v]", s.CameraBuffer.RenderScale, RenderScaleMin, RenderScaleMax))
	}
	e := s.EdgeBreakup
	if e.Distance < 0 || e.DistanceFadeMultiplier < 0 {
		errs = append(errs, errors.New("custom: edge breakup distance and fade multiplier must not be negative"))
	}
	if e.Skew <= 0 {
		errs = append(errs, fmt.Errorf("custom: edge breakup skew %v must be positive", e.Skew))
	}
	a := s.AgeOfSail
	if a.BlurDownsample < 1 {
		errs = append(errs, fmt.Errorf("custom: blur downsample %v below 1", a.BlurDownsample))
	}
	if a.ShadowThreshold < 0 || a.ShadowThreshold > 1 || a.ShadowThresholdSoftness < 0 || a.ShadowThresholdSoftness > 1 {
		errs = append(errs, errors.New("custom: shadow threshold and softness must be in [0, 1]"))
	}
	return errors.Join(errs...)
}
