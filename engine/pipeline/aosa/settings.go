package aosa

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
)

// DebugDrawMode replaces the final composite of scene view cameras with one of
// the intermediate buffers.
type DebugDrawMode int

const (
	DebugDrawNone DebugDrawMode = iota
	DebugDrawWarp
	DebugDrawLitColor
	DebugDrawShadowedColor
	DebugDrawShadow
	DebugDrawSoftBlur
	DebugDrawHeavyBlur
)

var debugDrawModeNames = [...]string{
	DebugDrawNone:          "None",
	DebugDrawWarp:          "Warp",
	DebugDrawLitColor:      "LitColor",
	DebugDrawShadowedColor: "ShadowedColor",
	DebugDrawShadow:        "Shadow",
	DebugDrawSoftBlur:      "SoftBlur",
	DebugDrawHeavyBlur:     "HeavyBlur",
}

func (m DebugDrawMode) String() string {
	if m >= 0 && int(m) < len(debugDrawModeNames) {
		return debugDrawModeNames[m]
	}
	return fmt.Sprintf("DebugDrawMode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m DebugDrawMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(debugDrawModeNames) {
		return nil, fmt.Errorf("aosa: unknown debug draw mode %d", int(m))
	}
	return []byte(debugDrawModeNames[m]), nil
}

// UnmarshalText decodes a mode name.
func (m *DebugDrawMode) UnmarshalText(text []byte) error {
	for i, name := range debugDrawModeNames {
		if name == string(text) {
			*m = DebugDrawMode(i)
			return nil
		}
	}
	return fmt.Errorf("aosa: unknown debug draw mode %q", text)
}

// copiesOneBuffer reports whether the mode shows a single full resolution buffer.
func (m DebugDrawMode) copiesOneBuffer() bool {
	return m == DebugDrawWarp || m == DebugDrawLitColor || m == DebugDrawShadowedColor
}

// Settings configure the ink pipeline.
type Settings struct {
	Shadows shadows.Settings `json:"shadows"`

	// WarpTexture is the noise texture that distorts line work.
	WarpTexture            common.ImageSource `json:"warpTexture"`
	WarpGlobalScale        float32            `json:"warpGlobalScale"`
	WarpGlobalDistanceFade float32            `json:"warpGlobalDistanceFade"`
	WarpWidth              float32            `json:"warpWidth"`
	WarpBloom              bool               `json:"warpBloom"`

	// SoftBlurDownsample and HeavyBlurDownsample divide the buffer size of the two blur levels.
	SoftBlurDownsample  int `json:"softBlurDownsample"`
	HeavyBlurDownsample int `json:"heavyBlurDownsample"`

	ShadowStepCount         int     `json:"shadowStepCount"`
	ShadowThreshold         float32 `json:"shadowThreshold"`
	ShadowThresholdSoftness float32 `json:"shadowThresholdSoftness"`
	ShadowInnerGlow         float32 `json:"shadowInnerGlow"`

	DebugDrawMode DebugDrawMode `json:"debugDrawMode"`

	// Editor enables the editor only passes: unsupported shaders, gizmos and debug draw modes.
	Editor bool `json:"editor"`

	// StrictContracts re-panics render graph contract violations instead of
	// clearing the offending camera.
	StrictContracts bool `json:"strictContracts"`
}

// DefaultSettings returns the default ink pipeline settings.
func DefaultSettings() Settings {
	return Settings{
		Shadows:                 shadows.DefaultSettings(),
		WarpGlobalScale:         1,
		WarpGlobalDistanceFade:  1,
		WarpWidth:               1,
		SoftBlurDownsample:      4,
		HeavyBlurDownsample:     8,
		ShadowStepCount:         3,
		ShadowThreshold:         0.5,
		ShadowThresholdSoftness: 0.3,
		ShadowInnerGlow:         0.3,
	}
}

// Validate reports every out of range value.
func (s Settings) Validate() error {
	var errs []error
	if err := s.Shadows.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.SoftBlurDownsample < 1 || s.SoftBlurDownsample > 16 {
		errs = append(errs, fmt.Errorf("aosa: soft blur downsample %d out of [1, 16]", s.SoftBlurDownsample))
	}
	if s.HeavyBlurDownsample < 2 || s.HeavyBlurDownsample > 16 {
		errs = append(errs, fmt.Errorf("aosa: heavy blur downsample %d out of [2, 16]", s.HeavyBlurDownsample))
	}
	if s.ShadowStepCount < 0 {
		errs = append(errs, fmt.Errorf("aosa: shadow step count %d is negative", s.ShadowStepCount))
	}
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"shadow threshold", s.ShadowThreshold},
		{"shadow threshold softness", s.ShadowThresholdSoftness},
		{"shadow inner glow", s.ShadowInnerGlow},
	} {
		if f.v < 0 || f.v > 1 {
			errs = append(errs, fmt.Errorf("aosa: %s %v out of [0, 1]", f.name, f.v))
		}
	}
	if s.WarpGlobalScale < 0 || s.WarpWidth < 0 || s.WarpGlobalDistanceFade < 0 {
		errs = append(errs, errors.New("aosa: warp scale, width and distance fade must not be negative"))
	}
	if s.DebugDrawMode < DebugDrawNone || s.DebugDrawMode > DebugDrawHeavyBlur {
		errs = append(errs, fmt.Errorf("aosa: unknown debug draw mode %d", int(s.DebugDrawMode)))
	}
	return errors.Join(errs...)
}
