package shadows

import "fmt"

// TextureSize is the side of a square shadow atlas in texels.
type TextureSize int

const (
	Size256  TextureSize = 256
	Size512  TextureSize = 512
	Size1024 TextureSize = 1024
	Size2048 TextureSize = 2048
	Size4096 TextureSize = 4096
	Size8192 TextureSize = 8192
)

// Valid reports whether s is one of the supported atlas sizes.
func (s TextureSize) Valid() bool {
	switch s {
	case Size256, Size512, Size1024, Size2048, Size4096, Size8192:
		return true
	}
	return false
}

// FilterMode is the PCF kernel used when sampling an atlas.
type FilterMode int

const (
	PCF2x2 FilterMode = iota
	PCF3x3
	PCF5x5
	PCF7x7
)

// CascadeBlendMode selects how neighbouring cascades are blended.
type CascadeBlendMode int

const (
	CascadeBlendHard CascadeBlendMode = iota
	CascadeBlendSoft
	CascadeBlendDither
)

// ShadowMaskMode selects how baked shadow masks combine with realtime shadows.
type ShadowMaskMode int

const (
	// ShadowMaskModeShadowmask always uses baked shadows for static casters.
	ShadowMaskModeShadowmask ShadowMaskMode = iota
	// ShadowMaskModeDistance uses realtime shadows up to the max distance.
	ShadowMaskModeDistance
)

// DirectionalSettings configure the cascaded directional atlas.
type DirectionalSettings struct {
	AtlasSize     TextureSize      `json:"atlasSize"`
	Filter        FilterMode       `json:"filter"`
	CascadeCount  int              `json:"cascadeCount"`
	CascadeRatio1 float32          `json:"cascadeRatio1"`
	CascadeRatio2 float32          `json:"cascadeRatio2"`
	CascadeRatio3 float32          `json:"cascadeRatio3"`
	CascadeFade   float32          `json:"cascadeFade"`
	CascadeBlend  CascadeBlendMode `json:"cascadeBlend"`
}

// CascadeRatios returns the split ratios of the first three cascades.
func (d DirectionalSettings) CascadeRatios() [3]float32 {
	return [3]float32{d.CascadeRatio1, d.CascadeRatio2, d.CascadeRatio3}
}

// OtherSettings configure the spot and point light atlas.
type OtherSettings struct {
	AtlasSize TextureSize `json:"atlasSize"`
	Filter    FilterMode  `json:"filter"`
}

// Settings are the shadow settings shared by every pipeline.
type Settings struct {
	MaxDistance    float32             `json:"maxDistance"`
	DistanceFade   float32             `json:"distanceFade"`
	ShadowMaskMode ShadowMaskMode      `json:"shadowMaskMode"`
	Directional    DirectionalSettings `json:"directional"`
	Other          OtherSettings       `json:"other"`
}

// DefaultSettings returns the default shadow settings.
func DefaultSettings() Settings {
	return Settings{
		MaxDistance:  100,
		DistanceFade: 0.1,
		Directional: DirectionalSettings{
			AtlasSize:     Size1024,
			Filter:        PCF2x2,
			CascadeCount:  4,
			CascadeRatio1: 0.1,
			CascadeRatio2: 0.25,
			CascadeRatio3: 0.5,
			CascadeFade:   0.1,
			CascadeBlend:  CascadeBlendHard,
		},
		Other: OtherSettings{
			AtlasSize: Size1024,
			Filter:    PCF2x2,
		},
	}
}

// Validate reports the first out of range value.
func (s Settings) Validate() error {
	switch {
	case s.MaxDistance <= 0:
		return fmt.Errorf("shadows: max distance %v must be positive", s.MaxDistance)
	case s.DistanceFade <= 0 || s.DistanceFade > 1:
		return fmt.Errorf("shadows: distance fade %v out of (0, 1]", s.DistanceFade)
	case !s.Directional.AtlasSize.Valid():
		return fmt.Errorf("shadows: invalid directional atlas size %d", s.Directional.AtlasSize)
	case !s.Other.AtlasSize.Valid():
		return fmt.Errorf("shadows: invalid other atlas size %d", s.Other.AtlasSize)
	case s.Directional.CascadeCount < 1 || s.Directional.CascadeCount > MaxCascades:
		return fmt.Errorf("shadows: cascade count %d out of [1, %d]", s.Directional.CascadeCount, MaxCascades)
	case s.Directional.CascadeFade <= 0 || s.Directional.CascadeFade > 1:
		return fmt.Errorf("shadows: cascade fade %v out of (0, 1]", s.Directional.CascadeFade)
	case s.Directional.Filter < PCF2x2 || s.Directional.Filter > PCF7x7,
		s.Other.Filter < PCF2x2 || s.Other.Filter > PCF7x7:
		return fmt.Errorf("shadows: unknown filter mode")
	}
	return nil
}
