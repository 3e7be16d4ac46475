package light

// ShadowType selects whether and how a light casts shadows.
type ShadowType int

const (
	ShadowsNone ShadowType = iota
	ShadowsHard
	ShadowsSoft
)

// ShadowSettings are the per light shadow parameters.
type ShadowSettings struct {
	Type ShadowType

	// Strength scales the shadow attenuation, 0 disables the shadow.
	Strength float32

	// SlopeScaleBias is applied as rasterizer slope scale depth bias while drawing casters.
	SlopeScaleBias float32

	// NormalBias offsets the sampling position along the surface normal.
	NormalBias float32

	// NearPlane pulls the directional shadow near plane towards the light.
	NearPlane float32
}

// DefaultShadowSettings returns disabled shadows with the usual bias defaults.
func DefaultShadowSettings() ShadowSettings {
	return ShadowSettings{
		Type:           ShadowsNone,
		Strength:       1,
		SlopeScaleBias: 0.05,
		NormalBias:     0.4,
		NearPlane:      0.2,
	}
}

// CastsShadows reports whether the settings request a shadow at all.
func (s ShadowSettings) CastsShadows() bool {
	return s.Type != ShadowsNone && s.Strength > 0
}

// LightmapBakeType is how a light contributes to baked lighting.
type LightmapBakeType int

const (
	BakeRealtime LightmapBakeType = iota
	BakeMixed
	BakeBaked
)

// MixedLightingMode is the baked mode of mixed lights.
type MixedLightingMode int

const (
	MixedIndirectOnly MixedLightingMode = iota
	MixedShadowmask
	MixedSubtractive
)

// BakingOutput is the result of light baking.
type BakingOutput struct {
	BakeType          LightmapBakeType
	MixedLightingMode MixedLightingMode

	// OcclusionMaskChannel is the shadow mask channel holding the light's baked occlusion, -1 for none.
	OcclusionMaskChannel int
}

// UsesShadowMask reports whether the light reads its baked shadows from a shadow mask channel.
func (b BakingOutput) UsesShadowMask() bool {
	return b.BakeType == BakeMixed && b.MixedLightingMode == MixedShadowmask && b.OcclusionMaskChannel >= 0
}
