package light

import "github.com/Carmen-Shannon/oxy-ink/common"

// LightBuilderOption configures a light in NewLight.
type LightBuilderOption func(*lightImpl)

// WithPosition places point and spot lights. Directional lights ignore it.
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = [3]float32{x, y, z}
	}
}

// WithDirection sets where directional and spot lights shine, normalized on store.
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = common.Normalize3([3]float32{x, y, z})
	}
}

// WithColor sets the linear RGB color. Packing multiplies it by the intensity.
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = [3]float32{r, g, b}
	}
}

func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRange bounds point and spot lights, both for attenuation and for culling.
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithSpotAngles sets the full cone angles of a spot light.
//
// Parameters:
//   - innerDeg: where falloff starts, in degrees
//   - outerDeg: where the light reaches zero, in degrees; also the shadow frustum angle
//
// Returns:
//   - LightBuilderOption: the spot cone option
func WithSpotAngles(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerSpotAngle = innerDeg
		l.spotAngle = outerDeg
	}
}

// WithEnabled is an option builder that enables or disables the light.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// WithRenderingLayerMask sets the rendering layers the light affects.
func WithRenderingLayerMask(mask uint32) LightBuilderOption {
	return func(l *lightImpl) {
		l.renderingLayerMask = mask
	}
}

// WithShadows is an option builder that enables shadows of the given type and strength,
// keeping the default biases.
//
// Parameters:
//   - t: hard or soft shadows
//   - strength: the shadow strength in [0, 1]
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a lightImpl
func WithShadows(t ShadowType, strength float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadows.Type = t
		l.shadows.Strength = strength
	}
}

// WithShadowBias sets the slope scale bias, normal bias and near plane of the light's shadows.
func WithShadowBias(slopeScale, normal, nearPlane float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadows.SlopeScaleBias = slopeScale
		l.shadows.NormalBias = normal
		l.shadows.NearPlane = nearPlane
	}
}

// WithBakingOutput marks the light as baked. Mixed shadowmask lights expose their
// occlusion channel to the shadow packer.
func WithBakingOutput(b BakingOutput) LightBuilderOption {
	return func(l *lightImpl) {
		l.bakingOutput = b
	}
}
