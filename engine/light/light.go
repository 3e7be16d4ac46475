package light

import "github.com/Carmen-Shannon/oxy-ink/common"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Its shadows take the six faces of a cube map.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType          LightType
	position           [3]float32
	direction          [3]float32
	color              [3]float32
	intensity          float32
	lightRange         float32
	innerSpotAngle     float32 // full cone angle in degrees
	spotAngle          float32 // full cone angle in degrees
	enabled            bool
	renderingLayerMask uint32
	shadows            ShadowSettings
	bakingOutput       BakingOutput
}

// Light defines the interface for a light source in the scene.
//
// Lights are scene-level entities. Each frame the scene culls them into a
// visible light list; the pipelines pack the visible lights into shader
// globals and reserve shadow atlas tiles for the ones that cast shadows.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction the light shines in.
	// Meaningless for point lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// LocalToWorld returns the light transform. Column 2 is the shining direction
	// and column 3 the position.
	//
	// Returns:
	//   - [16]float32: column-major transform
	LocalToWorld() [16]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// FinalColor returns color times intensity, the value handed to shading.
	//
	// Returns:
	//   - common.Color: the final light color with alpha 1
	FinalColor() common.Color

	// Range returns the maximum attenuation distance for point and spot lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// SpotAngle returns the full outer cone angle in degrees.
	//
	// Returns:
	//   - float32: the outer angle
	SpotAngle() float32

	// InnerSpotAngle returns the full inner cone angle in degrees.
	//
	// Returns:
	//   - float32: the inner angle
	InnerSpotAngle() float32

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// RenderingLayerMask returns the rendering layers the light affects.
	//
	// Returns:
	//   - uint32: the layer bit mask
	RenderingLayerMask() uint32

	// Shadows returns the light's shadow settings.
	//
	// Returns:
	//   - ShadowSettings: the shadow settings
	Shadows() ShadowSettings

	// BakingOutput returns how the light was baked.
	//
	// Returns:
	//   - BakingOutput: the baking output
	BakingOutput() BakingOutput

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetShadows replaces the light's shadow settings.
	//
	// Parameters:
	//   - s: the shadow settings
	SetShadows(s ShadowSettings)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:          lightType,
		direction:          [3]float32{0, -1, 0},
		color:              [3]float32{1, 1, 1},
		intensity:          1.0,
		lightRange:         10.0,
		innerSpotAngle:     21.8,
		spotAngle:          30,
		enabled:            true,
		renderingLayerMask: 1,
		shadows:            DefaultShadowSettings(),
		bakingOutput:       BakingOutput{OcclusionMaskChannel: -1},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) LocalToWorld() [16]float32 {
	forward := l.direction
	up := [3]float32{0, 1, 0}
	if f := common.Dot3(forward, up); f > 0.999 || f < -0.999 {
		up = [3]float32{0, 0, 1}
	}
	right := common.Normalize3(common.Cross3(up, forward))
	up = common.Cross3(forward, right)

	return [16]float32{
		right[0], right[1], right[2], 0,
		up[0], up[1], up[2], 0,
		forward[0], forward[1], forward[2], 0,
		l.position[0], l.position[1], l.position[2], 1,
	}
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) FinalColor() common.Color {
	return common.Color{
		R: l.color[0] * l.intensity,
		G: l.color[1] * l.intensity,
		B: l.color[2] * l.intensity,
		A: 1,
	}
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) SpotAngle() float32 {
	return l.spotAngle
}

func (l *lightImpl) InnerSpotAngle() float32 {
	return l.innerSpotAngle
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) RenderingLayerMask() uint32 {
	return l.renderingLayerMask
}

func (l *lightImpl) Shadows() ShadowSettings {
	return l.shadows
}

func (l *lightImpl) BakingOutput() BakingOutput {
	return l.bakingOutput
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = common.Normalize3([3]float32{x, y, z})
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetShadows(s ShadowSettings) {
	l.shadows = s
}
