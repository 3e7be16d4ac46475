package light

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

// Shader globals written by Globals.Apply.
const (
	TotalLightCountID              = "_TotalLightCount"
	LightColorsID                  = "_LightColors"
	DirectionalLightCountID        = "_DirectionalLightCount"
	DirectionalLightDirsAndMasksID = "_DirectionalLightDirectionsAndMasks"
	DirectionalLightShadowDataID   = "_DirectionalLightShadowData"
	OtherLightCountID              = "_OtherLightCount"
	OtherLightPositionsID          = "_OtherLightPositions"
	OtherLightDirectionsAndMasksID = "_OtherLightDirectionsAndMasks"
	OtherLightSpotAnglesID         = "_OtherLightSpotAngles"
	OtherLightShadowDataID         = "_OtherLightShadowData"
)

// Limits caps how many visible lights are packed.
type Limits struct {
	Total       int
	Directional int
	Other       int
}

// InkLimits are the limits of the ink pipeline. Every light needs a channel in
// the per light shadow buffers, so the total is small.
var InkLimits = Limits{Total: 9, Directional: 4, Other: 18}

// SailLimits are the limits of the sail pipeline, which shades with a single
// directional light.
var SailLimits = Limits{Total: 1, Directional: 1}

// ForwardLimits are the limits of the forward pipeline.
var ForwardLimits = Limits{Total: 68, Directional: 4, Other: 64}

// ShadowReserver reserves shadow atlas space for a light and returns its packed
// shadow data.
type ShadowReserver interface {
	ReserveDirectionalShadows(l Light, visibleLightIndex int) common.Vec4
	ReserveOtherShadows(l Light, visibleLightIndex int) common.Vec4
}

// Globals is the packed light data of one camera. The arrays are sized by the
// limits it was created with and reused frame to frame.
type Globals struct {
	limits Limits

	TotalCount       int
	DirectionalCount int
	OtherCount       int

	Colors []common.Vec4

	DirectionsAndMasks []common.Vec4
	DirShadowData      []common.Vec4

	OtherPositions          []common.Vec4
	OtherDirectionsAndMasks []common.Vec4
	OtherSpotAngles         []common.Vec4
	OtherShadowData         []common.Vec4
}

// NewGlobals allocates the light arrays for limits.
func NewGlobals(limits Limits) *Globals {
	return &Globals{
		limits:                  limits,
		Colors:                  make([]common.Vec4, limits.Total),
		DirectionsAndMasks:      make([]common.Vec4, limits.Directional),
		DirShadowData:           make([]common.Vec4, limits.Directional),
		OtherPositions:          make([]common.Vec4, limits.Other),
		OtherDirectionsAndMasks: make([]common.Vec4, limits.Other),
		OtherSpotAngles:         make([]common.Vec4, limits.Other),
		OtherShadowData:         make([]common.Vec4, limits.Other),
	}
}

// Setup packs the visible lights whose rendering layers intersect
// renderingLayerMask. Lights past a limit are skipped. Shadow space is reserved
// through shadows as each light is packed.
//
// Parameters:
//   - visible: the camera's visible lights, in visible light index order
//   - renderingLayerMask: the camera's rendering layers
//   - shadows: the shadow reserver of the camera
//
// Returns:
//   - int: the number of packed lights
func (g *Globals) Setup(visible []Light, renderingLayerMask uint32, shadows ShadowReserver) int {
	g.TotalCount, g.DirectionalCount, g.OtherCount = 0, 0, 0
	clear(g.Colors)
	clear(g.DirectionsAndMasks)
	clear(g.DirShadowData)
	clear(g.OtherPositions)
	clear(g.OtherDirectionsAndMasks)
	clear(g.OtherSpotAngles)
	clear(g.OtherShadowData)

	for i, l := range visible {
		if l.RenderingLayerMask()&renderingLayerMask == 0 || g.TotalCount >= g.limits.Total {
			continue
		}
		switch l.Type() {
		case LightTypeDirectional:
			if g.DirectionalCount < g.limits.Directional {
				g.setupDirectional(i, l, shadows)
			}
		case LightTypePoint, LightTypeSpot:
			if g.OtherCount < g.limits.Other {
				g.setupOther(i, l, shadows)
			}
		}
	}
	return g.TotalCount
}

// maskAsFloat stores the layer mask bits in a float channel.
func maskAsFloat(mask uint32) float32 {
	return math.Float32frombits(mask)
}

func lightColor(l Light) common.Vec4 {
	c := l.FinalColor()
	if l.Type() == LightTypeDirectional {
		return c.WithAlpha(1).Vec4()
	}
	return c.WithAlpha(0).Vec4()
}

func (g *Globals) setupDirectional(visibleIndex int, l Light, shadows ShadowReserver) {
	g.Colors[g.TotalCount] = lightColor(l)
	g.TotalCount++

	m := l.LocalToWorld()
	forward := common.Column(&m, 2)
	g.DirectionsAndMasks[g.DirectionalCount] = common.Vec4{-forward[0], -forward[1], -forward[2], maskAsFloat(l.RenderingLayerMask())}
	g.DirShadowData[g.DirectionalCount] = shadows.ReserveDirectionalShadows(l, visibleIndex)
	g.DirectionalCount++
}

func (g *Globals) setupOther(visibleIndex int, l Light, shadows ShadowReserver) {
	g.Colors[g.TotalCount] = lightColor(l)
	g.TotalCount++

	m := l.LocalToWorld()
	position := common.Column(&m, 3)
	position[3] = max(l.Range(), 0.00001)
	g.OtherPositions[g.OtherCount] = position

	mask := maskAsFloat(l.RenderingLayerMask())
	if l.Type() == LightTypeSpot {
		forward := common.Column(&m, 2)
		g.OtherDirectionsAndMasks[g.OtherCount] = common.Vec4{-forward[0], -forward[1], -forward[2], mask}
		g.OtherSpotAngles[g.OtherCount] = SpotAngles(l.InnerSpotAngle(), l.SpotAngle())
	} else {
		g.OtherDirectionsAndMasks[g.OtherCount] = common.Vec4{0, 0, 0, mask}
		g.OtherSpotAngles[g.OtherCount] = common.Vec4{0, 1}
	}
	g.OtherShadowData[g.OtherCount] = shadows.ReserveOtherShadows(l, visibleIndex)
	g.OtherCount++
}

// SpotAngles returns the (1/range, -outerCos/range) attenuation terms of a spot
// cone given its full inner and outer angles in degrees.
func SpotAngles(innerDeg, outerDeg float32) common.Vec4 {
	innerCos := float32(math.Cos(float64(common.Deg2Rad * 0.5 * innerDeg)))
	outerCos := float32(math.Cos(float64(common.Deg2Rad * 0.5 * outerDeg)))
	inv := 1 / max(innerCos-outerCos, 0.001)
	return common.Vec4{inv, -outerCos * inv}
}

// Apply records the light globals into cmd. Per kind arrays are only set when
// at least one light of that kind was packed.
func (g *Globals) Apply(cmd *renderer.CommandBuffer) {
	cmd.SetGlobalInt(TotalLightCountID, g.TotalCount)
	cmd.SetGlobalVectorArray(LightColorsID, g.Colors)

	cmd.SetGlobalInt(DirectionalLightCountID, g.DirectionalCount)
	if g.DirectionalCount > 0 {
		cmd.SetGlobalVectorArray(DirectionalLightDirsAndMasksID, g.DirectionsAndMasks)
		cmd.SetGlobalVectorArray(DirectionalLightShadowDataID, g.DirShadowData)
	}

	cmd.SetGlobalInt(OtherLightCountID, g.OtherCount)
	if g.OtherCount > 0 {
		cmd.SetGlobalVectorArray(OtherLightPositionsID, g.OtherPositions)
		cmd.SetGlobalVectorArray(OtherLightDirectionsAndMasksID, g.OtherDirectionsAndMasks)
		cmd.SetGlobalVectorArray(OtherLightSpotAnglesID, g.OtherSpotAngles)
		cmd.SetGlobalVectorArray(OtherLightShadowDataID, g.OtherShadowData)
	}
}
