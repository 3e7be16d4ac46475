package scene

import (
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/shadows"
)

// RendererListDesc filters the visible drawables of a culling result.
type RendererListDesc struct {
	Name string

	// ShaderTags keeps drawables providing at least one listed pass. Empty keeps none.
	ShaderTags []string

	QueueRange QueueRange

	// RenderingLayerMask keeps drawables sharing at least one layer.
	RenderingLayerMask uint32
}

// RendererList is a filtered set of visible drawables.
type RendererList struct {
	name      string
	drawables []Drawable
}

var _ renderer.RendererList = &RendererList{}

func (l *RendererList) Name() string {
	return l.name
}

func (l *RendererList) IsEmpty() bool {
	return len(l.drawables) == 0
}

func (l *RendererList) Count() int {
	return len(l.drawables)
}

// Drawables returns the drawables of the list.
func (l *RendererList) Drawables() []Drawable {
	return l.drawables
}

// CullingResults is what a camera sees of a scene for one frame.
type CullingResults interface {
	shadows.CullingResults

	// VisibleLights returns the enabled lights that can affect the camera, in
	// visible light index order.
	VisibleLights() []light.Light

	// VisibleDrawables returns the drawables inside the camera frustum.
	VisibleDrawables() []Drawable

	// CreateRendererList filters the visible drawables.
	//
	// Parameters:
	//   - desc: the filter
	//
	// Returns:
	//   - *RendererList: the matching drawables in visible order
	CreateRendererList(desc RendererListDesc) *RendererList
}

type cullingResults struct {
	params    CullingParameters
	casters   []Drawable
	drawables []Drawable
	lights    []light.Light
}

var _ CullingResults = &cullingResults{}

func (r *cullingResults) VisibleLights() []light.Light {
	return r.lights
}

func (r *cullingResults) VisibleDrawables() []Drawable {
	return r.drawables
}

func (r *cullingResults) CreateRendererList(desc RendererListDesc) *RendererList {
	list := &RendererList{name: desc.Name}
	for _, d := range r.drawables {
		if !desc.QueueRange.Contains(d.Queue) || d.RenderingLayerMask&desc.RenderingLayerMask == 0 {
			continue
		}
		if slices.ContainsFunc(d.ShaderTags, func(tag string) bool { return slices.Contains(desc.ShaderTags, tag) }) {
			list.drawables = append(list.drawables, d)
		}
	}
	return list
}

func (r *cullingResults) light(i int) light.Light {
	if i < 0 || i >= len(r.lights) {
		return nil
	}
	return r.lights[i]
}

func (r *cullingResults) GetShadowCasterBounds(visibleLightIndex int) (common.Bounds, bool) {
	l := r.light(visibleLightIndex)
	if l == nil {
		return common.Bounds{}, false
	}
	var out common.Bounds
	found := false
	for _, d := range r.casters {
		if !d.CastShadows || d.RenderingLayerMask&l.RenderingLayerMask() == 0 {
			continue
		}
		switch l.Type() {
		case light.LightTypeDirectional:
			if boundsDistance(d.Bounds, r.params.Position) > r.params.ShadowDistance {
				continue
			}
		default:
			if boundsDistance(d.Bounds, l.Position()) > l.Range() {
				continue
			}
		}
		out = out.Encapsulate(d.Bounds)
		found = true
	}
	return out, found
}

// boundsDistance is the distance from p to the closest point of b.
func boundsDistance(b common.Bounds, p [3]float32) float32 {
	var sq float32
	for i := 0; i < 3; i++ {
		d := abs(p[i]-b.Center[i]) - b.Extents[i]
		if d > 0 {
			sq += d * d
		}
	}
	return sqrt(sq)
}

func (r *cullingResults) ComputeDirectionalShadowMatricesAndCullingPrimitives(visibleLightIndex, cascadeIndex, cascadeCount int,
	ratios [3]float32, tileSize int, nearPlaneOffset float32) (view, proj [16]float32, split renderer.ShadowSplitData, ok bool) {
	l := r.light(visibleLightIndex)
	if l == nil || l.Type() != light.LightTypeDirectional || cascadeIndex < 0 || cascadeIndex >= cascadeCount {
		return view, proj, split, false
	}

	near, far := r.cascadeRange(cascadeIndex, cascadeCount, ratios)
	center, radius := r.sliceSphere(near, far)

	// Snap the sphere center to shadow texels so cascades do not shimmer as the camera moves.
	dir := common.Normalize3(l.Direction())
	up := upFor(dir)
	texel := 2 * radius / float32(max(tileSize, 1))
	right := common.Normalize3(common.Cross3(up, dir))
	up = common.Cross3(dir, right)
	x := snap(common.Dot3(center, right), texel)
	y := snap(common.Dot3(center, up), texel)
	z := common.Dot3(center, dir)
	center = [3]float32{
		right[0]*x + up[0]*y + dir[0]*z,
		right[1]*x + up[1]*y + dir[1]*z,
		right[2]*x + up[2]*y + dir[2]*z,
	}

	back := radius + nearPlaneOffset
	eye := [3]float32{center[0] - dir[0]*back, center[1] - dir[1]*back, center[2] - dir[2]*back}
	common.LookAt(view[:], eye, center, up)
	common.Ortho(proj[:], -radius, radius, -radius, radius, 0, back+radius)

	split.CullingSphere = [4]float32{center[0], center[1], center[2], radius}
	return view, proj, split, true
}

// cascadeRange returns the view distance range of one cascade. Ratios give the
// far end of every cascade but the last as a fraction of the shadow distance.
func (r *cullingResults) cascadeRange(index, count int, ratios [3]float32) (near, far float32) {
	dist := r.params.ShadowDistance
	near = r.params.Near
	if index > 0 {
		near = ratios[index-1] * dist
	}
	far = dist
	if index < count-1 {
		far = ratios[index] * dist
	}
	return near, far
}

// sliceSphere bounds the camera frustum between the view distances near and far.
func (r *cullingResults) sliceSphere(near, far float32) ([3]float32, float32) {
	v := &r.params.View
	forward := common.Normalize3([3]float32{-v[2], -v[6], -v[10]})
	p := &r.params.Projection

	var halfX, halfY float32
	if p[15] == 1 {
		halfX, halfY = 1/p[0], 1/p[5]
	} else {
		halfX, halfY = far/p[0], far/p[5]
	}

	mid := (near + far) * 0.5
	pos := r.params.Position
	center := [3]float32{pos[0] + forward[0]*mid, pos[1] + forward[1]*mid, pos[2] + forward[2]*mid}
	depth := (far - near) * 0.5
	return center, sqrt(depth*depth + halfX*halfX + halfY*halfY)
}

func (r *cullingResults) ComputeSpotShadowMatricesAndCullingPrimitives(visibleLightIndex int) (view, proj [16]float32, split renderer.ShadowSplitData, ok bool) {
	l := r.light(visibleLightIndex)
	if l == nil || l.Type() != light.LightTypeSpot {
		return view, proj, split, false
	}
	pos := l.Position()
	dir := common.Normalize3(l.Direction())
	common.LookAt(view[:], pos, [3]float32{pos[0] + dir[0], pos[1] + dir[1], pos[2] + dir[2]}, upFor(dir))
	common.Perspective(proj[:], l.SpotAngle()*common.Deg2Rad, 1, nearPlane(l), l.Range())
	split.CullingSphere = [4]float32{pos[0], pos[1], pos[2], l.Range()}
	return view, proj, split, true
}

// cubeFaces are the forward and up vectors of the six cube map faces.
var cubeFaces = [6][2][3]float32{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

func (r *cullingResults) ComputePointShadowMatricesAndCullingPrimitives(visibleLightIndex int, face renderer.CubemapFace,
	fovBias float32) (view, proj [16]float32, split renderer.ShadowSplitData, ok bool) {
	l := r.light(visibleLightIndex)
	if l == nil || l.Type() != light.LightTypePoint || face < renderer.CubemapFacePositiveX || face > renderer.CubemapFaceNegativeZ {
		return view, proj, split, false
	}
	pos := l.Position()
	f := cubeFaces[face]
	common.LookAt(view[:], pos, [3]float32{pos[0] + f[0][0], pos[1] + f[0][1], pos[2] + f[0][2]}, f[1])
	common.Perspective(proj[:], (90+fovBias)*common.Deg2Rad, 1, nearPlane(l), l.Range())
	split.CullingSphere = [4]float32{pos[0], pos[1], pos[2], l.Range()}
	return view, proj, split, true
}

func nearPlane(l light.Light) float32 {
	return max(l.Shadows().NearPlane, 0.01)
}

func upFor(dir [3]float32) [3]float32 {
	if d := common.Dot3(dir, [3]float32{0, 1, 0}); d > 0.999 || d < -0.999 {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{0, 1, 0}
}

func snap(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return float32(math.Floor(float64(v/step))) * step
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
