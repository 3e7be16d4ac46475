// Package shadows reserves shadow atlas tiles for visible lights and renders the
// directional (cascaded) and other (spot and point) shadow atlases.
package shadows

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

const (
	MaxShadowedDirectionalLightCount = 4
	MaxShadowedOtherLightCount       = 16
	MaxCascades                      = 4
)

var (
	directionalFilterKeywords = []string{"_DIRECTIONAL_PCF3", "_DIRECTIONAL_PCF5", "_DIRECTIONAL_PCF7"}
	otherFilterKeywords       = []string{"_OTHER_PCF3", "_OTHER_PCF5", "_OTHER_PCF7"}
	cascadeBlendKeywords      = []string{"_CASCADE_BLEND_SOFT", "_CASCADE_BLEND_DITHER"}
	shadowMaskKeywords        = []string{"_SHADOW_MASK_ALWAYS", "_SHADOW_MASK_DISTANCE"}
)

// Shader globals written by Render.
const (
	DirectionalShadowAtlasID    = "_DirectionalShadowAtlas"
	DirectionalShadowMatricesID = "_DirectionalShadowMatrices"
	OtherShadowAtlasID          = "_OtherShadowAtlas"
	OtherShadowMatricesID       = "_OtherShadowMatrices"
	OtherShadowTilesID          = "_OtherShadowTiles"
	CascadeCountID              = "_CascadeCount"
	CascadeCullingSpheresID     = "_CascadeCullingSpheres"
	CascadeDataID               = "_CascadeData"
	ShadowAtlasSizeID           = "_ShadowAtlasSize"
	ShadowDistanceFadeID        = "_ShadowDistanceFade"
	ShadowPancakingID           = "_ShadowPancaking"
)

// CullingResults is the part of a camera's culling output the packer needs.
type CullingResults interface {
	// GetShadowCasterBounds returns the bounds of the casters a light can shadow, false when empty.
	GetShadowCasterBounds(visibleLightIndex int) (common.Bounds, bool)

	// ComputeDirectionalShadowMatricesAndCullingPrimitives computes one cascade of a directional light.
	ComputeDirectionalShadowMatricesAndCullingPrimitives(visibleLightIndex, cascadeIndex, cascadeCount int,
		ratios [3]float32, tileSize int, nearPlaneOffset float32) (view, proj [16]float32, split renderer.ShadowSplitData, ok bool)

	// ComputeSpotShadowMatricesAndCullingPrimitives computes the shadow frustum of a spot light.
	ComputeSpotShadowMatricesAndCullingPrimitives(visibleLightIndex int) (view, proj [16]float32, split renderer.ShadowSplitData, ok bool)

	// ComputePointShadowMatricesAndCullingPrimitives computes one cube face of a point light.
	ComputePointShadowMatricesAndCullingPrimitives(visibleLightIndex int, face renderer.CubemapFace,
		fovBias float32) (view, proj [16]float32, split renderer.ShadowSplitData, ok bool)
}

// Textures are the atlas handles produced by GetRenderTextures.
type Textures struct {
	DirectionalAtlas rendergraph.TextureHandle
	OtherAtlas       rendergraph.TextureHandle
}

type shadowedDirectionalLight struct {
	visibleLightIndex int
	slopeScaleBias    float32
	nearPlaneOffset   float32
}

type shadowedOtherLight struct {
	visibleLightIndex int
	slopeScaleBias    float32
	normalBias        float32
	isPoint           bool
}

// Packer is the per camera shadow state. One Packer is reused frame after frame;
// Setup resets it.
type Packer struct {
	cullingResults CullingResults
	settings       Settings
	reversedZ      bool

	directional [MaxShadowedDirectionalLightCount]shadowedDirectionalLight
	other       [MaxShadowedOtherLightCount]shadowedOtherLight
	dirCount    int
	otherCount  int

	useShadowMask bool
	atlasSizes    common.Vec4

	textures Textures

	cascadeCullingSpheres [MaxCascades]common.Vec4
	cascadeData           [MaxCascades]common.Vec4
	otherShadowTiles      [MaxShadowedOtherLightCount]common.Vec4
	dirShadowMatrices     [MaxShadowedDirectionalLightCount * MaxCascades][16]float32
	otherShadowMatrices   [MaxShadowedOtherLightCount][16]float32
}

// NewPacker returns an empty packer.
func NewPacker() *Packer {
	return &Packer{}
}

// Setup starts a new frame. Every reservation of the previous frame is dropped.
//
// Parameters:
//   - cullingResults: the camera's culling output
//   - settings: the shadow settings
//   - reversedZ: whether the executing device uses a reversed depth buffer
func (p *Packer) Setup(cullingResults CullingResults, settings Settings, reversedZ bool) {
	p.cullingResults = cullingResults
	p.settings = settings
	p.reversedZ = reversedZ
	p.dirCount, p.otherCount = 0, 0
	p.useShadowMask = false
	p.atlasSizes = common.Vec4{}
	p.textures = Textures{}
	p.cascadeCullingSpheres = [MaxCascades]common.Vec4{}
	p.cascadeData = [MaxCascades]common.Vec4{}
}

// DirectionalCount returns the number of reserved directional lights.
func (p *Packer) DirectionalCount() int {
	return p.dirCount
}

// OtherCount returns the number of reserved other light tiles (a point light counts 6).
func (p *Packer) OtherCount() int {
	return p.otherCount
}

// maskChannel returns the shadow mask channel of l, -1 when it has none, and records
// that the shadow mask keywords are needed.
func (p *Packer) maskChannel(l light.Light) float32 {
	baking := l.BakingOutput()
	if !baking.UsesShadowMask() {
		return -1
	}
	p.useShadowMask = true
	return float32(baking.OcclusionMaskChannel)
}

// ReserveDirectionalShadows reserves cascade tiles for a directional light.
//
// Parameters:
//   - l: the light
//   - visibleLightIndex: the light's index in the visible light list
//
// Returns:
//   - common.Vec4: (strength, first cascade tile, normal bias, mask channel), or
//     (-strength, 0, 0, mask channel) when the light casts no realtime shadow
func (p *Packer) ReserveDirectionalShadows(l light.Light, visibleLightIndex int) common.Vec4 {
	s := l.Shadows()
	if p.dirCount >= MaxShadowedDirectionalLightCount || !s.CastsShadows() {
		return common.Vec4{-s.Strength, 0, 0, -1}
	}

	mask := p.maskChannel(l)
	if _, ok := p.cullingResults.GetShadowCasterBounds(visibleLightIndex); !ok {
		return common.Vec4{-s.Strength, 0, 0, mask}
	}

	p.directional[p.dirCount] = shadowedDirectionalLight{
		visibleLightIndex: visibleLightIndex,
		slopeScaleBias:    s.SlopeScaleBias,
		nearPlaneOffset:   s.NearPlane,
	}
	data := common.Vec4{s.Strength, float32(p.settings.Directional.CascadeCount * p.dirCount), s.NormalBias, mask}
	p.dirCount++
	return data
}

// ReserveOtherShadows reserves atlas tiles for a spot (1 tile) or point (6 tiles) light.
//
// Parameters:
//   - l: the light
//   - visibleLightIndex: the light's index in the visible light list
//
// Returns:
//   - common.Vec4: (strength, first tile, 1 for point lights else 0, mask channel), or
//     (-strength, 0, 0, mask channel) when the light casts no realtime shadow
func (p *Packer) ReserveOtherShadows(l light.Light, visibleLightIndex int) common.Vec4 {
	s := l.Shadows()
	if !s.CastsShadows() {
		return common.Vec4{-s.Strength, 0, 0, -1}
	}

	mask := p.maskChannel(l)
	isPoint := l.Type() == light.LightTypePoint
	slots := 1
	if isPoint {
		slots = 6
	}
	newCount := p.otherCount + slots
	if newCount > MaxShadowedOtherLightCount {
		return common.Vec4{-s.Strength, 0, 0, mask}
	}
	if _, ok := p.cullingResults.GetShadowCasterBounds(visibleLightIndex); !ok {
		return common.Vec4{-s.Strength, 0, 0, mask}
	}

	p.other[p.otherCount] = shadowedOtherLight{
		visibleLightIndex: visibleLightIndex,
		slopeScaleBias:    s.SlopeScaleBias,
		normalBias:        s.NormalBias,
		isPoint:           isPoint,
	}
	var pointFlag float32
	if isPoint {
		pointFlag = 1
	}
	data := common.Vec4{s.Strength, float32(p.otherCount), pointFlag, mask}
	p.otherCount = newCount
	return data
}

// GetRenderTextures declares the atlases on the lighting pass. A kind with no
// reservation binds the graph's default shadow texture instead.
//
// Parameters:
//   - r: the recorder of the current camera
//   - b: the builder of the pass that renders the shadows
//
// Returns:
//   - Textures: the atlas handles for later passes to read
func (p *Packer) GetRenderTextures(r *rendergraph.Recorder, b *rendergraph.PassBuilder) Textures {
	atlas := func(size TextureSize, label string, count int) rendergraph.TextureHandle {
		if count == 0 {
			return b.ReadTexture(r.DefaultShadowTexture())
		}
		return b.WriteTexture(r.CreateTexture(renderer.TextureDescriptor{
			Label:       label,
			Width:       int(size),
			Height:      int(size),
			DepthBits:   renderer.Depth32,
			IsShadowMap: true,
		}))
	}
	p.textures = Textures{
		DirectionalAtlas: atlas(p.settings.Directional.AtlasSize, "Directional Shadow Atlas", p.dirCount),
		OtherAtlas:       atlas(p.settings.Other.AtlasSize, "Other Shadow Atlas", p.otherCount),
	}
	return p.textures
}

// Render draws every reserved tile and sets the shadow globals.
func (p *Packer) Render(ctx *rendergraph.Context) {
	cmd := ctx.Cmd()
	if p.dirCount > 0 {
		p.renderDirectionalShadows(ctx, cmd)
	}
	if p.otherCount > 0 {
		p.renderOtherShadows(ctx, cmd)
	}

	cmd.SetGlobalTexture(DirectionalShadowAtlasID, ctx.Texture(p.textures.DirectionalAtlas))
	cmd.SetGlobalTexture(OtherShadowAtlasID, ctx.Texture(p.textures.OtherAtlas))

	maskIndex := -1
	if p.useShadowMask {
		maskIndex = 1
		if p.settings.ShadowMaskMode == ShadowMaskModeShadowmask {
			maskIndex = 0
		}
	}
	cmd.SetKeywords(shadowMaskKeywords, maskIndex)

	cascadeCount := 0
	if p.dirCount > 0 {
		cascadeCount = p.settings.Directional.CascadeCount
	}
	cmd.SetGlobalInt(CascadeCountID, cascadeCount)

	f := 1 - p.settings.Directional.CascadeFade
	cmd.SetGlobalVector(ShadowDistanceFadeID, common.Vec4{
		1 / p.settings.MaxDistance,
		1 / p.settings.DistanceFade,
		1 / (1 - f*f),
	})
	cmd.SetGlobalVector(ShadowAtlasSizeID, p.atlasSizes)
}

func (p *Packer) renderDirectionalShadows(ctx *rendergraph.Context, cmd *renderer.CommandBuffer) {
	atlasSize := int(p.settings.Directional.AtlasSize)
	p.atlasSizes[0] = float32(atlasSize)
	p.atlasSizes[1] = 1 / float32(atlasSize)

	cmd.SetRenderTarget(nil, ctx.Texture(p.textures.DirectionalAtlas))
	cmd.ClearRenderTarget(true, false, common.ClearColor)
	cmd.SetGlobalFloat(ShadowPancakingID, 1)
	cmd.BeginSample("Directional Shadows")

	tiles := p.dirCount * p.settings.Directional.CascadeCount
	split := TileSplit(tiles)
	tileSize := atlasSize / split
	for i := 0; i < p.dirCount; i++ {
		p.renderDirectionalLight(cmd, i, split, tileSize)
	}

	cmd.SetGlobalVectorArray(CascadeCullingSpheresID, p.cascadeCullingSpheres[:])
	cmd.SetGlobalVectorArray(CascadeDataID, p.cascadeData[:])
	cmd.SetGlobalMatrixArray(DirectionalShadowMatricesID, p.dirShadowMatrices[:])
	cmd.SetKeywords(directionalFilterKeywords, int(p.settings.Directional.Filter)-1)
	cmd.SetKeywords(cascadeBlendKeywords, int(p.settings.Directional.CascadeBlend)-1)
	cmd.EndSample("Directional Shadows")
}

func (p *Packer) renderDirectionalLight(cmd *renderer.CommandBuffer, index, split, tileSize int) {
	l := p.directional[index]
	cascadeCount := p.settings.Directional.CascadeCount
	tileOffset := index * cascadeCount
	ratios := p.settings.Directional.CascadeRatios()
	cullingFactor := max(0, 0.8-p.settings.Directional.CascadeFade)
	tileScale := 1 / float32(split)

	for i := 0; i < cascadeCount; i++ {
		tileIndex := tileOffset + i
		view, proj, splitData, ok := p.cullingResults.ComputeDirectionalShadowMatricesAndCullingPrimitives(
			l.visibleLightIndex, i, cascadeCount, ratios, tileSize, l.nearPlaneOffset)
		if !ok {
			p.dirShadowMatrices[tileIndex] = common.IdentityMatrix()
			continue
		}
		splitData.CascadeBlendCullingFactor = cullingFactor
		// Cascade spheres are shared by all directional lights and come from the first one only.
		if index == 0 {
			p.cascadeCullingSpheres[i], p.cascadeData[i] = CascadeData(common.Vec4(splitData.CullingSphere), tileSize, p.settings.Directional.Filter)
		}

		offset := TileOffset(tileIndex, split)
		cmd.SetViewport(TileViewport(offset, tileSize))
		p.dirShadowMatrices[tileIndex] = ConvertToAtlasMatrix(common.Mul(proj, view), offset, tileScale, p.reversedZ)

		cmd.SetViewProjectionMatrices(view, proj)
		cmd.SetGlobalDepthBias(0, l.slopeScaleBias)
		cmd.DrawShadows(renderer.ShadowDrawingSettings{
			LightIndex:                l.visibleLightIndex,
			SplitData:                 splitData,
			UseRenderingLayerMaskTest: true,
		})
		cmd.SetGlobalDepthBias(0, 0)
	}
}

func (p *Packer) renderOtherShadows(ctx *rendergraph.Context, cmd *renderer.CommandBuffer) {
	atlasSize := int(p.settings.Other.AtlasSize)
	p.atlasSizes[2] = float32(atlasSize)
	p.atlasSizes[3] = 1 / float32(atlasSize)

	cmd.SetRenderTarget(nil, ctx.Texture(p.textures.OtherAtlas))
	cmd.ClearRenderTarget(true, false, common.ClearColor)
	cmd.SetGlobalFloat(ShadowPancakingID, 0)
	cmd.BeginSample("Other Shadows")

	split := TileSplit(p.otherCount)
	tileSize := atlasSize / split
	for i := 0; i < p.otherCount; {
		if p.other[i].isPoint {
			p.renderPointShadows(cmd, i, split, tileSize)
			i += 6
		} else {
			p.renderSpotShadows(cmd, i, split, tileSize)
			i++
		}
	}

	cmd.SetGlobalMatrixArray(OtherShadowMatricesID, p.otherShadowMatrices[:])
	cmd.SetGlobalVectorArray(OtherShadowTilesID, p.otherShadowTiles[:])
	cmd.SetKeywords(otherFilterKeywords, int(p.settings.Other.Filter)-1)
	cmd.EndSample("Other Shadows")
}

func (p *Packer) renderSpotShadows(cmd *renderer.CommandBuffer, index, split, tileSize int) {
	l := p.other[index]
	view, proj, splitData, ok := p.cullingResults.ComputeSpotShadowMatricesAndCullingPrimitives(l.visibleLightIndex)
	if !ok {
		return
	}

	texelSize := 2 / (float32(tileSize) * proj[0])
	filterSize := texelSize * (float32(p.settings.Other.Filter) + 1)
	bias := l.normalBias * filterSize * 1.4142136
	offset := TileOffset(index, split)
	cmd.SetViewport(TileViewport(offset, tileSize))
	tileScale := 1 / float32(split)
	p.otherShadowTiles[index] = OtherTileData(offset, tileScale, p.atlasSizes[3]*0.5, bias)
	p.otherShadowMatrices[index] = ConvertToAtlasMatrix(common.Mul(proj, view), offset, tileScale, p.reversedZ)

	cmd.SetViewProjectionMatrices(view, proj)
	cmd.SetGlobalDepthBias(0, l.slopeScaleBias)
	cmd.DrawShadows(renderer.ShadowDrawingSettings{
		LightIndex:                l.visibleLightIndex,
		SplitData:                 splitData,
		UseRenderingLayerMaskTest: true,
	})
	cmd.SetGlobalDepthBias(0, 0)
}

// PointFOVBias returns the extra field of view, in degrees, that widens each cube
// face so filtering does not sample past the face edge.
func PointFOVBias(bias, filterSize float32) float32 {
	return float32(math.Atan(float64(1+bias+filterSize)))*common.Rad2Deg*2 - 90
}

func (p *Packer) renderPointShadows(cmd *renderer.CommandBuffer, index, split, tileSize int) {
	l := p.other[index]
	texelSize := 2 / float32(tileSize)
	filterSize := texelSize * (float32(p.settings.Other.Filter) + 1)
	bias := l.normalBias * filterSize * 1.4142136
	tileScale := 1 / float32(split)
	fovBias := PointFOVBias(bias, filterSize)

	for i := 0; i < 6; i++ {
		view, proj, splitData, ok := p.cullingResults.ComputePointShadowMatricesAndCullingPrimitives(
			l.visibleLightIndex, renderer.CubemapFace(i), fovBias)
		if !ok {
			continue
		}
		// flip the view's second row so faces are not rendered upside down
		view[5], view[9], view[13] = -view[5], -view[9], -view[13]

		tileIndex := index + i
		offset := TileOffset(tileIndex, split)
		cmd.SetViewport(TileViewport(offset, tileSize))
		p.otherShadowTiles[tileIndex] = OtherTileData(offset, tileScale, p.atlasSizes[3]*0.5, bias)
		p.otherShadowMatrices[tileIndex] = ConvertToAtlasMatrix(common.Mul(proj, view), offset, tileScale, p.reversedZ)

		cmd.SetViewProjectionMatrices(view, proj)
		cmd.SetGlobalDepthBias(0, l.slopeScaleBias)
		cmd.DrawShadows(renderer.ShadowDrawingSettings{
			LightIndex:                l.visibleLightIndex,
			SplitData:                 splitData,
			UseRenderingLayerMaskTest: true,
		})
		cmd.SetGlobalDepthBias(0, 0)
	}
}
