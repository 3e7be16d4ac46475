package shadows

import "github.com/Carmen-Shannon/oxy-ink/common"

// TileSplit returns how many tiles per side an atlas holding tiles tiles is split into.
// Counts above 16 still split by 4; the reservation capacity keeps them from occurring.
func TileSplit(tiles int) int {
	switch {
	case tiles <= 1:
		return 1
	case tiles <= 4:
		return 2
	default:
		return 4
	}
}

// TileOffset returns the grid position of tile index in an atlas split split times per side.
func TileOffset(index, split int) [2]float32 {
	return [2]float32{float32(index % split), float32(index / split)}
}

// TileViewport returns the pixel rectangle of a tile.
func TileViewport(offset [2]float32, tileSize int) common.Rect {
	s := float32(tileSize)
	return common.Rect{X: offset[0] * s, Y: offset[1] * s, Width: s, Height: s}
}

// ConvertToAtlasMatrix remaps a world to clip matrix so that clip space x and y
// land in the tile at offset (in tile units) of size scale in atlas UV space, and
// z lands in [0, 1]. m is column-major; rows are remapped in place on a copy.
//
// Parameters:
//   - m: the projection * view matrix
//   - offset: the tile grid offset
//   - scale: the tile scale, 1/split
//   - reversedZ: whether the device uses a reversed depth buffer
//
// Returns:
//   - [16]float32: the atlas matrix
func ConvertToAtlasMatrix(m [16]float32, offset [2]float32, scale float32, reversedZ bool) [16]float32 {
	if reversedZ {
		for c := 0; c < 4; c++ {
			m[c*4+2] = -m[c*4+2]
		}
	}
	for c := 0; c < 4; c++ {
		w := m[c*4+3]
		m[c*4+0] = (0.5*(m[c*4+0]+w) + offset[0]*w) * scale
		m[c*4+1] = (0.5*(m[c*4+1]+w) + offset[1]*w) * scale
		m[c*4+2] = 0.5 * (m[c*4+2] + w)
	}
	return m
}

// CascadeData shrinks a cascade culling sphere by the filter size and returns the
// stored sphere (radius squared in w) with its cascade data
// (1/radius², filterSize·√2).
func CascadeData(sphere common.Vec4, tileSize int, filter FilterMode) (common.Vec4, common.Vec4) {
	texelSize := 2 * sphere[3] / float32(tileSize)
	filterSize := texelSize * (float32(filter) + 1)
	sphere[3] -= filterSize
	sphere[3] *= sphere[3]
	return sphere, common.Vec4{1 / sphere[3], filterSize * 1.4142136}
}

// OtherTileData returns the sampling bounds and normal bias of a spot or point tile.
// border is half a texel of the other atlas.
func OtherTileData(offset [2]float32, scale, border, bias float32) common.Vec4 {
	return common.Vec4{
		offset[0]*scale + border,
		offset[1]*scale + border,
		scale - border - border,
		bias,
	}
}
