package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	defaults DrawableDefaults
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files. It walks
// the node hierarchy of the default scene and emits one drawable per mesh primitive.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - defaults: drawable settings used where a material has no override
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(defaults DrawableDefaults) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{defaults: defaults}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*ImportedScene, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return b.importDocument(parser)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) (*ImportedScene, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return b.importDocument(parser)
}

// importDocument walks the default scene's node trees depth first.
func (b *gltfLoaderBackendImpl) importDocument(parser gltfParser) (*ImportedScene, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	name, roots := gltfSceneRoots(doc)
	out := &ImportedScene{Name: name}
	visited := make([]bool, len(doc.Nodes))

	var walk func(index int, parent [16]float32) error
	walk = func(index int, parent [16]float32) error {
		if index < 0 || index >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", index)
		}
		if visited[index] {
			return fmt.Errorf("node %d has more than one parent", index)
		}
		visited[index] = true

		node := &doc.Nodes[index]
		world := common.Mul(parent, gltfNodeMatrix(node))
		if node.Mesh != nil {
			drawables, err := b.meshDrawables(parser, index, &world)
			if err != nil {
				return fmt.Errorf("node %d: %w", index, err)
			}
			out.Drawables = append(out.Drawables, drawables...)
		}
		for _, child := range node.Children {
			if err := walk(child, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := walk(root, common.IdentityMatrix()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// gltfSceneRoots returns the root nodes of the default scene. Documents without
// scenes use every node that is nobody's child.
func gltfSceneRoots(doc *gltfDocument) (string, []int) {
	if len(doc.Scenes) > 0 {
		index := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			index = *doc.Scene
		}
		return doc.Scenes[index].Name, doc.Scenes[index].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return "", roots
}

// meshDrawables emits a drawable per primitive of the node's mesh. Primitives
// without positions are skipped.
func (b *gltfLoaderBackendImpl) meshDrawables(parser gltfParser, nodeIndex int, world *[16]float32) ([]scene.Drawable, error) {
	doc := parser.Document()
	node := &doc.Nodes[nodeIndex]
	if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", *node.Mesh)
	}
	mesh := &doc.Meshes[*node.Mesh]

	name := common.Coalesce(node.Name, mesh.Name, fmt.Sprintf("node%d", nodeIndex))
	var out []scene.Drawable
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		posIndex, ok := prim.Attributes[gltfAttributePosition]
		if !ok {
			common.Logger().Debug("loader: primitive without positions skipped", "mesh", mesh.Name, "primitive", i)
			continue
		}
		lo, hi, err := gltfPositionRange(parser, posIndex)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
		}

		d := b.materialDrawable(doc, prim.Material)
		d.Name = name
		if len(mesh.Primitives) > 1 {
			d.Name = fmt.Sprintf("%s/%d", name, i)
		}
		d.Bounds = gltfWorldBounds(lo, hi, world)
		out = append(out, d)
	}
	return out, nil
}

// gltfPositionRange returns the local bounds of a POSITION accessor, from its
// min and max when present and from the vertex data otherwise.
func gltfPositionRange(parser gltfParser, accessorIndex int) (lo, hi [3]float32, err error) {
	doc := parser.Document()
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return lo, hi, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &doc.Accessors[accessorIndex]
	if len(acc.Min) == 3 && len(acc.Max) == 3 {
		copy(lo[:], acc.Min)
		copy(hi[:], acc.Max)
		return lo, hi, nil
	}

	positions, err := parser.ReadVec3Accessor(accessorIndex)
	if err != nil {
		return lo, hi, err
	}
	lo, hi = gltfCalculateBoundingBox(positions)
	return lo, hi, nil
}

// gltfCalculateBoundingBox computes the axis-aligned bounding box for positions.
func gltfCalculateBoundingBox(positions [][3]float32) ([3]float32, [3]float32) {
	if len(positions) == 0 {
		return [3]float32{}, [3]float32{}
	}

	bmin := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	bmax := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, pos := range positions {
		for j := 0; j < 3; j++ {
			bmin[j] = min(bmin[j], pos[j])
			bmax[j] = max(bmax[j], pos[j])
		}
	}
	return bmin, bmax
}

// gltfWorldBounds transforms the eight corners of a local box and bounds them.
func gltfWorldBounds(lo, hi [3]float32, world *[16]float32) common.Bounds {
	wmin := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	wmax := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for corner := 0; corner < 8; corner++ {
		p := lo
		for axis := 0; axis < 3; axis++ {
			if corner&(1<<axis) != 0 {
				p[axis] = hi[axis]
			}
		}
		w := common.TransformPoint(world, p)
		for axis := 0; axis < 3; axis++ {
			wmin[axis] = min(wmin[axis], w[axis])
			wmax[axis] = max(wmax[axis], w[axis])
		}
	}

	var b common.Bounds
	for axis := 0; axis < 3; axis++ {
		b.Center[axis] = (wmin[axis] + wmax[axis]) * 0.5
		b.Extents[axis] = (wmax[axis] - wmin[axis]) * 0.5
	}
	return b
}

// materialDrawable derives the queue and filters of a primitive from its
// material's alpha mode and extras.
func (b *gltfLoaderBackendImpl) materialDrawable(doc *gltfDocument, materialIndex *int) scene.Drawable {
	d := scene.Drawable{
		ShaderTags:         b.defaults.ShaderTags,
		Queue:              QueueGeometry,
		RenderingLayerMask: b.defaults.RenderingLayerMask,
		CastShadows:        b.defaults.CastShadows,
	}
	if materialIndex == nil || *materialIndex < 0 || *materialIndex >= len(doc.Materials) {
		return d
	}
	mat := &doc.Materials[*materialIndex]

	switch mat.AlphaMode {
	case gltfAlphaModeMask:
		d.Queue = QueueAlphaTest
	case gltfAlphaModeBlend:
		d.Queue = QueueTransparent
	}

	var extras gltfMaterialExtras
	if len(mat.Extras) == 0 || json.Unmarshal(mat.Extras, &extras) != nil {
		return d
	}
	if len(extras.ShaderTags) > 0 {
		d.ShaderTags = extras.ShaderTags
	}
	if extras.Queue != nil {
		d.Queue = *extras.Queue
	}
	if extras.RenderingLayerMask != nil {
		d.RenderingLayerMask = *extras.RenderingLayerMask
	}
	if extras.CastShadows != nil {
		d.CastShadows = *extras.CastShadows
	}
	return d
}

// gltfNodeMatrix returns the node's local transform. TRS composes as T * R * S.
func gltfNodeMatrix(node *gltfNode) [16]float32 {
	if node.Matrix != nil {
		return *node.Matrix
	}

	t := [3]float32{}
	q := [4]float32{0, 0, 0, 1}
	s := [3]float32{1, 1, 1}
	if node.Translation != nil {
		t = *node.Translation
	}
	if node.Rotation != nil {
		q = *node.Rotation
	}
	if node.Scale != nil {
		s = *node.Scale
	}

	x, y, z, w := q[0], q[1], q[2], q[3]
	r := [3][3]float32{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}

	m := common.IdentityMatrix()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			common.Set(&m, row, col, r[row][col]*s[col])
		}
		common.Set(&m, row, 3, t[row])
	}
	return m
}
