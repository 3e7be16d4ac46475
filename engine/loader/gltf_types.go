// gltf_types.go contains the subset of the glTF 2.0 schema the scene importer reads.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

import "encoding/json"

// --- glTF Root Structure ---

// gltfDocument represents the root of a glTF JSON document. Fields the importer
// does not use (textures, skins, animations) are ignored by encoding/json.
type gltfDocument struct {
	// Asset contains metadata about the glTF asset.
	Asset gltfAsset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is an array of scenes.
	Scenes []gltfScene `json:"scenes,omitempty"`

	// Nodes is an array of nodes (transform hierarchy).
	Nodes []gltfNode `json:"nodes,omitempty"`

	// Meshes is an array of meshes.
	Meshes []gltfMesh `json:"meshes,omitempty"`

	// Accessors define how to interpret buffer data.
	Accessors []gltfAccessor `json:"accessors,omitempty"`

	// BufferViews define portions of buffers.
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`

	// Buffers are raw binary data containers.
	Buffers []gltfBuffer `json:"buffers,omitempty"`

	// Materials is an array of materials.
	Materials []gltfMaterial `json:"materials,omitempty"`
}

type gltfAsset struct {
	// Version is the glTF version (required, must be "2.0").
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// --- Scene Graph ---

type gltfScene struct {
	Name string `json:"name,omitempty"`

	// Nodes are the indices of root nodes in this scene.
	Nodes []int `json:"nodes,omitempty"`
}

// gltfNode is a node in the node hierarchy. Matrix takes precedence over TRS.
type gltfNode struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`
	Mesh     *int   `json:"mesh,omitempty"`

	// Matrix is a 4x4 transformation matrix (column-major).
	Matrix *[16]float32 `json:"matrix,omitempty"`

	Translation *[3]float32 `json:"translation,omitempty"`

	// Rotation is a unit quaternion (x, y, z, w).
	Rotation *[4]float32 `json:"rotation,omitempty"`

	Scale *[3]float32 `json:"scale,omitempty"`
}

// --- Mesh Data ---

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	// Attributes is a map of attribute semantic to accessor index.
	Attributes map[string]int `json:"attributes"`

	Material *int `json:"material,omitempty"`
}

// gltfAttributePosition is the vertex position attribute semantic.
const gltfAttributePosition = "POSITION"

// --- Buffer Data ---

type gltfAccessor struct {
	BufferView *int `json:"bufferView,omitempty"`
	ByteOffset int  `json:"byteOffset,omitempty"`

	// ComponentType is the data type of components.
	// 5120=BYTE, 5121=UNSIGNED_BYTE, 5122=SHORT, 5123=UNSIGNED_SHORT, 5125=UNSIGNED_INT, 5126=FLOAT
	ComponentType int `json:"componentType"`

	Count int    `json:"count"`
	Type  string `json:"type"`

	// Max and Min bound each component. Required for POSITION accessors.
	Max []float32 `json:"max,omitempty"`
	Min []float32 `json:"min,omitempty"`

	// Sparse is only checked for presence; sparse storage is rejected.
	Sparse *json.RawMessage `json:"sparse,omitempty"`
}

// Component and element types the importer reads.
const (
	gltfComponentTypeFloat = 5126
	gltfAccessorTypeVec3   = "VEC3"
)

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	// URI is the URI of the buffer data (can be data: URI or external file).
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data holds the loaded binary data (not part of JSON, populated during load).
	Data []byte `json:"-"`
}

// --- Materials ---

// gltfMaterial carries what decides a drawable's render queue and filters.
type gltfMaterial struct {
	Name string `json:"name,omitempty"`

	// AlphaMode is OPAQUE (default), MASK or BLEND.
	AlphaMode string `json:"alphaMode,omitempty"`

	// Extras may hold drawable overrides, see gltfMaterialExtras.
	Extras json.RawMessage `json:"extras,omitempty"`
}

// Alpha modes
const (
	gltfAlphaModeMask  = "MASK"
	gltfAlphaModeBlend = "BLEND"
)

// gltfMaterialExtras are the optional drawable overrides a material's extras
// object may carry. Extras of any other shape are ignored.
type gltfMaterialExtras struct {
	ShaderTags         []string `json:"shaderTags"`
	Queue              *int     `json:"queue"`
	RenderingLayerMask *uint32  `json:"renderingLayerMask"`
	CastShadows        *bool    `json:"castShadows"`
}

// --- GLB Binary Format ---

// gltfGLBHeader is the header of a GLB file (12 bytes).
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type gltfGLBHeader struct {
	Magic   uint32 // Must be 0x46546C67 ("glTF" in ASCII)
	Version uint32 // Must be 2
	Length  uint32 // Total file length
}

// gltfGLBChunkHeader is the header of a GLB chunk (8 bytes).
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32 // 0x4E4F534A for JSON, 0x004E4942 for BIN
}

// GLB magic number and chunk type constants
const (
	gltfGLBMagic     = 0x46546C67 // "glTF" in little-endian ASCII
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON" in little-endian ASCII
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0" in little-endian ASCII
)
