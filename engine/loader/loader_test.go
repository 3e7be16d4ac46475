package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// positionsURI encodes float vec3 positions as a base64 data URI.
func positionsURI(t *testing.T, positions ...[3]float32) (string, int) {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, positions); err != nil {
		t.Fatal(err)
	}
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), buf.Len()
}

// harbourDoc has a hull with a mast child, and a sail with two primitives. The
// hull accessor carries min and max, the sail positions are read from the buffer.
func harbourDoc(t *testing.T) string {
	t.Helper()
	uri, n := positionsURI(t, [3]float32{-2, 0, -1}, [3]float32{0, 1, 3}, [3]float32{2, -1, 1})
	return fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "Harbour", "nodes": [0, 2]}],
  "nodes": [
    {"name": "hull", "mesh": 0, "translation": [10, 0, 0], "children": [1]},
    {"name": "mast", "mesh": 0, "translation": [0, 5, 0], "scale": [2, 2, 2]},
    {"mesh": 1, "rotation": [0, 0.70710678, 0, 0.70710678]}
  ],
  "meshes": [
    {"name": "box", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]},
    {"name": "sail", "primitives": [
      {"attributes": {"POSITION": 1}, "material": 1},
      {"attributes": {"POSITION": 1}, "material": 2},
      {"attributes": {"NORMAL": 1}}
    ]}
  ],
  "accessors": [
    {"componentType": 5126, "count": 2, "type": "VEC3", "min": [-1, -1, -1], "max": [1, 1, 1]},
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}
  ],
  "bufferViews": [{"buffer": 0, "byteLength": %d}],
  "buffers": [{"uri": %q, "byteLength": %d}],
  "materials": [
    {"name": "wood"},
    {"name": "canvas", "alphaMode": "BLEND", "extras": {"shaderTags": ["CustomLit", "EdgeBreakup"], "castShadows": false, "renderingLayerMask": 4}},
    {"name": "rope", "alphaMode": "MASK", "extras": "not an object"}
  ]
}`, n, uri, n)
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func approx3(a, b [3]float32) bool {
	return approx(a[0], b[0]) && approx(a[1], b[1]) && approx(a[2], b[2])
}

func TestLoadReaderBuildsDrawables(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	s, err := l.LoadReader("harbour", strings.NewReader(harbourDoc(t)), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if s.Name != "Harbour" {
		t.Errorf("name = %q, want the scene name", s.Name)
	}

	tests := []struct {
		name    string
		center  [3]float32
		extents [3]float32
		tags    []string
		queue   int
		mask    uint32
		cast    bool
	}{
		{"hull", [3]float32{10, 0, 0}, [3]float32{1, 1, 1}, DefaultShaderTags, QueueGeometry, 1, true},
		{"mast", [3]float32{10, 5, 0}, [3]float32{2, 2, 2}, DefaultShaderTags, QueueGeometry, 1, true},
		// A quarter turn about Y maps local x to -z and local z to x.
		{"sail/0", [3]float32{1, 0, 0}, [3]float32{2, 1, 2}, []string{"CustomLit", "EdgeBreakup"}, QueueTransparent, 4, false},
		{"sail/1", [3]float32{1, 0, 0}, [3]float32{2, 1, 2}, DefaultShaderTags, QueueAlphaTest, 1, true},
	}
	if len(s.Drawables) != len(tests) {
		t.Fatalf("drawables = %d, want %d", len(s.Drawables), len(tests))
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := s.Drawables[i]
			if d.Name != tt.name {
				t.Fatalf("name = %q", d.Name)
			}
			if !approx3(d.Bounds.Center, tt.center) || !approx3(d.Bounds.Extents, tt.extents) {
				t.Errorf("bounds = %+v, want center %v extents %v", d.Bounds, tt.center, tt.extents)
			}
			if !slices.Equal(d.ShaderTags, tt.tags) || d.Queue != tt.queue || d.RenderingLayerMask != tt.mask || d.CastShadows != tt.cast {
				t.Errorf("drawable = %+v", d)
			}
		})
	}

	if l.Get("harbour") != s {
		t.Error("the import should be cached by name")
	}
	l.Forget("harbour")
	if l.Get("harbour") != nil {
		t.Error("Forget should drop the import")
	}
}

func TestLoaderDefaults(t *testing.T) {
	l := NewLoader(BackendTypeGLTF, WithShaderTags("Lit"), WithRenderingLayerMask(2), WithCastShadows(false))
	s, err := l.LoadReader("harbour", strings.NewReader(harbourDoc(t)), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	hull := s.Drawables[0]
	if !slices.Equal(hull.ShaderTags, []string{"Lit"}) || hull.RenderingLayerMask != 2 || hull.CastShadows {
		t.Errorf("hull = %+v, want the loader defaults", hull)
	}
}

func TestLoadFileAndGLB(t *testing.T) {
	doc := harbourDoc(t)
	dir := t.TempDir()
	gltfPath := filepath.Join(dir, "harbour.gltf")
	if err := os.WriteFile(gltfPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	// A GLB with the same JSON chunk, padded to four bytes.
	jsonChunk := []byte(doc)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	var glb bytes.Buffer
	binary.Write(&glb, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(12 + 8 + len(jsonChunk))})
	binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON})
	glb.Write(jsonChunk)
	glbPath := filepath.Join(dir, "harbour.glb")
	if err := os.WriteFile(glbPath, glb.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(BackendTypeGLTF)
	for _, path := range []string{gltfPath, glbPath} {
		s, err := l.Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", filepath.Base(path), err)
		}
		if len(s.Drawables) != 4 {
			t.Errorf("%s drawables = %d, want 4", filepath.Base(path), len(s.Drawables))
		}
		again, _ := l.Load(path)
		if again != s {
			t.Errorf("%s should be served from the cache", filepath.Base(path))
		}
	}

	if _, err := l.Load(filepath.Join(dir, "harbour.obj")); err == nil {
		t.Error("unsupported extensions should fail")
	}
}

func TestImportedSceneAddTo(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	s, err := l.LoadReader("harbour", strings.NewReader(harbourDoc(t)), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	sc := scene.NewScene("harbour")
	defer sc.Close()

	ids := s.AddTo(sc)
	if len(ids) != 4 || len(sc.Drawables()) != 4 {
		t.Errorf("ids = %v, scene drawables = %d", ids, len(sc.Drawables()))
	}
}

func TestSceneWithoutScenesUsesRootNodes(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "nodes": [
    {"name": "child", "mesh": 0},
    {"name": "root", "children": [0], "matrix": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,-4,1]}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"componentType": 5126, "count": 2, "type": "VEC3", "min": [0, 0, 0], "max": [2, 2, 2]}]
}`
	s, err := NewLoader(BackendTypeGLTF).LoadReader("plain", strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if s.Name != "plain" || len(s.Drawables) != 1 {
		t.Fatalf("scene = %+v", s)
	}
	if c := s.Drawables[0].Bounds.Center; !approx3(c, [3]float32{1, 1, -3}) {
		t.Errorf("center = %v, the root matrix should apply", c)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"version", `{"asset": {"version": "1.0"}}`},
		{"json", `{"asset": `},
		{"node range", `{"asset": {"version": "2.0"}, "scenes": [{"nodes": [3]}]}`},
		{"cycle", `{"asset": {"version": "2.0"}, "scenes": [{"nodes": [0]}], "nodes": [{"children": [0]}]}`},
		{"mesh range", `{"asset": {"version": "2.0"}, "nodes": [{"mesh": 2}]}`},
		{"accessor range", `{"asset": {"version": "2.0"}, "nodes": [{"mesh": 0}], "meshes": [{"primitives": [{"attributes": {"POSITION": 5}}]}]}`},
		{"no buffer view", `{"asset": {"version": "2.0"}, "nodes": [{"mesh": 0}], "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
			"accessors": [{"componentType": 5126, "count": 1, "type": "VEC3"}]}`},
		{"short buffer", `{"asset": {"version": "2.0"}, "nodes": [{"mesh": 0}], "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
			"accessors": [{"bufferView": 0, "componentType": 5126, "count": 4, "type": "VEC3"}],
			"bufferViews": [{"buffer": 0, "byteLength": 12}],
			"buffers": [{"uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAA", "byteLength": 12}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader(BackendTypeGLTF).LoadReader(tt.name, strings.NewReader(tt.doc), false); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGLBRejectsBadMagic(t *testing.T) {
	data := make([]byte, 20)
	if _, err := NewLoader(BackendTypeGLTF).LoadReader("bad", bytes.NewReader(data), true); err == nil {
		t.Error("expected an error")
	}
}
