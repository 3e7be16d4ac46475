package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errUnsupportedVersion = errors.New("glTF version must be 2.x")
	errGLBHeader          = errors.New("not a version 2 GLB container")
	errGLBNoJSON          = errors.New("GLB container has no JSON chunk")
	errShortBuffer        = errors.New("buffer is shorter than declared")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir  string
	document *gltfDocument
	binChunk []byte
}

// gltfParser decodes a glTF document, resolves its buffers and reads the vertex
// positions of primitives whose accessors carry no bounds.
type gltfParser interface {
	// Parse reads a .gltf or .glb file. GLB is detected by extension or magic.
	// Relative buffer URIs resolve against the file's directory.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if reading or decoding fails
	Parse(path string) error

	// ParseReader decodes a document from a stream. Relative buffer URIs
	// resolve against the working directory.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if decoding fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the decoded document, nil before a successful parse.
	Document() *gltfDocument

	// ReadVec3Accessor reads a FLOAT VEC3 accessor, honoring the buffer view stride.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][3]float32: one vector per element
	//   - error: error if the accessor is not FLOAT VEC3 or points outside its buffer
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p.baseDir = filepath.Dir(path)

	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data) == gltfGLBMagic)
	return p.decode(data, isGLB)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return p.decode(data, isGLB)
}

// decode unwraps a GLB container when needed, then decodes the JSON document
// and loads every buffer.
func (p *gltfParserImpl) decode(data []byte, isGLB bool) error {
	if isGLB {
		var err error
		if data, err = p.unwrapGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w, got %q", errUnsupportedVersion, doc.Asset.Version)
	}
	for i := range doc.Buffers {
		if err := p.loadBuffer(i, &doc.Buffers[i]); err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
	}
	p.document = &doc
	return nil
}

// unwrapGLB returns the JSON chunk and keeps the first BIN chunk for buffer 0.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) unwrapGLB(data []byte) ([]byte, error) {
	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic || header.Version != gltfGLBVersion {
		return nil, errGLBHeader
	}

	var jsonChunk []byte
	for r.Len() > 0 {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, fmt.Errorf("GLB chunk header: %w", err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return nil, fmt.Errorf("GLB chunk of %d bytes overruns the file", chunk.ChunkLength)
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		switch {
		case chunk.ChunkType == gltfGLBChunkJSON && jsonChunk == nil:
			jsonChunk = body
		case chunk.ChunkType == gltfGLBChunkBIN && p.binChunk == nil:
			p.binChunk = body
		}
	}
	if jsonChunk == nil {
		return nil, errGLBNoJSON
	}
	return jsonChunk, nil
}

// loadBuffer fills buf.Data from the GLB BIN chunk, a base64 data URI or a file.
func (p *gltfParserImpl) loadBuffer(index int, buf *gltfBuffer) error {
	var err error
	switch {
	case buf.URI == "" && index == 0 && p.binChunk != nil:
		buf.Data = p.binChunk
	case buf.URI == "":
		return errors.New("no URI and no GLB binary chunk")
	case strings.HasPrefix(buf.URI, "data:"):
		buf.Data, err = decodeDataURI(buf.URI)
	default:
		buf.Data, err = os.ReadFile(filepath.Join(p.baseDir, filepath.FromSlash(buf.URI)))
	}
	if err != nil {
		return err
	}
	if len(buf.Data) < buf.ByteLength {
		return errShortBuffer
	}
	return nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding %q", header)
	}
	return base64.StdEncoding.DecodeString(payload)
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	doc := p.document
	if doc == nil || accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &doc.Accessors[accessorIndex]
	switch {
	case acc.Type != gltfAccessorTypeVec3 || acc.ComponentType != gltfComponentTypeFloat:
		return nil, fmt.Errorf("accessor %d is %s/%d, want VEC3 FLOAT", accessorIndex, acc.Type, acc.ComponentType)
	case acc.Sparse != nil:
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", accessorIndex)
	case acc.BufferView == nil:
		return nil, fmt.Errorf("accessor %d has no buffer view", accessorIndex)
	case *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews):
		return nil, fmt.Errorf("buffer view index %d out of range", *acc.BufferView)
	case acc.Count < 0:
		return nil, fmt.Errorf("accessor %d has a negative count", accessorIndex)
	}
	view := &doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data

	const elementSize = 12
	stride := elementSize
	if view.ByteStride != nil && *view.ByteStride > 0 {
		stride = *view.ByteStride
	}
	start := view.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && start+(acc.Count-1)*stride+elementSize > len(data) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errShortBuffer)
	}

	out := make([][3]float32, acc.Count)
	for i := range out {
		at := start + i*stride
		for c := 0; c < 3; c++ {
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[at+4*c:]))
		}
	}
	return out, nil
}
