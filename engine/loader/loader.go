// Package loader imports glTF 2.0 scenes (.gltf and .glb) as scene drawables.
// Meshes and materials stay outside the engine: every mesh primitive becomes one
// drawable carrying its world-space bounds and the shader tag, render queue and
// layers its material selects.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// LoaderBackendType identifies the file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Render queues assigned from a material's alpha mode.
const (
	QueueGeometry    = 2000
	QueueAlphaTest   = 2450
	QueueTransparent = 3000
)

// ImportedScene is the result of an import.
type ImportedScene struct {
	Name      string
	Drawables []scene.Drawable
}

// AddTo adds the imported drawables to sc.
//
// Parameters:
//   - sc: the destination scene
//
// Returns:
//   - []uint64: the drawable IDs in import order
func (s *ImportedScene) AddTo(sc scene.Scene) []uint64 {
	ids := make([]uint64, 0, len(s.Drawables))
	for _, d := range s.Drawables {
		ids = append(ids, sc.AddDrawable(d))
	}
	return ids
}

// DefaultShaderTags are the passes an imported material provides unless its
// extras name others: forward lit shading and the passes of both Age of Sail
// pipelines.
var DefaultShaderTags = []string{"CustomLit", "ColorShadowPass", "WarpPass", "ShadowPass", "ColorPass"}

// DrawableDefaults fill in what a material does not override.
type DrawableDefaults struct {
	ShaderTags         []string
	RenderingLayerMask uint32
	CastShadows        bool
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	defaults DrawableDefaults
	cache    map[string]*ImportedScene

	backend loaderBackend
}

// Loader imports scene files and caches the results by path or name.
type Loader interface {
	// Load imports a scene file and caches the result.
	// If the file is already cached (by path), the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the .gltf or .glb file
	//
	// Returns:
	//   - *ImportedScene: the imported drawables
	//   - error: error if loading fails
	Load(path string) (*ImportedScene, error)

	// LoadReader imports a scene from a reader stream and caches it by the given name.
	// External buffer URIs resolve against the working directory.
	//
	// Parameters:
	//   - name: the cache key, also the fallback scene name
	//   - r: the reader providing glTF JSON or GLB data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *ImportedScene: the imported drawables
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*ImportedScene, error)

	// Get retrieves a cached import by name. Returns nil if not found.
	Get(name string) *ImportedScene

	// Forget drops a cached import so the next Load reads the file again.
	Forget(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
// Drawables default to DefaultShaderTags, layer 1 and shadow casting.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		defaults: DrawableDefaults{
			ShaderTags:         DefaultShaderTags,
			RenderingLayerMask: 1,
			CastShadows:        true,
		},
		cache: make(map[string]*ImportedScene),
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.defaults)
	default:
		panic(fmt.Sprintf("loader: unknown backend type %d", backendType))
	}
	return l
}

func (l *loader) Load(path string) (*ImportedScene, error) {
	key := filepath.Clean(path)
	if s := l.Get(key); s != nil {
		return s, nil
	}

	ext := strings.ToLower(filepath.Ext(key))
	if ext != ".gltf" && ext != ".glb" {
		return nil, fmt.Errorf("loader: unsupported file extension %q", ext)
	}

	imported, err := l.backend.Load(key)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	if imported.Name == "" {
		imported.Name = strings.TrimSuffix(filepath.Base(key), filepath.Ext(key))
	}
	l.store(key, imported)
	return imported, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*ImportedScene, error) {
	imported, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", name, err)
	}
	if imported.Name == "" {
		imported.Name = name
	}
	l.store(name, imported)
	return imported, nil
}

func (l *loader) store(key string, s *ImportedScene) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[key] = s
	common.Logger().Debug("loader: imported scene", "key", key, "drawables", len(s.Drawables))
}

func (l *loader) Get(name string) *ImportedScene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Forget(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, name)
}
