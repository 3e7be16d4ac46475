// Package scene is the host side of culling. It owns the drawables and lights of
// a world, culls them against a camera and answers the shadow matrix queries the
// shadow packer makes.
package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/light"
)

// Render queue bounds. Opaque geometry sorts at or below QueueOpaqueMax.
const (
	QueueOpaqueMax      = 2500
	QueueTransparentMax = 5000
)

// QueueRange is an inclusive range of render queues.
type QueueRange struct {
	Lower, Upper int
}

var (
	QueueRangeOpaque      = QueueRange{Lower: 0, Upper: QueueOpaqueMax}
	QueueRangeTransparent = QueueRange{Lower: QueueOpaqueMax + 1, Upper: QueueTransparentMax}
	QueueRangeAll         = QueueRange{Lower: 0, Upper: QueueTransparentMax}
)

// Contains reports whether queue lies inside the range.
func (r QueueRange) Contains(queue int) bool {
	return queue >= r.Lower && queue <= r.Upper
}

// Drawable is one renderer of the scene. Meshes and materials live outside the
// engine; the scene only needs enough to cull and filter.
type Drawable struct {
	Name   string
	Bounds common.Bounds

	// ShaderTags are the shader passes the drawable's material provides.
	ShaderTags []string

	Queue              int
	RenderingLayerMask uint32
	CastShadows        bool
}

// CullingParameters describe the camera a scene is culled against.
type CullingParameters struct {
	View       [16]float32
	Projection [16]float32
	Position   [3]float32
	Near       float32
	Far        float32

	// ShadowDistance is the distance shadow cascades and caster bounds extend to.
	ShadowDistance float32
}

type entry struct {
	id       uint64
	drawable Drawable
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name      string
	drawables []entry
	lights    []light.Light
	nextID    uint64

	computeWorkers int
	chunkSize      int
	cullPool       worker.DynamicWorkerPool
}

// Scene holds the drawables and lights of a world. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// AddDrawable adds a drawable to the scene.
	//
	// Parameters:
	//   - d: the drawable to add
	//
	// Returns:
	//   - uint64: the assigned drawable ID
	AddDrawable(d Drawable) uint64

	// RemoveDrawable removes a drawable by ID. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the drawable's ID
	RemoveDrawable(id uint64)

	// Drawables returns a copy of the drawables in insertion order.
	Drawables() []Drawable

	// AddLight adds a light to the scene.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light. Unknown lights are ignored.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Lights returns a copy of the scene's lights.
	Lights() []light.Light

	// Cull culls the drawables and lights against a camera. Drawables are tested in
	// parallel on the scene's worker pool; the call returns once every chunk is done.
	//
	// Parameters:
	//   - params: the camera culling parameters
	//
	// Returns:
	//   - CullingResults: the visible drawables and lights
	//   - bool: false when the parameters describe no valid frustum
	Cull(params CullingParameters) (CullingResults, bool)

	// Close stops the culling workers. The scene must not be culled afterwards.
	Close()
}

var _ Scene = &scene{}

// NewScene creates a new Scene with the given name and options.
//
// Parameters:
//   - name: the scene's identifier
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		nextID:         1,
		computeWorkers: max(runtime.NumCPU()-1, 1),
		chunkSize:      256,
	}

	for _, option := range options {
		option(s)
	}

	// The pool is built after options so WithComputeWorkers can override the default.
	s.cullPool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) AddDrawable(d Drawable) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addDrawable(d)
}

func (s *scene) addDrawable(d Drawable) uint64 {
	id := s.nextID
	s.nextID++
	s.drawables = append(s.drawables, entry{id: id, drawable: d})
	return id
}

func (s *scene) RemoveDrawable(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawables = slices.DeleteFunc(s.drawables, func(e entry) bool { return e.id == id })
}

func (s *scene) Drawables() []Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Drawable, len(s.drawables))
	for i, e := range s.drawables {
		out[i] = e.drawable
	}
	return out
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(o light.Light) bool { return o == l })
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) Cull(params CullingParameters) (CullingResults, bool) {
	if params.Far <= params.Near {
		return nil, false
	}
	viewProj := common.Mul(params.Projection, params.View)
	var inv [16]float32
	if !common.Invert4(inv[:], viewProj[:]) {
		return nil, false
	}
	frustum := common.ExtractFrustumFromMatrix(viewProj[:])

	s.mu.RLock()
	all := make([]Drawable, len(s.drawables))
	for i, e := range s.drawables {
		all[i] = e.drawable
	}
	lights := slices.Clone(s.lights)
	s.mu.RUnlock()

	visible := make([]bool, len(all))
	var wg sync.WaitGroup
	for start := 0; start < len(all); start += s.chunkSize {
		end := min(start+s.chunkSize, len(all))
		wg.Add(1)
		s.cullPool.SubmitTask(worker.Task{
			ID: start,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					visible[i] = frustum.IntersectsBounds(all[i].Bounds)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	r := &cullingResults{
		params:    params,
		casters:   all,
		drawables: make([]Drawable, 0, len(all)),
	}
	for i, d := range all {
		if visible[i] {
			r.drawables = append(r.drawables, d)
		}
	}
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		if l.Type() != light.LightTypeDirectional && !frustum.ContainsSphere(l.Position(), l.Range()) {
			continue
		}
		r.lights = append(r.lights, l)
	}

	common.Logger().Debug("scene: culled",
		"scene", s.Name(), "drawables", len(all), "visible", len(r.drawables), "lights", len(r.lights))
	return r, true
}

func (s *scene) Close() {
	s.cullPool.Stop()
}
