// Package rendergraph schedules a frame's render passes. Passes declare the
// textures they read and write, the graph culls passes whose output nobody
// consumes, allocates textures lazily from a pool and runs the survivors in
// declaration order.
package rendergraph

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

// DefaultPoolRetentionFrames is the number of frames an unused pooled texture survives.
const DefaultPoolRetentionFrames = 3

// RecordParams are the per camera inputs of RecordAndExecute.
type RecordParams struct {
	// CommandBuffer receives every command recorded by the passes.
	CommandBuffer *renderer.CommandBuffer
}

// Stats describes the last RecordAndExecute call.
type Stats struct {
	Passes      int
	Executed    int
	Culled      int
	CulledNames []string

	// Allocated counts textures created on the device, Reused counts pool hits.
	Allocated int
	Reused    int
}

type resourceKind int

const (
	kindTransient resourceKind = iota
	kindImported
	kindDefaultShadow
)

type textureResource struct {
	desc     renderer.TextureDescriptor
	kind     resourceKind
	physical renderer.Texture

	// first and last surviving pass touching the texture, -1 when none.
	firstUse int
	lastUse  int
}

type listResource struct {
	list     renderer.RendererList
	producer int
}

// Graph is a render graph bound to one device. It is not safe for concurrent use;
// cameras are recorded one after another on the render goroutine.
type Graph struct {
	device              renderer.Device
	pool                *texturePool
	retention           int
	rendererListCulling bool
	observer            func(string, time.Duration)

	defaultShadow renderer.Texture

	frame      uint64
	generation uint64
	recording  bool
	executing  bool

	textures []*textureResource
	lists    []*listResource
	passes   []*pass

	stats Stats
}

// NewGraph creates a render graph allocating from device.
//
// Parameters:
//   - device: the device textures are created on
//   - opts: functional options
//
// Returns:
//   - *Graph: the graph
func NewGraph(device renderer.Device, opts ...GraphBuilderOption) *Graph {
	g := &Graph{
		device:              device,
		pool:                newTexturePool(device),
		retention:           DefaultPoolRetentionFrames,
		rendererListCulling: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Frame returns the number of EndFrame calls so far.
func (g *Graph) Frame() uint64 {
	return g.frame
}

// Stats returns statistics of the last RecordAndExecute call.
func (g *Graph) Stats() Stats {
	return g.stats
}

// PooledTextures returns the number of free textures held by the pool.
func (g *Graph) PooledTextures() int {
	return g.pool.free
}

// RecordAndExecute calls record to declare the camera's passes, compiles the graph
// and runs every surviving pass. Handles become invalid when it returns.
//
// Contract violations raised by record or by a pass propagate as panics after the
// graph has returned its textures to the pool.
//
// Parameters:
//   - params: the per camera inputs
//   - record: declares resources and passes through the Recorder
//
// Returns:
//   - error: a texture allocation failure or an error reported by a pass
func (g *Graph) RecordAndExecute(params RecordParams, record func(*Recorder)) error {
	if params.CommandBuffer == nil {
		return fmt.Errorf("rendergraph: RecordAndExecute requires a command buffer")
	}
	if g.recording || g.executing {
		violate("", "RecordAndExecute", fmt.Errorf("nested recording"))
	}

	g.generation++
	g.recording = true
	g.stats = Stats{}
	defer g.reset()

	rec := &Recorder{graph: g, gen: g.generation}
	record(rec)
	g.recording = false

	g.compile()
	return g.execute(params.CommandBuffer)
}

// reset returns every transient texture to the pool and drops the recording.
func (g *Graph) reset() {
	for _, t := range g.textures {
		if t.kind == kindTransient && t.physical != nil {
			g.pool.put(t.physical, g.frame)
		}
	}
	clear(g.textures)
	clear(g.lists)
	clear(g.passes)
	g.textures = g.textures[:0]
	g.lists = g.lists[:0]
	g.passes = g.passes[:0]
	g.recording = false
	g.executing = false
	g.generation++
}

func (g *Graph) execute(cmd *renderer.CommandBuffer) error {
	g.executing = true
	for _, p := range g.passes {
		if p.culled {
			continue
		}
		if err := g.allocate(p); err != nil {
			return fmt.Errorf("pass %q: %w", p.name, err)
		}

		start := time.Now()
		ctx := &Context{graph: g, pass: p, cmd: cmd, gen: g.generation}
		cmd.BeginSample(p.name)
		err := ctx.run()
		cmd.EndSample(p.name)
		if g.observer != nil {
			g.observer(p.name, time.Since(start))
		}
		g.stats.Executed++
		if err != nil {
			return fmt.Errorf("pass %q: %w", p.name, err)
		}

		g.releaseAfter(p)
	}
	return nil
}

func (g *Graph) allocate(p *pass) error {
	for _, idx := range p.touched() {
		t := g.textures[idx]
		if t.firstUse != p.index || t.physical != nil {
			continue
		}
		switch t.kind {
		case kindTransient:
			tex, reused, err := g.pool.get(t.desc)
			if err != nil {
				return err
			}
			if reused {
				g.stats.Reused++
			} else {
				g.stats.Allocated++
			}
			t.physical = tex
		case kindDefaultShadow:
			if g.defaultShadow == nil {
				tex, err := g.device.CreateTexture(t.desc)
				if err != nil {
					return fmt.Errorf("allocate default shadow texture: %w", err)
				}
				g.defaultShadow = tex
				g.stats.Allocated++
			}
			t.physical = g.defaultShadow
		}
	}
	return nil
}

func (g *Graph) releaseAfter(p *pass) {
	for _, idx := range p.touched() {
		t := g.textures[idx]
		if t.kind != kindTransient || t.lastUse != p.index || t.physical == nil {
			continue
		}
		g.pool.put(t.physical, g.frame)
		t.physical = nil
	}
}

// EndFrame closes a multi camera frame: it advances the frame counter and releases
// pooled textures that went unused for the retention window.
func (g *Graph) EndFrame() {
	if g.recording || g.executing {
		violate("", "EndFrame", ErrNotRecording)
	}
	g.frame++
	g.pool.evict(g.frame, g.retention)
}

// Cleanup releases every pooled texture and the default shadow texture.
func (g *Graph) Cleanup() {
	g.pool.releaseAll()
	if g.defaultShadow != nil {
		g.defaultShadow.Release()
		g.defaultShadow = nil
	}
	common.Logger().Debug("rendergraph: cleaned up")
}

func (g *Graph) checkTexture(passName, op string, h TextureHandle) *textureResource {
	if h.owner != g || h.gen != g.generation || h.index < 0 || h.index >= len(g.textures) {
		violate(passName, op, ErrStaleHandle)
	}
	return g.textures[h.index]
}

func (g *Graph) checkList(passName, op string, h RendererListHandle) *listResource {
	if h.owner != g || h.gen != g.generation || h.index < 0 || h.index >= len(g.lists) {
		violate(passName, op, ErrStaleHandle)
	}
	return g.lists[h.index]
}
