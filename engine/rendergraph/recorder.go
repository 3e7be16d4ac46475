package rendergraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/gogpu/gputypes"
)

// Access is the way a pass uses a texture.
type Access uint8

const (
	AccessRead Access = 1 << iota
	AccessWrite

	AccessReadWrite = AccessRead | AccessWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read-write"
	}
	return "none"
}

type pass struct {
	name  string
	index int

	// accesses maps texture index to the declared access, order keeps declaration order.
	accesses map[int]Access
	order    []int

	uses      []int
	dependsOn []int
	force     bool
	render    func(*Context)

	culled bool
}

func (p *pass) touched() []int {
	return p.order
}

func (p *pass) declare(idx int, a Access) {
	if prev, ok := p.accesses[idx]; ok {
		p.accesses[idx] = prev | a
		return
	}
	p.accesses[idx] = a
	p.order = append(p.order, idx)
}

func (p *pass) usesList(idx int) bool {
	for _, u := range p.uses {
		if u == idx {
			return true
		}
	}
	return false
}

// Recorder declares the resources and passes of one RecordAndExecute call.
type Recorder struct {
	graph *Graph
	gen   uint64
}

func (r *Recorder) check(op string) {
	if !r.graph.recording || r.gen != r.graph.generation {
		violate("", op, ErrNotRecording)
	}
}

// CreateTexture declares a transient texture. It is allocated only if a surviving pass uses it.
//
// Parameters:
//   - desc: the texture descriptor
//
// Returns:
//   - TextureHandle: the handle, valid until RecordAndExecute returns
func (r *Recorder) CreateTexture(desc renderer.TextureDescriptor) TextureHandle {
	r.check("CreateTexture")
	if err := desc.Validate(); err != nil {
		violate("", "CreateTexture", fmt.Errorf("texture %q: %w", desc.Label, err))
	}
	return r.add(&textureResource{desc: desc, kind: kindTransient})
}

// CreateTextures declares count transient textures sharing desc, labelled with an index suffix.
func (r *Recorder) CreateTextures(desc renderer.TextureDescriptor, count int) []TextureHandle {
	handles := make([]TextureHandle, count)
	label := desc.Label
	for i := range handles {
		desc.Label = fmt.Sprintf("%s%d", label, i)
		handles[i] = r.CreateTexture(desc)
	}
	return handles
}

// ImportTexture wraps a texture owned outside the graph, such as the camera target.
// Passes writing an imported texture are never culled.
func (r *Recorder) ImportTexture(tex renderer.Texture) TextureHandle {
	r.check("ImportTexture")
	if tex == nil {
		violate("", "ImportTexture", fmt.Errorf("nil texture"))
	}
	return r.add(&textureResource{desc: tex.Descriptor(), kind: kindImported, physical: tex})
}

// DefaultShadowTexture returns a handle to the graph owned 1x1 shadow map bound when
// no light reserved shadows. The texture persists across frames until Cleanup.
func (r *Recorder) DefaultShadowTexture() TextureHandle {
	r.check("DefaultShadowTexture")
	return r.add(&textureResource{
		desc: renderer.TextureDescriptor{
			Label:       "DefaultShadowMap",
			Width:       1,
			Height:      1,
			Format:      gputypes.TextureFormatDepth32Float,
			DepthBits:   renderer.Depth32,
			IsShadowMap: true,
		},
		kind:     kindDefaultShadow,
		physical: r.graph.defaultShadow,
	})
}

func (r *Recorder) add(t *textureResource) TextureHandle {
	t.firstUse, t.lastUse = -1, -1
	g := r.graph
	g.textures = append(g.textures, t)
	return TextureHandle{index: len(g.textures) - 1, gen: r.gen, owner: g}
}

// CreateRendererList registers a renderer list with the graph.
func (r *Recorder) CreateRendererList(list renderer.RendererList) RendererListHandle {
	r.check("CreateRendererList")
	if list == nil {
		violate("", "CreateRendererList", fmt.Errorf("nil renderer list"))
	}
	g := r.graph
	g.lists = append(g.lists, &listResource{list: list, producer: -1})
	return RendererListHandle{index: len(g.lists) - 1, gen: r.gen, owner: g}
}

// RendererListIsEmpty reports whether the list behind h has nothing to draw.
func (r *Recorder) RendererListIsEmpty(h RendererListHandle) bool {
	r.check("RendererListIsEmpty")
	return r.graph.checkList("", "RendererListIsEmpty", h).list.IsEmpty()
}

// TextureDescriptor returns the descriptor of a declared texture.
func (r *Recorder) TextureDescriptor(h TextureHandle) renderer.TextureDescriptor {
	r.check("TextureDescriptor")
	return r.graph.checkTexture("", "TextureDescriptor", h).desc
}

// AddRenderPass declares a pass. setup runs immediately and must declare every
// resource the pass touches and set its render function.
//
// Parameters:
//   - name: the pass name, also used as its profiling sample
//   - setup: declares accesses through the PassBuilder
func (r *Recorder) AddRenderPass(name string, setup func(*PassBuilder)) {
	r.check("AddRenderPass")
	g := r.graph
	p := &pass{
		name:     name,
		index:    len(g.passes),
		accesses: make(map[int]Access),
	}
	b := &PassBuilder{recorder: r, pass: p}
	setup(b)
	b.done = true
	g.passes = append(g.passes, p)
}

// PassBuilder declares the accesses of one pass.
type PassBuilder struct {
	recorder *Recorder
	pass     *pass
	done     bool
}

func (b *PassBuilder) check(op string) {
	if b.done {
		violate(b.pass.name, op, fmt.Errorf("pass builder used after setup returned"))
	}
	b.recorder.check(op)
}

func (b *PassBuilder) access(op string, h TextureHandle, a Access) TextureHandle {
	b.check(op)
	b.recorder.graph.checkTexture(b.pass.name, op, h)
	b.pass.declare(h.index, a)
	return h
}

// ReadTexture declares that the pass samples h.
func (b *PassBuilder) ReadTexture(h TextureHandle) TextureHandle {
	return b.access("ReadTexture", h, AccessRead)
}

// WriteTexture declares that the pass renders into h without reading previous content.
func (b *PassBuilder) WriteTexture(h TextureHandle) TextureHandle {
	return b.access("WriteTexture", h, AccessWrite)
}

// ReadWriteTexture declares that the pass renders into h on top of its previous content.
func (b *PassBuilder) ReadWriteTexture(h TextureHandle) TextureHandle {
	return b.access("ReadWriteTexture", h, AccessReadWrite)
}

// ReadTextures declares reads of every handle in hs.
func (b *PassBuilder) ReadTextures(hs []TextureHandle) {
	for _, h := range hs {
		b.access("ReadTextures", h, AccessRead)
	}
}

// WriteTextures declares writes of every handle in hs.
func (b *PassBuilder) WriteTextures(hs []TextureHandle) {
	for _, h := range hs {
		b.access("WriteTextures", h, AccessWrite)
	}
}

// ReadWriteTextures declares read-writes of every handle in hs.
func (b *PassBuilder) ReadWriteTextures(hs []TextureHandle) {
	for _, h := range hs {
		b.access("ReadWriteTextures", h, AccessReadWrite)
	}
}

// UseRendererList declares that the pass draws l. The first pass using a list is its producer.
func (b *PassBuilder) UseRendererList(l RendererListHandle) RendererListHandle {
	b.check("UseRendererList")
	lr := b.recorder.graph.checkList(b.pass.name, "UseRendererList", l)
	if lr.producer < 0 {
		lr.producer = b.pass.index
	}
	if !b.pass.usesList(l.index) {
		b.pass.uses = append(b.pass.uses, l.index)
	}
	return l
}

// DependsOn orders the pass after the producer of l and culls it when the producer is culled.
func (b *PassBuilder) DependsOn(l RendererListHandle) {
	b.check("DependsOn")
	b.recorder.graph.checkList(b.pass.name, "DependsOn", l)
	b.pass.dependsOn = append(b.pass.dependsOn, l.index)
}

// AllowPassCulling(false) forces the pass to execute even when nothing reads its output.
func (b *PassBuilder) AllowPassCulling(allow bool) {
	b.check("AllowPassCulling")
	b.pass.force = !allow
}

// SetRenderFunc sets the function recording the pass's commands at execution time.
func (b *PassBuilder) SetRenderFunc(fn func(*Context)) {
	b.check("SetRenderFunc")
	b.pass.render = fn
}
