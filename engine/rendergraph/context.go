package rendergraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

// Context is handed to a pass's render function. It resolves declared handles to
// physical textures and hands out pooled temporaries. A Context is only valid
// during the render call it was passed to.
type Context struct {
	graph *Graph
	pass  *pass
	cmd   *renderer.CommandBuffer
	gen   uint64
	done  bool

	temps []*temporary
	err   error
}

type temporary struct {
	tex      renderer.Texture
	released bool
}

func (c *Context) run() (err error) {
	defer func() {
		c.releaseTemporaries()
		c.done = true
	}()
	c.pass.render(c)
	return c.err
}

func (c *Context) check(op string) {
	if c.done || c.gen != c.graph.generation {
		violate(c.pass.name, op, fmt.Errorf("context used outside its pass"))
	}
}

// PassName returns the name of the executing pass.
func (c *Context) PassName() string {
	return c.pass.name
}

// Cmd returns the command buffer the pass records into.
func (c *Context) Cmd() *renderer.CommandBuffer {
	return c.cmd
}

// Texture resolves a handle the pass declared to its physical texture.
func (c *Context) Texture(h TextureHandle) renderer.Texture {
	c.check("Texture")
	t := c.graph.checkTexture(c.pass.name, "Texture", h)
	if _, ok := c.pass.accesses[h.index]; !ok {
		violate(c.pass.name, "Texture", fmt.Errorf("%w: texture %q", ErrUndeclaredAccess, t.desc.Label))
	}
	return t.physical
}

// Textures resolves every handle in hs.
func (c *Context) Textures(hs []TextureHandle) []renderer.Texture {
	out := make([]renderer.Texture, len(hs))
	for i, h := range hs {
		out[i] = c.Texture(h)
	}
	return out
}

// RendererList resolves a list the pass declared with UseRendererList.
func (c *Context) RendererList(h RendererListHandle) renderer.RendererList {
	c.check("RendererList")
	l := c.graph.checkList(c.pass.name, "RendererList", h)
	if !c.pass.usesList(h.index) {
		violate(c.pass.name, "RendererList", fmt.Errorf("%w: renderer list %q", ErrUndeclaredAccess, l.list.Name()))
	}
	return l.list
}

// TemporaryTexture acquires a pooled texture for use within this pass. The returned
// release func may be called once the pass is done with it; anything still held when
// the pass returns is released by the graph. An allocation failure fails the pass and
// returns a nil texture.
//
// Parameters:
//   - desc: the texture descriptor
//
// Returns:
//   - renderer.Texture: the texture, nil on allocation failure
//   - func(): releases the texture back to the pool, safe to call more than once
func (c *Context) TemporaryTexture(desc renderer.TextureDescriptor) (renderer.Texture, func()) {
	c.check("TemporaryTexture")
	tex, reused, err := c.graph.pool.get(desc)
	if err != nil {
		c.Fail(fmt.Errorf("temporary texture: %w", err))
		return nil, func() {}
	}
	if reused {
		c.graph.stats.Reused++
	} else {
		c.graph.stats.Allocated++
	}

	tmp := &temporary{tex: tex}
	c.temps = append(c.temps, tmp)
	return tex, func() {
		if tmp.released {
			return
		}
		tmp.released = true
		c.graph.pool.put(tmp.tex, c.graph.frame)
	}
}

func (c *Context) releaseTemporaries() {
	for _, tmp := range c.temps {
		if tmp.released {
			continue
		}
		common.Logger().Warn("rendergraph: temporary texture leaked by pass",
			"pass", c.pass.name, "texture", tmp.tex.Descriptor().Label)
		tmp.released = true
		c.graph.pool.put(tmp.tex, c.graph.frame)
	}
	c.temps = nil
}

// Fail marks the pass as failed. RecordAndExecute stops after the pass and returns err.
func (c *Context) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}
