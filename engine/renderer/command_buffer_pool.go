package renderer

import "sync"

// CommandBufferPool recycles command buffers between cameras and frames.
type CommandBufferPool struct {
	pool sync.Pool
}

// NewCommandBufferPool returns an empty pool.
func NewCommandBufferPool() *CommandBufferPool {
	return &CommandBufferPool{
		pool: sync.Pool{New: func() any { return &CommandBuffer{} }},
	}
}

// Get returns an empty command buffer named name.
func (p *CommandBufferPool) Get(name string) *CommandBuffer {
	cb := p.pool.Get().(*CommandBuffer)
	cb.name = name
	return cb
}

// Release clears cb and returns it to the pool. cb must not be used afterwards.
func (p *CommandBufferPool) Release(cb *CommandBuffer) {
	if cb == nil {
		return
	}
	cb.Clear()
	cb.name = ""
	p.pool.Put(cb)
}
