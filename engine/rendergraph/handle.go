package rendergraph

// TextureHandle is a frame scoped reference to a logical texture. The zero value is invalid.
type TextureHandle struct {
	index int
	gen   uint64
	owner *Graph
}

// IsValid reports whether the handle was returned by a graph. It does not check staleness.
func (h TextureHandle) IsValid() bool {
	return h.owner != nil
}

// RendererListHandle is a frame scoped reference to a renderer list. The zero value is invalid.
type RendererListHandle struct {
	index int
	gen   uint64
	owner *Graph
}

// IsValid reports whether the handle was returned by a graph. It does not check staleness.
func (h RendererListHandle) IsValid() bool {
	return h.owner != nil
}
