package rendergraph

import "time"

// GraphBuilderOption is a functional option applied to a Graph during construction via NewGraph.
type GraphBuilderOption func(*Graph)

// WithPoolRetentionFrames sets how many frames a pooled texture may stay unused
// before EndFrame releases it.
//
// Parameters:
//   - frames: the retention window, negative values are treated as 0
//
// Returns:
//   - GraphBuilderOption: a function that applies the retention option to a graph
func WithPoolRetentionFrames(frames int) GraphBuilderOption {
	return func(g *Graph) {
		g.retention = max(frames, 0)
	}
}

// WithRendererListCulling toggles culling of passes whose renderer lists are all empty.
// It is enabled by default.
//
// Parameters:
//   - enabled: whether renderer list culling is active
//
// Returns:
//   - GraphBuilderOption: a function that applies the culling option to a graph
func WithRendererListCulling(enabled bool) GraphBuilderOption {
	return func(g *Graph) {
		g.rendererListCulling = enabled
	}
}

// WithPassObserver registers a callback invoked after each executed pass with its CPU recording time.
//
// Parameters:
//   - fn: the observer, called on the recording goroutine
//
// Returns:
//   - GraphBuilderOption: a function that applies the observer option to a graph
func WithPassObserver(fn func(pass string, elapsed time.Duration)) GraphBuilderOption {
	return func(g *Graph) {
		g.observer = fn
	}
}
