package scene

import "github.com/Carmen-Shannon/oxy-ink/engine/light"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithDrawables adds initial drawables to the scene. IDs are assigned in order
// starting at 1.
//
// Parameters:
//   - drawables: the drawables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDrawables(drawables ...Drawable) SceneBuilderOption {
	return func(s *scene) {
		for _, d := range drawables {
			s.addDrawable(d)
		}
	}
}

// WithLights adds initial lights to the scene. Nil lights are skipped.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used by Cull.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of culling workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.computeWorkers = max(n, 1)
	}
}

// WithCullChunkSize sets how many drawables one culling task tests. Defaults to 256.
//
// Parameters:
//   - n: drawables per task (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullChunkSize(n int) SceneBuilderOption {
	return func(s *scene) {
		s.chunkSize = max(n, 1)
	}
}
