package custom

import "github.com/Carmen-Shannon/oxy-ink/engine/renderer"

// CameraRendererBuilderOption is a functional option applied to a camera renderer during construction.
type CameraRendererBuilderOption func(*cameraRendererImpl)

// WithMaterial sets the copy and post processing material.
//
// Parameters:
//   - m: the material, nil keeps the default
//
// Returns:
//   - CameraRendererBuilderOption: a function that applies the material option
func WithMaterial(m *renderer.Material) CameraRendererBuilderOption {
	return func(cr *cameraRendererImpl) {
		if m != nil {
			cr.material = m
		}
	}
}

// WithEdgeBreakupTexture sets the edge breakup warp texture. The caller keeps ownership.
func WithEdgeBreakupTexture(tex renderer.Texture) CameraRendererBuilderOption {
	return func(cr *cameraRendererImpl) {
		cr.edgeBreakupTexture = tex
	}
}
