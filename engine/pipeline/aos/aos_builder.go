package aos

import "github.com/Carmen-Shannon/oxy-ink/engine/renderer"

// CameraRendererBuilderOption is a functional option applied to a camera renderer during construction.
type CameraRendererBuilderOption func(*cameraRendererImpl)

// WithMaterial sets the sail post processing material.
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

// WithWarpTexture sets the noise texture distorting the sail line work. The caller keeps ownership.
//
// Parameters:
//   - tex: the uploaded warp texture
//
// Returns:
//   - CameraRendererBuilderOption: a function that applies the warp texture option
func WithWarpTexture(tex renderer.Texture) CameraRendererBuilderOption {
	return func(cr *cameraRendererImpl) {
		cr.warpTexture = tex
	}
}
