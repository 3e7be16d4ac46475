package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithShaderTags sets the shader passes of drawables whose material names none.
//
// Parameters:
//   - tags: the shader tags, e.g. "CustomLit"
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithShaderTags(tags ...string) LoaderBuilderOption {
	return func(l *loader) {
		l.defaults.ShaderTags = tags
	}
}

// WithRenderingLayerMask sets the default rendering layers of imported drawables.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithRenderingLayerMask(mask uint32) LoaderBuilderOption {
	return func(l *loader) {
		l.defaults.RenderingLayerMask = mask
	}
}

// WithCastShadows sets whether imported drawables cast shadows by default.
func WithCastShadows(cast bool) LoaderBuilderOption {
	return func(l *loader) {
		l.defaults.CastShadows = cast
	}
}

// WithScene pre-populates the cache with an import.
//
// Parameters:
//   - key: the cache key
//   - s: the imported scene
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithScene(key string, s *ImportedScene) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = s
	}
}
