package pipeline

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
)

// PipelineBuilderOption is a functional option for configuring a Pipeline.
type PipelineBuilderOption func(*pipelineImpl)

// WithStrictContracts re-panics render graph contract violations instead of
// clearing the camera. Defaults to true only in oxydebug builds.
//
// Parameters:
//   - strict: whether violations panic
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithStrictContracts(strict bool) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.strict = strict
	}
}

// WithGraphOptions passes options to the pipeline's render graph.
//
// Parameters:
//   - opts: the render graph options
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithGraphOptions(opts ...rendergraph.GraphBuilderOption) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.graphOptions = append(p.graphOptions, opts...)
	}
}

// WithClock replaces the time source used for the camera context time.
func WithClock(now func() time.Time) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.now = now
	}
}
