// Package pipeline drives frames. For every camera it culls the scene, records
// the camera's passes into the render graph, executes and submits the pooled
// command buffer, and closes the frame once all cameras are done.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	trylock "github.com/subchen/go-trylock/v2"
)

// ErrFrameInFlight is returned when the camera renderer cannot be swapped
// because a frame did not finish in time.
var ErrFrameInFlight = errors.New("pipeline: frame in flight")

// CameraContext is everything a camera renderer needs to record one camera.
type CameraContext struct {
	Camera  camera.Camera
	Culling scene.CullingResults

	// Target is the presentable texture of the camera, owned by the device.
	Target renderer.Texture

	// Time is the time in seconds since the pipeline was created.
	Time float64

	ReversedZ bool
}

// CameraRenderer records the passes of one pipeline variant.
type CameraRenderer interface {
	// MaxShadowDistance returns the configured shadow distance. Cameras clamp it to their far plane.
	MaxShadowDistance() float32

	// Record declares the camera's passes.
	//
	// Parameters:
	//   - r: the recorder of the camera
	//   - c: the camera context
	Record(r *rendergraph.Recorder, c *CameraContext)
}

type pipelineImpl struct {
	frameLock trylock.TryLocker

	device  renderer.Device
	scene   scene.Scene
	cr      CameraRenderer
	graph   *rendergraph.Graph
	buffers *renderer.CommandBufferPool

	strict       bool
	graphOptions []rendergraph.GraphBuilderOption
	start        time.Time
	now          func() time.Time
}

// Pipeline renders the cameras of a scene frame by frame. Render and
// SetCameraRenderer may be called from different goroutines.
type Pipeline interface {
	// Render renders every camera in order and ends the frame. A camera whose
	// culling fails is skipped.
	//
	// Parameters:
	//   - cameras: the cameras to render
	//
	// Returns:
	//   - error: the joined errors of the cameras that failed
	Render(cameras ...camera.Camera) error

	// SetCameraRenderer swaps the camera renderer between frames.
	//
	// Parameters:
	//   - ctx: bounds how long to wait for a frame in flight
	//   - cr: the new camera renderer
	//
	// Returns:
	//   - error: ErrFrameInFlight when ctx expires first
	SetCameraRenderer(ctx context.Context, cr CameraRenderer) error

	// IsRendering reports whether a frame is in flight.
	IsRendering() bool

	// Graph returns the render graph.
	Graph() *rendergraph.Graph

	// Close releases the graph's resources. The device is left open.
	Close()
}

var _ Pipeline = &pipelineImpl{}

// NewPipeline creates a pipeline rendering sc on device with cr.
//
// Panics if any argument is nil.
//
// Parameters:
//   - device: the GPU device
//   - sc: the scene to cull
//   - cr: the camera renderer
//   - options: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the new pipeline
func NewPipeline(device renderer.Device, sc scene.Scene, cr CameraRenderer, options ...PipelineBuilderOption) Pipeline {
	if device == nil || sc == nil || cr == nil {
		panic("pipeline: NewPipeline requires a device, a scene and a camera renderer")
	}
	p := &pipelineImpl{
		frameLock: trylock.New(),
		device:    device,
		scene:     sc,
		cr:        cr,
		buffers:   renderer.NewCommandBufferPool(),
		strict:    strictContractsDefault,
		now:       time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.graph = rendergraph.NewGraph(device, append([]rendergraph.GraphBuilderOption{
		rendergraph.WithRendererListCulling(true),
	}, p.graphOptions...)...)
	p.start = p.now()
	return p
}

func (p *pipelineImpl) Render(cameras ...camera.Camera) error {
	p.frameLock.Lock()
	defer p.frameLock.Unlock()

	var errs []error
	for _, cam := range cameras {
		if err := p.renderCamera(cam); err != nil {
			errs = append(errs, fmt.Errorf("pipeline: camera %q: %w", cam.Name(), err))
		}
	}
	p.graph.EndFrame()
	return errors.Join(errs...)
}

func (p *pipelineImpl) renderCamera(cam camera.Camera) error {
	cull, ok := p.scene.Cull(cam.CullingParameters(p.cr.MaxShadowDistance()))
	if !ok {
		common.Logger().Debug("pipeline: culling failed, camera skipped", "camera", cam.Name())
		return nil
	}

	size := cam.PixelSize()
	target, err := p.device.CameraTarget(size.X, size.Y)
	if err != nil {
		return fmt.Errorf("camera target: %w", err)
	}

	cmd := p.buffers.Get(cam.Name())
	defer p.buffers.Release(cmd)

	c := &CameraContext{
		Camera:    cam,
		Culling:   cull,
		Target:    target,
		Time:      p.now().Sub(p.start).Seconds(),
		ReversedZ: p.device.ReversedZ(),
	}
	if err := p.record(cmd, c); err != nil {
		return err
	}
	if err := p.device.ExecuteCommandBuffer(cmd); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if err := p.device.Submit(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// record runs the camera renderer through the graph. Outside strict mode a
// contract violation drops the camera's commands and clears its target to the
// background color instead.
func (p *pipelineImpl) record(cmd *renderer.CommandBuffer, c *CameraContext) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		cv, ok := rendergraph.AsContractViolation(r)
		if !ok || p.strict {
			panic(r)
		}
		common.Logger().Error("pipeline: contract violation, camera cleared", "camera", c.Camera.Name(), "err", cv)
		cmd.Clear()
		cmd.SetRenderTarget([]renderer.Texture{c.Target}, nil)
		cmd.ClearRenderTarget(true, true, c.Camera.BackgroundColor())
		err = nil
	}()

	cr := p.cr
	return p.graph.RecordAndExecute(rendergraph.RecordParams{CommandBuffer: cmd}, func(r *rendergraph.Recorder) {
		cr.Record(r, c)
	})
}

func (p *pipelineImpl) SetCameraRenderer(ctx context.Context, cr CameraRenderer) error {
	if cr == nil {
		return fmt.Errorf("pipeline: nil camera renderer")
	}
	if !p.frameLock.TryLock(ctx) {
		return ErrFrameInFlight
	}
	defer p.frameLock.Unlock()
	p.cr = cr
	return nil
}

func (p *pipelineImpl) IsRendering() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if p.frameLock.RTryLock(ctx) {
		p.frameLock.RUnlock()
		return false
	}
	return true
}

func (p *pipelineImpl) Graph() *rendergraph.Graph {
	return p.graph
}

func (p *pipelineImpl) Close() {
	p.frameLock.Lock()
	defer p.frameLock.Unlock()
	p.graph.Cleanup()
}
