package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// DrawHandler turns opaque draw commands into GPU draws. It is called with an open
// render pass on the currently bound targets. Shading lives with the host application.
type DrawHandler interface {
	// Draw encodes one draw command.
	//
	// Parameters:
	//   - pass: the open render pass
	//   - cmd: a CmdDrawRendererList, CmdDrawShadows, CmdDrawProcedural, CmdDrawSkybox or CmdDrawGizmos command
	//   - state: the bound targets, globals and matrices at the time of the draw
	//
	// Returns:
	//   - error: an error aborts execution of the command buffer
	Draw(pass *wgpu.RenderPassEncoder, cmd Command, state *DrawState) error
}

// DrawState is the pipeline state accumulated while executing a command buffer.
type DrawState struct {
	Colors   []Texture
	Depth    Texture
	Viewport common.Rect

	View       [16]float32
	Projection [16]float32

	DepthBias      float32
	SlopeScaleBias float32

	Globals Globals
}

// Globals holds the named shader globals set by a command buffer.
type Globals struct {
	Textures     map[string]Texture
	Floats       map[string]float32
	Ints         map[string]int
	Vectors      map[string]common.Vec4
	VectorArrays map[string][]common.Vec4
	MatrixArrays map[string][][16]float32
	Keywords     map[string]bool
}

func newGlobals() Globals {
	return Globals{
		Textures:     make(map[string]Texture),
		Floats:       make(map[string]float32),
		Ints:         make(map[string]int),
		Vectors:      make(map[string]common.Vec4),
		VectorArrays: make(map[string][]common.Vec4),
		MatrixArrays: make(map[string][][16]float32),
		Keywords:     make(map[string]bool),
	}
}

// apply records a global setter. It reports false for commands that are not global setters.
func (g *Globals) apply(c Command) bool {
	switch c.Type {
	case CmdSetGlobalTexture:
		g.Textures[c.Name] = c.Texture
	case CmdSetGlobalFloat:
		g.Floats[c.Name] = c.Float
	case CmdSetGlobalInt:
		g.Ints[c.Name] = c.Int
	case CmdSetGlobalVector:
		g.Vectors[c.Name] = c.Vector
	case CmdSetGlobalVectorArray:
		g.VectorArrays[c.Name] = c.Vectors
	case CmdSetGlobalMatrixArray:
		g.MatrixArrays[c.Name] = c.Matrices
	case CmdSetKeyword:
		g.Keywords[c.Name] = c.Enabled
	default:
		return false
	}
	return true
}

type wgpuTexture struct {
	id     uint64
	desc   TextureDescriptor
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	device *WGPUDevice
	owned  bool
}

func (t *wgpuTexture) ID() uint64 { return t.id }

func (t *wgpuTexture) Descriptor() TextureDescriptor { return t.desc }

func (t *wgpuTexture) Release() {
	if t.owned {
		return
	}
	t.device.mu.Lock()
	defer t.device.mu.Unlock()
	t.release()
}

func (t *wgpuTexture) release() {
	if t.tex == nil {
		return
	}
	delete(t.device.live, t.id)
	t.view.Release()
	t.tex.Release()
	t.view = nil
	t.tex = nil
}

// WGPUDevice is the WebGPU implementation of Device. Commands are encoded into a
// single frame encoder that Submit finishes and presents.
type WGPUDevice struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	width, height int

	presentMode          wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	forceFallbackAdapter bool
	handler              DrawHandler

	// Frame state, reset by Submit.
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameTarget  *wgpuTexture
	state        DrawState

	nextID      uint64
	live        map[uint64]*wgpuTexture
	closed      bool
	warnedDraws bool
}

var _ Device = &WGPUDevice{}

// NewWGPUDevice creates the instance, surface, adapter and device. Like the rest of
// GPU initialization it panics when no adapter or device is available.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window
//   - opts: functional options
//
// Returns:
//   - *WGPUDevice: the device, with an unconfigured surface
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, opts ...WGPUDeviceOption) *WGPUDevice {
	runtime.LockOSThread()
	d := &WGPUDevice{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		live:        make(map[uint64]*wgpuTexture),
		state:       DrawState{Globals: newGlobals()},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		panic(err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Ink Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	common.Logger().Info("wgpu device created")
	return d
}

// ConfigureSurface (re)configures the swapchain for the given framebuffer size.
func (d *WGPUDevice) ConfigureSurface(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configureSurface(width, height)
}

func (d *WGPUDevice) configureSurface(width, height int) {
	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]
	d.width, d.height = width, height

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

// SetPresentMode sets the surface present mode. It takes effect at the next ConfigureSurface.
func (d *WGPUDevice) SetPresentMode(mode PresentMode) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		d.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		d.presentMode = wgpu.PresentModeImmediate
	}
}

// SetDrawHandler replaces the handler that encodes draw commands.
func (d *WGPUDevice) SetDrawHandler(h DrawHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

// Device returns the underlying WebGPU device for host side pipeline creation.
func (d *WGPUDevice) Device() *wgpu.Device {
	return d.device
}

// Queue returns the device queue.
func (d *WGPUDevice) Queue() *wgpu.Queue {
	return d.queue
}

func toWGPUFormat(f gputypes.TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case gputypes.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm, nil
	case gputypes.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float, nil
	case gputypes.TextureFormatRG8Unorm:
		return wgpu.TextureFormatRG8Unorm, nil
	case gputypes.TextureFormatRG16Float:
		return wgpu.TextureFormatRG16Float, nil
	case gputypes.TextureFormatR8Unorm:
		return wgpu.TextureFormatR8Unorm, nil
	case gputypes.TextureFormatDepth16Unorm:
		return wgpu.TextureFormatDepth16Unorm, nil
	case gputypes.TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus, nil
	case gputypes.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float, nil
	}
	return 0, fmt.Errorf("renderer: unsupported texture format %v", f)
}

func (d *WGPUDevice) createTexture(desc TextureDescriptor, usage wgpu.TextureUsage) (*wgpuTexture, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	if d.closed {
		return nil, ErrDeviceClosed
	}
	format, err := toWGPUFormat(desc.EffectiveFormat())
	if err != nil {
		return nil, err
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view %q: %w", desc.Label, err)
	}

	d.nextID++
	t := &wgpuTexture{id: d.nextID, desc: desc, tex: tex, view: view, device: d}
	d.live[t.id] = t
	return t, nil
}

func (d *WGPUDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding |
		wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	return d.createTexture(desc, usage)
}

func (d *WGPUDevice) UploadTexture(desc TextureDescriptor, pixels []byte) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc.Format = gputypes.TextureFormatRGBA8Unorm
	desc.DepthBits = DepthNone
	if want := desc.Width * desc.Height * 4; len(pixels) < want {
		return nil, fmt.Errorf("upload texture %q: have %d bytes, need %d", desc.Label, len(pixels), want)
	}

	t, err := d.createTexture(desc, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(desc.Width * 4),
			RowsPerImage: uint32(desc.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return t, nil
}

// CameraTarget acquires the swapchain image for this frame on first use. A size
// different from the configured one reconfigures the surface first.
func (d *WGPUDevice) CameraTarget(width, height int) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDeviceClosed
	}
	if d.frameTarget != nil {
		return d.frameTarget, nil
	}
	if width != d.width || height != d.height {
		d.configureSurface(width, height)
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("create surface view: %w", err)
	}

	d.nextID++
	d.frameSurface = surfaceTexture
	d.frameTarget = &wgpuTexture{
		id: d.nextID,
		desc: TextureDescriptor{
			Label:  "CameraTarget",
			Width:  width,
			Height: height,
			Format: gputypes.TextureFormatBGRA8Unorm,
		},
		tex:    surfaceTexture,
		view:   view,
		device: d,
		owned:  true,
	}
	return d.frameTarget, nil
}

func (d *WGPUDevice) ExecuteCommandBuffer(cb *CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}
	if d.encoder == nil {
		encoder, err := d.device.CreateCommandEncoder(nil)
		if err != nil {
			return fmt.Errorf("create command encoder: %w", err)
		}
		d.encoder = encoder
	}

	defer d.endPass()
	for i, c := range cb.Commands() {
		if err := d.execute(c); err != nil {
			return fmt.Errorf("command buffer %q: command %d (%s): %w", cb.Name(), i, c.Type, err)
		}
	}
	return nil
}

func (d *WGPUDevice) execute(c Command) error {
	if d.state.Globals.apply(c) {
		return nil
	}

	switch c.Type {
	case CmdSetRenderTarget:
		d.endPass()
		d.state.Colors = c.Colors
		d.state.Depth = c.Depth
	case CmdClearRenderTarget:
		d.endPass()
		return d.beginPass(c.ClearColor, c.ClearDepth, c.Color)
	case CmdSetViewport:
		d.state.Viewport = c.Viewport
		d.applyViewport()
	case CmdSetViewProjectionMatrices:
		d.state.View = c.View
		d.state.Projection = c.Projection
	case CmdSetGlobalDepthBias:
		d.state.DepthBias = c.DepthBias
		d.state.SlopeScaleBias = c.SlopeScaleBias
	case CmdDrawRendererList, CmdDrawShadows, CmdDrawProcedural, CmdDrawSkybox, CmdDrawGizmos:
		if d.handler == nil {
			if !d.warnedDraws {
				common.Logger().Warn("wgpu device has no draw handler, draws are skipped")
				d.warnedDraws = true
			}
			return nil
		}
		if d.pass == nil {
			if err := d.beginPass(false, false, common.ClearColor); err != nil {
				return err
			}
		}
		return d.handler.Draw(d.pass, c, &d.state)
	case CmdCopyTexture:
		d.endPass()
		src, err := d.native(c.Texture)
		if err != nil {
			return err
		}
		dst, err := d.native(c.Dest)
		if err != nil {
			return err
		}
		d.encoder.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: src.tex, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyTexture{Texture: dst.tex, Aspect: wgpu.TextureAspectAll},
			&wgpu.Extent3D{
				Width:              uint32(min(src.desc.Width, dst.desc.Width)),
				Height:             uint32(min(src.desc.Height, dst.desc.Height)),
				DepthOrArrayLayers: 1,
			},
		)
	case CmdBeginSample, CmdEndSample:
		// CPU side timings are taken by the profiler.
	}
	return nil
}

func (d *WGPUDevice) native(t Texture) (*wgpuTexture, error) {
	wt, ok := t.(*wgpuTexture)
	if !ok || wt == nil {
		return nil, fmt.Errorf("renderer: texture %T does not belong to this device", t)
	}
	if wt.tex == nil {
		return nil, fmt.Errorf("%w: %q", ErrTextureReleased, wt.desc.Label)
	}
	return wt, nil
}

func (d *WGPUDevice) beginPass(clearColor, clearDepth bool, color common.Color) error {
	desc := &wgpu.RenderPassDescriptor{}

	colorLoad := wgpu.LoadOpLoad
	if clearColor {
		colorLoad = wgpu.LoadOpClear
	}
	for _, t := range d.state.Colors {
		wt, err := d.native(t)
		if err != nil {
			return err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:    wt.view,
			LoadOp:  colorLoad,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(color.R), G: float64(color.G), B: float64(color.B), A: float64(color.A),
			},
		})
	}

	if d.state.Depth != nil {
		wt, err := d.native(d.state.Depth)
		if err != nil {
			return err
		}
		depthLoad := wgpu.LoadOpLoad
		if clearDepth {
			depthLoad = wgpu.LoadOpClear
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            wt.view,
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}

	d.pass = d.encoder.BeginRenderPass(desc)
	d.applyViewport()
	return nil
}

func (d *WGPUDevice) applyViewport() {
	v := d.state.Viewport
	if d.pass == nil || v.Width <= 0 || v.Height <= 0 {
		return
	}
	d.pass.SetViewport(v.X, v.Y, v.Width, v.Height, 0, 1)
}

func (d *WGPUDevice) endPass() {
	if d.pass == nil {
		return
	}
	d.pass.End()
	d.pass = nil
}

// Submit finishes the frame encoder, submits it and presents the acquired surface image.
func (d *WGPUDevice) Submit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}
	defer d.resetFrame()

	if d.encoder != nil {
		d.endPass()
		commandBuffer, err := d.encoder.Finish(nil)
		if err != nil {
			return fmt.Errorf("finish frame encoder: %w", err)
		}
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	if d.frameSurface != nil {
		d.surface.Present()
	}
	return nil
}

func (d *WGPUDevice) resetFrame() {
	if d.encoder != nil {
		d.encoder.Release()
		d.encoder = nil
	}
	if d.frameTarget != nil {
		d.frameTarget.view.Release()
		d.frameTarget = nil
	}
	if d.frameSurface != nil {
		d.frameSurface.Release()
		d.frameSurface = nil
	}
	d.state = DrawState{Globals: newGlobals()}
}

func (d *WGPUDevice) ReversedZ() bool {
	return false
}

func (d *WGPUDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.resetFrame()
	for _, t := range d.live {
		t.release()
	}
	d.closed = true
	d.device.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
}
