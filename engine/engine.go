package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/config"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-ink/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
	"github.com/Carmen-Shannon/oxy-ink/engine/window"
)

// SwapTimeout bounds how long a settings reload waits for the frame in flight.
const SwapTimeout = time.Second

// surfaceConfigurer is implemented by devices presenting to a window surface.
type surfaceConfigurer interface {
	ConfigureSurface(width, height int)
}

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	mu *sync.Mutex

	window   window.Window
	device   renderer.Device
	scene    scene.Scene
	cameras  []camera.Camera
	pipeline pipeline.Pipeline

	settings     config.Settings
	settingsPath string
	watcher      config.Watcher
	release      func()

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickRateChannel  chan time.Duration
	engineTickRate   time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
	closeOnce   sync.Once
}

// Engine drives a scene through the render pipeline. It runs a fixed rate tick
// loop for game logic and a render loop that renders every camera each frame,
// and swaps the camera renderer when the settings file changes.
type Engine interface {
	// Window returns the window, nil for a headless engine.
	Window() window.Window

	// Device returns the render device.
	Device() renderer.Device

	// Scene returns the rendered scene.
	Scene() scene.Scene

	// Pipeline returns the render pipeline.
	Pipeline() pipeline.Pipeline

	// Settings returns the settings the current camera renderer was built from.
	Settings() config.Settings

	// ApplySettings builds a camera renderer from s and swaps it in between frames.
	//
	// Parameters:
	//   - s: the new settings
	//
	// Returns:
	//   - error: a build error or pipeline.ErrFrameInFlight, the previous renderer is kept
	ApplySettings(s config.Settings) error

	// AddCamera appends a camera. Cameras render in the order they were added.
	//
	// Parameters:
	//   - c: the camera
	AddCamera(c camera.Camera)

	// Cameras returns a copy of the camera list.
	Cameras() []camera.Camera

	// Profiler returns the frame and pass profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called before each rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the engine. With a window it blocks on the window message loop
	// until the window closes, otherwise until Quit. Resources are released when
	// Run returns.
	Run()

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine rendering sc. Without WithDevice a window is
// required and a WebGPU device is created on its surface.
//
// Parameters:
//   - sc: the scene to render
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: a settings, device or pipeline error
func NewEngine(sc scene.Scene, options ...EngineBuilderOption) (Engine, error) {
	if sc == nil {
		return nil, errors.New("engine: a scene is required")
	}
	e := &engine{
		mu:              &sync.Mutex{},
		scene:           sc,
		settings:        config.DefaultSettings(),
		profiler:        profiler.NewProfiler(time.Second),
		tickRateChannel: make(chan time.Duration, 1),
		engineTickRate:  time.Second / 60,
		quitChannel:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.device == nil {
		if e.window == nil {
			return nil, errors.New("engine: a window or a device is required")
		}
		dev := renderer.NewWGPUDevice(e.window.SurfaceDescriptor())
		size := e.window.FramebufferSize()
		dev.ConfigureSurface(size.X, size.Y)
		e.device = dev
	}

	if e.settingsPath != "" {
		w, err := config.NewWatcher(e.settingsPath, config.WithOnChange(e.onSettingsChanged))
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.watcher = w
		e.settings = w.Settings()
	}

	cr, release, err := e.settings.Build(e.device)
	if err != nil {
		e.closeWatcher()
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.release = release
	e.pipeline = pipeline.NewPipeline(e.device, sc, cr,
		pipeline.WithStrictContracts(e.settings.StrictContracts()),
		pipeline.WithGraphOptions(rendergraph.WithPassObserver(e.observePass)),
	)

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		e.window.SetInputCallback(e.handleInput)
	}
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Device() renderer.Device {
	return e.device
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Pipeline() pipeline.Pipeline {
	return e.pipeline
}

func (e *engine) Settings() config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Clone()
}

func (e *engine) ApplySettings(s config.Settings) error {
	cr, release, err := s.Build(e.device)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), SwapTimeout)
	defer cancel()
	if err := e.pipeline.SetCameraRenderer(ctx, cr); err != nil {
		release()
		return err
	}

	e.mu.Lock()
	old := e.release
	e.settings, e.release = s, release
	e.mu.Unlock()
	old()
	return nil
}

func (e *engine) onSettingsChanged(s config.Settings) {
	if err := e.ApplySettings(s); err != nil {
		common.Logger().Error("engine: settings not applied", "error", err)
		return
	}
	common.Logger().Info("engine: camera renderer swapped", "pipeline", s.Pipeline)
}

func (e *engine) observePass(name string, elapsed time.Duration) {
	e.mu.Lock()
	enabled := e.profilingEnabled
	e.mu.Unlock()
	if enabled {
		e.profiler.ObservePass(name, elapsed)
	}
}

func (e *engine) AddCamera(c camera.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cameras = append(e.cameras, c)
}

func (e *engine) Cameras() []camera.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]camera.Camera(nil), e.cameras...)
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// resize reconfigures the surface and resizes every game camera.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if sc, ok := e.device.(surfaceConfigurer); ok {
		sc.ConfigureSurface(width, height)
	}
	for _, c := range e.Cameras() {
		if c.Type() == camera.CameraTypeGame {
			c.SetPixelSize(width, height)
		}
	}
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.close()
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the tick and render goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleTick()
	go e.handleRender()
}

// handleTick fires the tick callback at the configured rate and listens for
// rate changes. Exits when the quit channel is closed.
func (e *engine) handleTick() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.Lock()
			fn := e.tickCallback
			e.mu.Unlock()
			if fn != nil {
				fn(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// handleRender renders every camera once per frame until quit. A panic that
// escapes the pipeline stops the engine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("engine: render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastRender).Seconds())
		lastRender = frameStart

		e.mu.Lock()
		renderCallback := e.renderCallback
		profiling := e.profilingEnabled
		limit := e.renderFrameLimit
		e.mu.Unlock()

		if renderCallback != nil {
			renderCallback(dt)
		}
		cams := e.Cameras()
		for _, c := range cams {
			c.Update()
		}
		if err := e.pipeline.Render(cams...); err != nil {
			common.Logger().Error("engine: frame failed", "frame", e.pipeline.Graph().Frame(), "error", err)
		}
		if profiling {
			e.profiler.Tick()
		}

		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// close releases the watcher, pipeline, noise texture, device and window.
func (e *engine) close() {
	e.closeOnce.Do(func() {
		e.closeWatcher()
		e.pipeline.Close()
		e.mu.Lock()
		release := e.release
		e.mu.Unlock()
		release()
		e.device.Close()
		if e.window != nil {
			if err := e.window.Close(); err != nil {
				common.Logger().Warn("engine: close window", "error", err)
			}
		}
	})
}

func (e *engine) closeWatcher() {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Close(); err != nil {
		common.Logger().Warn("engine: close settings watcher", "error", err)
	}
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()
	// Replace a pending update the tick loop has not read yet.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
