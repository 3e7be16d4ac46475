package window

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-ink/common"
)

// InputEventType is the kind of an InputEvent.
type InputEventType int

const (
	InputKeyDown InputEventType = iota
	InputKeyUp
	InputScroll
	InputDragStart
	InputDrag
	InputDragEnd
)

// InputEvent is one keyboard or mouse event delivered on the window thread.
type InputEvent struct {
	Type InputEventType

	// Key is set for key events.
	Key Key

	// Delta is the vertical scroll offset, positive away from the user.
	Delta float32

	// X and Y are the cursor position for drag start and end, and the cursor
	// movement since the previous event for InputDrag.
	X, Y float32
}

// Window hosts the presentation surface and forwards input. Escape closes it.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetInputCallback sets the function receiving keyboard and mouse events.
	//
	// Parameters:
	//   - callback: function receiving each event, nil to ignore input
	SetInputCallback(callback func(InputEvent))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for the native window,
	// created by the wgpuglfw bridge.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, nil once closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// FramebufferSize returns the framebuffer size in pixels. It differs from the
	// window size on high DPI displays.
	FramebufferSize() common.Vec2Int

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// ProcessMessages polls window events until the window closes. It must run
	// on the thread that created the window.
	ProcessMessages()

	// RequestClose makes ProcessMessages return. Safe from any goroutine.
	RequestClose()

	// Close destroys the window.
	//
	// Returns:
	//   - error: an error if the window was already closed
	Close() error
}

type engineWindow struct {
	mu *sync.Mutex

	title         string
	width, height int
	minSize       common.Vec2Int
	maxSize       common.Vec2Int

	// native is the platform window, nil once closed.
	native *glfwWindow

	onResize func(width, height int)
	onInput  func(InputEvent)

	closeRequested atomic.Bool
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. The calling goroutine is locked to its
// OS thread, which must also run ProcessMessages.
//
// Panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		mu:      &sync.Mutex{},
		title:   "Oxy Ink",
		width:   1280,
		height:  720,
		minSize: common.Vec2Int{X: 320, Y: 200},
		maxSize: common.Vec2Int{X: 3840, Y: 2160},
	}
	for _, option := range options {
		option(w)
	}
	runtime.LockOSThread()
	native, err := newGLFWWindow(w)
	if err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	w.native = native
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = callback
}

func (w *engineWindow) SetInputCallback(callback func(InputEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onInput = callback
}

func (w *engineWindow) emit(ev InputEvent) {
	w.mu.Lock()
	fn := w.onInput
	w.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (w *engineWindow) resized(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	fn := w.onResize
	w.mu.Unlock()
	if fn != nil {
		fn(width, height)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) FramebufferSize() common.Vec2Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return common.Vec2Int{X: w.width, Y: w.height}
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && w.native.running()
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() && !w.closeRequested.Load() {
		w.native.poll()
		runtime.Gosched()
	}
}

func (w *engineWindow) RequestClose() {
	w.closeRequested.Store(true)
}

func (w *engineWindow) Close() error {
	if w.native == nil {
		return fmt.Errorf("window: already closed")
	}
	w.native.destroy()
	w.native = nil
	return nil
}
