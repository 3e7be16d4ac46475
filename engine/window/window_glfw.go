package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Key is a GLFW key code.
type Key int

// Keys used by the engine's default bindings.
const (
	KeyEscape Key = Key(glfw.KeyEscape)
	KeyTab    Key = Key(glfw.KeyTab)
	KeyP      Key = Key(glfw.KeyP)
	KeyR      Key = Key(glfw.KeyR)
)

type glfwWindow struct {
	window *glfw.Window

	dragging   bool
	lastX      float64
	lastY      float64
	closeAsked bool
}

// newGLFWWindow creates the GLFW window without a client API, since WebGPU
// drives the surface, and routes its callbacks to w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newGLFWWindow(w *engineWindow) (*glfwWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minSize.X, w.minSize.Y, w.maxSize.X, w.maxSize.Y)
	gw := &glfwWindow{window: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.closeAsked = true
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press:
			w.emit(InputEvent{Type: InputKeyDown, Key: Key(key)})
		case glfw.Release:
			w.emit(InputEvent{Type: InputKeyUp, Key: Key(key)})
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.emit(InputEvent{Type: InputScroll, Delta: float32(yoff)})
	})

	// The left button drags. Drag events carry the cursor movement.
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := win.GetCursorPos()
		switch action {
		case glfw.Press:
			gw.dragging, gw.lastX, gw.lastY = true, x, y
			w.emit(InputEvent{Type: InputDragStart, X: float32(x), Y: float32(y)})
		case glfw.Release:
			gw.dragging = false
			w.emit(InputEvent{Type: InputDragEnd, X: float32(x), Y: float32(y)})
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !gw.dragging {
			return
		}
		dx, dy := x-gw.lastX, y-gw.lastY
		gw.lastX, gw.lastY = x, y
		w.emit(InputEvent{Type: InputDrag, X: float32(dx), Y: float32(dy)})
	})

	// Framebuffer size, not window size: the surface is configured in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()
	return gw, nil
}

// surfaceDescriptor uses the per platform wgpuglfw bridge (Windows, X11, Wayland, macOS).
func (gw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func (gw *glfwWindow) running() bool {
	return !gw.closeAsked && !gw.window.ShouldClose()
}

func (gw *glfwWindow) poll() {
	glfw.PollEvents()
}

func (gw *glfwWindow) destroy() {
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
}
