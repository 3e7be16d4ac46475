package engine

import (
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/window"
)

const (
	// OrbitSpeed is the orbit rotation in radians per dragged pixel.
	OrbitSpeed = 0.005

	// ZoomStep is the zoom applied per scroll notch.
	ZoomStep = 1
)

// handleInput drives the controller of the first game camera and toggles the
// profiler on KeyP.
func (e *engine) handleInput(ev window.InputEvent) {
	switch ev.Type {
	case window.InputKeyDown:
		if ev.Key == window.KeyP {
			e.mu.Lock()
			e.profilingEnabled = !e.profilingEnabled
			e.mu.Unlock()
		}
	case window.InputScroll:
		if ctrl := e.activeController(); ctrl != nil {
			ctrl.Zoom(ev.Delta * ZoomStep)
		}
	case window.InputDrag:
		if ctrl := e.activeController(); ctrl != nil {
			ctrl.Orbit(-ev.X*OrbitSpeed, ev.Y*OrbitSpeed)
		}
	}
}

func (e *engine) activeController() camera.CameraController {
	for _, c := range e.Cameras() {
		if c.Type() == camera.CameraTypeGame && c.Controller() != nil {
			return c.Controller()
		}
	}
	return nil
}
