package renderer

import "github.com/cogentcore/webgpu/wgpu"

// WGPUDeviceOption is a functional option applied to a WGPUDevice during construction via NewWGPUDevice.
type WGPUDeviceOption func(*WGPUDevice)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUDeviceOption: a function that applies the present mode option to a device
func WithPresentMode(mode PresentMode) WGPUDeviceOption {
	return func(d *WGPUDevice) {
		switch mode {
		case PresentModeVSync:
			d.presentMode = wgpu.PresentModeFifo
		default:
			d.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUDeviceOption: a function that applies the adapter option to a device
func WithForceFallbackAdapter(force bool) WGPUDeviceOption {
	return func(d *WGPUDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithDrawHandler sets the handler that encodes draw commands.
//
// Parameters:
//   - h: the DrawHandler
//
// Returns:
//   - WGPUDeviceOption: a function that applies the handler option to a device
func WithDrawHandler(h DrawHandler) WGPUDeviceOption {
	return func(d *WGPUDevice) {
		d.handler = h
	}
}
