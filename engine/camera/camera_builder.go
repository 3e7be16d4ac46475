package camera

import "github.com/Carmen-Shannon/oxy-ink/common"

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithName sets the camera's debug name.
//
// Parameters:
//   - name: the debug name
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's name
func WithName(name string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.name = name
	}
}

// WithType sets what the camera renders for.
//
// Parameters:
//   - t: the camera type
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's type
func WithType(t CameraType) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.cameraType = t
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near, c.far = near, far
	}
}

// WithPixelSize sets the size of the camera target. The aspect ratio follows it.
//
// Parameters:
//   - width, height: target size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the pixel size
func WithPixelSize(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.pixelWidth, c.pixelHeight = max(width, 1), max(height, 1)
	}
}

// WithClearFlags sets how the camera clears its target. Defaults to ClearFlagsSkybox.
//
// Parameters:
//   - flags: the clear flags
//
// Returns:
//   - CameraBuilderOption: a function that sets the clear flags
func WithClearFlags(flags ClearFlags) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.clearFlags = flags
	}
}

// WithBackgroundColor sets the color used by ClearFlagsColor.
//
// Parameters:
//   - col: the background color
//
// Returns:
//   - CameraBuilderOption: a function that sets the background color
func WithBackgroundColor(col common.Color) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.background = col
	}
}

// WithHDR sets whether the camera may render to half float buffers. Defaults to true.
func WithHDR(allow bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.allowHDR = allow
	}
}

// WithRenderingLayerMask sets the layers the camera draws. Defaults to all layers.
func WithRenderingLayerMask(mask uint32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.renderingLayerMask = mask
	}
}

// WithSettings attaches per camera pipeline overrides.
func WithSettings(s Settings) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.settings = &s
	}
}

// WithController attaches a CameraController.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: a function that sets the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
