package camera

// CameraControllerOption is a functional option for configuring a CameraController.
// Angles are in radians. Radius and elevation are clamped to their bounds after
// every option has been applied.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the distance from the target.
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the angle around the Y axis, 0 looks from +Z.
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the angle above the horizontal plane.
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithOrbit places the camera on its orbit sphere in one option.
//
// Parameters:
//   - radius: distance from the target
//   - azimuth: angle around the Y axis
//   - elevation: angle above the horizontal plane
//
// Returns:
//   - CameraControllerOption: option setting all three coordinates
func WithOrbit(radius, azimuth, elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius, cc.azimuth, cc.elevation = radius, azimuth, elevation
	}
}

// WithTarget sets the pivot the camera orbits and looks at.
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = [3]float32{x, y, z}
	}
}

// WithRadiusBounds limits how far Zoom can move the camera.
//
// Parameters:
//   - lo: closest distance to the target
//   - hi: farthest distance from the target
//
// Returns:
//   - CameraControllerOption: option setting the radius bounds
func WithRadiusBounds(lo, hi float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius, cc.maxRadius = lo, hi
	}
}

// WithElevationBounds limits how far Orbit can tilt the camera. The defaults stop
// just short of the poles, where the view matrix degenerates.
func WithElevationBounds(lo, hi float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation, cc.maxElevation = lo, hi
	}
}

// WithZoomSpeed scales the delta passed to Zoom.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}
