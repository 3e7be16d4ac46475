package camera

import (
	"math"
	"sync"
)

// CameraController owns a camera's position and target. Positions orbit the
// target on a sphere described by radius, azimuth and elevation.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: world-space camera position
	Position() [3]float32

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: world-space target position
	Target() [3]float32

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Orbit rotates the camera around the target.
	//
	// Parameters:
	//   - dAzimuth: horizontal rotation in radians
	//   - dElevation: vertical rotation in radians, the result is clamped to the elevation bounds
	Orbit(dAzimuth, dElevation float32)

	// Zoom adjusts the orbit radius. Positive delta zooms in (closer to target).
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Radius returns the current orbit radius (distance from target).
	Radius() float32

	// Azimuth returns the current horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane in radians.
	Elevation() float32
}

type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	zoomSpeed float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new orbit controller.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:           &sync.Mutex{},
		radius:       10,
		elevation:    float32(math.Pi / 6),
		minRadius:    1,
		maxRadius:    500,
		minElevation: -float32(math.Pi/2 - 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),
		zoomSpeed:    1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.radius = clampf(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = clampf(cc.elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the camera position from spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position[0] = cc.target[0] + cc.radius*cosElev*sinAzim
	cc.position[1] = cc.target[1] + cc.radius*sinElev
	cc.position[2] = cc.target[2] + cc.radius*cosElev*cosAzim
}

func clampf(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func (cc *cameraControllerImpl) Position() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = [3]float32{x, y, z}
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation = clampf(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = clampf(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}
