package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// CameraType is what a camera renders for.
type CameraType int

const (
	CameraTypeGame CameraType = iota
	CameraTypeSceneView
	CameraTypeReflection
	CameraTypePreview
)

// ClearFlags select how a camera clears its target before drawing. Lower values
// clear more: Skybox and Color clear color and depth, Depth clears only depth.
type ClearFlags int

const (
	ClearFlagsSkybox ClearFlags = iota + 1
	ClearFlagsColor
	ClearFlagsDepth
	ClearFlagsNothing
)

type cameraImpl struct {
	mu *sync.Mutex

	name       string
	cameraType CameraType
	up         [3]float32

	fov  float32
	near float32
	far  float32

	pixelWidth  int
	pixelHeight int

	clearFlags         ClearFlags
	background         common.Color
	allowHDR           bool
	renderingLayerMask uint32
	settings           *Settings

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings, its render target size and clear state,
// and computes view/projection matrices from an attached CameraController each
// frame via Update().
type Camera interface {
	// Name returns the camera's debug name.
	Name() string

	// Type returns what the camera renders for.
	//
	// Returns:
	//   - CameraType: game, scene view, reflection or preview
	Type() CameraType

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio of the pixel size.
	//
	// Returns:
	//   - float32: width / height
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// PixelSize returns the size of the camera target in pixels.
	//
	// Returns:
	//   - common.Vec2Int: width and height
	PixelSize() common.Vec2Int

	// SetPixelSize resizes the camera target and recomputes matrices.
	//
	// Parameters:
	//   - width, height: target size in pixels, clamped to at least 1
	SetPixelSize(width, height int)

	// ClearFlags returns how the camera clears its target.
	ClearFlags() ClearFlags

	// SetClearFlags sets how the camera clears its target.
	//
	// Parameters:
	//   - flags: the clear flags
	SetClearFlags(flags ClearFlags)

	// BackgroundColor returns the color used by ClearFlagsColor.
	BackgroundColor() common.Color

	// SetBackgroundColor sets the color used by ClearFlagsColor.
	//
	// Parameters:
	//   - c: the background color
	SetBackgroundColor(c common.Color)

	// AllowHDR reports whether the camera may render to half float buffers.
	AllowHDR() bool

	// RenderingLayerMask returns the layers the camera draws.
	RenderingLayerMask() uint32

	// Settings returns the per camera pipeline overrides, nil when the camera has none.
	//
	// Returns:
	//   - *Settings: the override settings or nil
	Settings() *Settings

	// SetSettings attaches per camera pipeline overrides. Nil removes them.
	//
	// Parameters:
	//   - s: the override settings
	SetSettings(s *Settings)

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix as 16 floats (column-major).
	ViewProjectionMatrix() [16]float32

	// Position returns the camera position, the origin when no controller is attached.
	Position() [3]float32

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// SetController attaches a CameraController to the camera and recomputes matrices.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Update reads position/target from the controller and recomputes matrices.
	// Should be called once per frame. Without a controller only the projection changes.
	Update()

	// CullingParameters returns the camera's culling input for a scene.
	//
	// Parameters:
	//   - shadowDistance: the configured maximum shadow distance, clamped to the far plane
	//
	// Returns:
	//   - scene.CullingParameters: the culling parameters
	CullingParameters(shadowDistance float32) scene.CullingParameters
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                 &sync.Mutex{},
		name:               "Camera",
		cameraType:         CameraTypeGame,
		up:                 [3]float32{0, 1, 0},
		fov:                45.0 * (math.Pi / 180.0),
		near:               0.1,
		far:                100.0,
		pixelWidth:         1280,
		pixelHeight:        720,
		clearFlags:         ClearFlagsSkybox,
		background:         common.Color{R: 0.19, G: 0.3, B: 0.47, A: 0},
		allowHDR:           true,
		renderingLayerMask: ^uint32(0),
		viewMatrix:         common.IdentityMatrix(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *cameraImpl) Type() CameraType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraType
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect()
}

func (c *cameraImpl) aspect() float32 {
	return float32(c.pixelWidth) / float32(c.pixelHeight)
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) PixelSize() common.Vec2Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Vec2Int{X: c.pixelWidth, Y: c.pixelHeight}
}

func (c *cameraImpl) SetPixelSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pixelWidth, c.pixelHeight = max(width, 1), max(height, 1)
	c.updateMatrices()
}

func (c *cameraImpl) ClearFlags() ClearFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearFlags
}

func (c *cameraImpl) SetClearFlags(flags ClearFlags) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearFlags = flags
}

func (c *cameraImpl) BackgroundColor() common.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

func (c *cameraImpl) SetBackgroundColor(col common.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.background = col
}

func (c *cameraImpl) AllowHDR() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowHDR
}

func (c *cameraImpl) RenderingLayerMask() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderingLayerMask
}

func (c *cameraImpl) Settings() *Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *cameraImpl) SetSettings(s *Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return [3]float32{}
	}
	return c.controller.Position()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) CullingParameters(shadowDistance float32) scene.CullingParameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := scene.CullingParameters{
		View:           c.viewMatrix,
		Projection:     c.projectionMatrix,
		Near:           c.near,
		Far:            c.far,
		ShadowDistance: min(shadowDistance, c.far),
	}
	if c.controller != nil {
		p.Position = c.controller.Position()
	}
	return p
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// The view matrix is only recomputed when a controller is attached.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller != nil {
		common.LookAt(c.viewMatrix[:], c.controller.Position(), c.controller.Target(), c.up)
	}
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect(), c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
