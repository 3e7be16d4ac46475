// Package renderer is the GPU facing layer of the engine. It defines texture
// descriptors, the Device abstraction the render graph allocates from, and the
// CommandBuffer that passes record opaque draw work into.
package renderer

import (
	"errors"

	"github.com/gogpu/gputypes"
)

var (
	// ErrDeviceClosed is returned by Device methods called after Close.
	ErrDeviceClosed = errors.New("renderer: device closed")

	// ErrInvalidDescriptor is returned when a texture descriptor has a zero or negative size.
	ErrInvalidDescriptor = errors.New("renderer: invalid texture descriptor")

	// ErrTextureReleased is returned when a released texture is used in a command.
	ErrTextureReleased = errors.New("renderer: texture released")
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// DepthBits is the depth buffer precision of a texture. Zero means the texture is color only.
type DepthBits int

const (
	DepthNone DepthBits = 0
	Depth16   DepthBits = 16
	Depth24   DepthBits = 24
	Depth32   DepthBits = 32
)

// FilterMode selects how a texture is sampled.
type FilterMode int

const (
	FilterBilinear FilterMode = iota
	FilterPoint
)

// TextureDescriptor describes a 2D texture the render graph or a pass can allocate.
// Two descriptors with equal Key values are interchangeable for pooling purposes.
type TextureDescriptor struct {
	// Label is a debug name. It does not take part in pooling.
	Label string

	Width  int
	Height int

	// Format is the color format. Ignored when DepthBits is non zero.
	Format gputypes.TextureFormat

	// DepthBits is the depth precision, 0 for a color texture.
	DepthBits DepthBits

	// IsShadowMap marks depth textures sampled with a comparison sampler.
	IsShadowMap bool

	Filter FilterMode
}

// Key returns the descriptor with its label stripped, suitable as a pool key.
func (d TextureDescriptor) Key() TextureDescriptor {
	d.Label = ""
	return d
}

// IsDepth reports whether the descriptor describes a depth texture.
func (d TextureDescriptor) IsDepth() bool {
	return d.DepthBits != DepthNone
}

// EffectiveFormat returns the pixel format the texture is created with, resolving
// depth bits to a depth format.
func (d TextureDescriptor) EffectiveFormat() gputypes.TextureFormat {
	if d.IsDepth() {
		return DepthFormat(d.DepthBits)
	}
	return d.Format
}

// Validate checks that the descriptor can be allocated.
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return ErrInvalidDescriptor
	}
	return nil
}

// DepthFormat maps a depth precision to its texture format.
func DepthFormat(bits DepthBits) gputypes.TextureFormat {
	switch bits {
	case Depth16:
		return gputypes.TextureFormatDepth16Unorm
	case Depth24:
		return gputypes.TextureFormatDepth24Plus
	default:
		return gputypes.TextureFormatDepth32Float
	}
}

// DefaultColorFormat returns the color buffer format for a camera, half float when HDR is enabled.
func DefaultColorFormat(hdr bool) gputypes.TextureFormat {
	if hdr {
		return gputypes.TextureFormatRGBA16Float
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// Texture is a physical GPU texture owned by a Device.
type Texture interface {
	// ID returns an identifier unique for the lifetime of the owning Device.
	ID() uint64

	// Descriptor returns the descriptor the texture was created with.
	Descriptor() TextureDescriptor

	// Release frees the GPU memory. Releasing twice is a no-op.
	Release()
}

// Material names a shader program with numbered passes. Shading itself lives outside the engine.
type Material struct {
	Name string
}

// RendererList is a set of visible renderers filtered by shader tag, queue and layer.
type RendererList interface {
	// Name returns a debug name for the list.
	Name() string

	// IsEmpty reports whether the list has nothing to draw.
	IsEmpty() bool

	// Count returns the number of renderers in the list.
	Count() int
}

// ShadowSplitData is the culling data of one cascade or cube face.
type ShadowSplitData struct {
	// CullingSphere is the world-space bounding sphere, radius in w.
	CullingSphere [4]float32

	// CascadeBlendCullingFactor controls how far casters of a previous cascade are culled.
	CascadeBlendCullingFactor float32
}

// ShadowDrawingSettings selects the shadow casters drawn by a DrawShadows command.
type ShadowDrawingSettings struct {
	// LightIndex is the visible light index of the shadowed light.
	LightIndex int

	// SplitData is the cascade or face culling data.
	SplitData ShadowSplitData

	// UseRenderingLayerMaskTest restricts casters to the light's rendering layers.
	UseRenderingLayerMaskTest bool
}

// Device allocates textures and executes recorded command buffers.
type Device interface {
	// CreateTexture allocates a texture described by desc.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the allocated texture
	//   - error: ErrInvalidDescriptor, ErrDeviceClosed or a backend error
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// UploadTexture allocates a color texture and fills it with RGBA8 pixel data.
	//
	// Parameters:
	//   - desc: the texture descriptor, Format is forced to RGBA8Unorm
	//   - pixels: tightly packed RGBA8 rows
	//
	// Returns:
	//   - Texture: the allocated texture
	//   - error: an error if allocation or upload fails
	UploadTexture(desc TextureDescriptor, pixels []byte) (Texture, error)

	// CameraTarget returns the presentable target of the current frame. The texture
	// is owned by the device and must not be released by the caller.
	CameraTarget(width, height int) (Texture, error)

	// ExecuteCommandBuffer translates the recorded commands into GPU work.
	ExecuteCommandBuffer(cb *CommandBuffer) error

	// Submit flushes executed work to the GPU queue and presents the camera target.
	Submit() error

	// ReversedZ reports whether the device uses a reversed depth buffer.
	ReversedZ() bool

	// Close releases every resource the device still owns.
	Close()
}

// CubemapFace selects one face of a point light's shadow cube.
type CubemapFace int

const (
	CubemapFacePositiveX CubemapFace = iota
	CubemapFaceNegativeX
	CubemapFacePositiveY
	CubemapFaceNegativeY
	CubemapFacePositiveZ
	CubemapFaceNegativeZ
)
