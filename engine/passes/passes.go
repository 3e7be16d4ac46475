// Package passes holds the render passes every pipeline variant shares: light
// and shadow setup, skybox, transparent geometry, unsupported shaders, gizmos,
// and the full screen Draw helper.
package passes

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

// MaxSources is the number of _SourceN and _TempRTN globals.
const MaxSources = 16

// CameraBufferSizeID holds (1/width, 1/height, width, height) of the camera buffers.
const CameraBufferSizeID = "_CameraBufferSize"

var (
	sourceIDs [MaxSources]string
	tempRTIDs [MaxSources]string
)

func init() {
	for i := range MaxSources {
		sourceIDs[i] = "_Source" + strconv.Itoa(i)
		tempRTIDs[i] = "_TempRT" + strconv.Itoa(i)
	}
}

// SourceID returns the name of the i-th full screen source global.
func SourceID(i int) string {
	return sourceIDs[i]
}

// TempRTID returns the name of the i-th temporary render target.
func TempRTID(i int) string {
	return tempRTIDs[i]
}

// Draw binds from as the _SourceN globals and draws a full screen triangle with
// one pass of material into every target of to.
//
// Parameters:
//   - cmd: the command buffer to record into
//   - material: the full screen material
//   - pass: the material pass
//   - from: source textures, at most MaxSources
//   - to: color targets, drawn with no depth attachment
func Draw(cmd *renderer.CommandBuffer, material *renderer.Material, pass int, from []renderer.Texture, to ...renderer.Texture) {
	for i, tex := range from {
		cmd.SetGlobalTexture(SourceID(i), tex)
	}
	cmd.SetRenderTarget(to, nil)
	cmd.DrawProcedural(material, pass)
}

// BufferSize returns the _CameraBufferSize value of a buffer.
func BufferSize(size common.Vec2Int) common.Vec4 {
	return common.Vec4{1 / float32(size.X), 1 / float32(size.Y), float32(size.X), float32(size.Y)}
}
