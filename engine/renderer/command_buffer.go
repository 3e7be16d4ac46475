package renderer

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-ink/common"
)

// CommandType identifies the kind of a recorded Command.
type CommandType int

const (
	CmdSetRenderTarget CommandType = iota
	CmdClearRenderTarget
	CmdSetViewport
	CmdSetGlobalTexture
	CmdSetGlobalFloat
	CmdSetGlobalInt
	CmdSetGlobalVector
	CmdSetGlobalVectorArray
	CmdSetGlobalMatrixArray
	CmdSetKeyword
	CmdSetViewProjectionMatrices
	CmdSetGlobalDepthBias
	CmdDrawRendererList
	CmdDrawShadows
	CmdDrawProcedural
	CmdDrawSkybox
	CmdDrawGizmos
	CmdCopyTexture
	CmdBeginSample
	CmdEndSample
)

var commandTypeNames = [...]string{
	CmdSetRenderTarget:           "SetRenderTarget",
	CmdClearRenderTarget:         "ClearRenderTarget",
	CmdSetViewport:               "SetViewport",
	CmdSetGlobalTexture:          "SetGlobalTexture",
	CmdSetGlobalFloat:            "SetGlobalFloat",
	CmdSetGlobalInt:              "SetGlobalInt",
	CmdSetGlobalVector:           "SetGlobalVector",
	CmdSetGlobalVectorArray:      "SetGlobalVectorArray",
	CmdSetGlobalMatrixArray:      "SetGlobalMatrixArray",
	CmdSetKeyword:                "SetKeyword",
	CmdSetViewProjectionMatrices: "SetViewProjectionMatrices",
	CmdSetGlobalDepthBias:        "SetGlobalDepthBias",
	CmdDrawRendererList:          "DrawRendererList",
	CmdDrawShadows:               "DrawShadows",
	CmdDrawProcedural:            "DrawProcedural",
	CmdDrawSkybox:                "DrawSkybox",
	CmdDrawGizmos:                "DrawGizmos",
	CmdCopyTexture:               "CopyTexture",
	CmdBeginSample:               "BeginSample",
	CmdEndSample:                 "EndSample",
}

func (t CommandType) String() string {
	if int(t) >= 0 && int(t) < len(commandTypeNames) {
		return commandTypeNames[t]
	}
	return "Unknown"
}

// Command is one recorded instruction. Only the fields relevant to Type are set.
type Command struct {
	Type CommandType

	// Name is the global, keyword or sample name.
	Name string

	Colors []Texture
	Depth  Texture

	// Texture is the bound global texture or the copy source.
	Texture Texture
	// Dest is the copy destination.
	Dest Texture

	ClearDepth bool
	ClearColor bool
	Color      common.Color

	Viewport common.Rect

	Float    float32
	Int      int
	Vector   common.Vec4
	Vectors  []common.Vec4
	Matrices [][16]float32
	Enabled  bool

	View       [16]float32
	Projection [16]float32

	DepthBias      float32
	SlopeScaleBias float32

	RendererList RendererList
	Shadows      ShadowDrawingSettings

	Material *Material
	Pass     int
}

// CommandBuffer records commands for later execution by a Device. Array and slice
// arguments are copied at record time so callers may reuse their storage.
type CommandBuffer struct {
	name     string
	commands []Command
}

// NewCommandBuffer returns an empty command buffer with the given debug name.
func NewCommandBuffer(name string) *CommandBuffer {
	return &CommandBuffer{name: name}
}

// Name returns the buffer's debug name.
func (cb *CommandBuffer) Name() string {
	return cb.name
}

// Commands returns the recorded commands in order. The slice must not be modified.
func (cb *CommandBuffer) Commands() []Command {
	return cb.commands
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int {
	return len(cb.commands)
}

// Clear drops every recorded command, keeping the backing storage.
func (cb *CommandBuffer) Clear() {
	clear(cb.commands)
	cb.commands = cb.commands[:0]
}

func (cb *CommandBuffer) add(c Command) {
	cb.commands = append(cb.commands, c)
}

// SetRenderTarget binds color attachments (MRT when more than one) and an optional depth attachment.
func (cb *CommandBuffer) SetRenderTarget(colors []Texture, depth Texture) {
	cb.add(Command{Type: CmdSetRenderTarget, Colors: slices.Clone(colors), Depth: depth})
}

// ClearRenderTarget clears the bound attachments.
func (cb *CommandBuffer) ClearRenderTarget(clearDepth, clearColor bool, color common.Color) {
	cb.add(Command{Type: CmdClearRenderTarget, ClearDepth: clearDepth, ClearColor: clearColor, Color: color})
}

// SetViewport restricts rasterization to a pixel rectangle of the bound target.
func (cb *CommandBuffer) SetViewport(r common.Rect) {
	cb.add(Command{Type: CmdSetViewport, Viewport: r})
}

// SetGlobalTexture binds a texture to a named shader global.
func (cb *CommandBuffer) SetGlobalTexture(name string, tex Texture) {
	cb.add(Command{Type: CmdSetGlobalTexture, Name: name, Texture: tex})
}

// SetGlobalFloat sets a named float global.
func (cb *CommandBuffer) SetGlobalFloat(name string, v float32) {
	cb.add(Command{Type: CmdSetGlobalFloat, Name: name, Float: v})
}

// SetGlobalInt sets a named integer global.
func (cb *CommandBuffer) SetGlobalInt(name string, v int) {
	cb.add(Command{Type: CmdSetGlobalInt, Name: name, Int: v})
}

// SetGlobalVector sets a named vector global.
func (cb *CommandBuffer) SetGlobalVector(name string, v common.Vec4) {
	cb.add(Command{Type: CmdSetGlobalVector, Name: name, Vector: v})
}

// SetGlobalVectorArray sets a named vector array global.
func (cb *CommandBuffer) SetGlobalVectorArray(name string, v []common.Vec4) {
	cb.add(Command{Type: CmdSetGlobalVectorArray, Name: name, Vectors: slices.Clone(v)})
}

// SetGlobalMatrixArray sets a named matrix array global.
func (cb *CommandBuffer) SetGlobalMatrixArray(name string, m [][16]float32) {
	cb.add(Command{Type: CmdSetGlobalMatrixArray, Name: name, Matrices: slices.Clone(m)})
}

// SetKeyword enables or disables a global shader keyword.
func (cb *CommandBuffer) SetKeyword(name string, enabled bool) {
	cb.add(Command{Type: CmdSetKeyword, Name: name, Enabled: enabled})
}

// SetKeywords enables keywords[enabledIndex] and disables every other keyword of the group.
// A negative index disables the whole group.
func (cb *CommandBuffer) SetKeywords(keywords []string, enabledIndex int) {
	for i, k := range keywords {
		cb.SetKeyword(k, i == enabledIndex)
	}
}

// SetViewProjectionMatrices sets the view and projection used by subsequent draws.
func (cb *CommandBuffer) SetViewProjectionMatrices(view, projection [16]float32) {
	cb.add(Command{Type: CmdSetViewProjectionMatrices, View: view, Projection: projection})
}

// SetGlobalDepthBias sets the rasterizer depth bias for subsequent draws.
func (cb *CommandBuffer) SetGlobalDepthBias(bias, slopeScaleBias float32) {
	cb.add(Command{Type: CmdSetGlobalDepthBias, DepthBias: bias, SlopeScaleBias: slopeScaleBias})
}

// DrawRendererList draws every renderer of a list into the bound target.
func (cb *CommandBuffer) DrawRendererList(list RendererList) {
	cb.add(Command{Type: CmdDrawRendererList, RendererList: list})
}

// DrawShadows draws the shadow casters of one light split.
func (cb *CommandBuffer) DrawShadows(s ShadowDrawingSettings) {
	cb.add(Command{Type: CmdDrawShadows, Shadows: s})
}

// DrawProcedural draws a fullscreen triangle with the given material pass.
func (cb *CommandBuffer) DrawProcedural(material *Material, pass int) {
	cb.add(Command{Type: CmdDrawProcedural, Material: material, Pass: pass})
}

// DrawSkybox draws the camera skybox.
func (cb *CommandBuffer) DrawSkybox() {
	cb.add(Command{Type: CmdDrawSkybox})
}

// DrawGizmos draws editor gizmos.
func (cb *CommandBuffer) DrawGizmos() {
	cb.add(Command{Type: CmdDrawGizmos})
}

// CopyTexture copies src into dst. Both must share size and format.
func (cb *CommandBuffer) CopyTexture(src, dst Texture) {
	cb.add(Command{Type: CmdCopyTexture, Texture: src, Dest: dst})
}

// BeginSample opens a named profiling scope.
func (cb *CommandBuffer) BeginSample(name string) {
	cb.add(Command{Type: CmdBeginSample, Name: name})
}

// EndSample closes the named profiling scope.
func (cb *CommandBuffer) EndSample(name string) {
	cb.add(Command{Type: CmdEndSample, Name: name})
}
