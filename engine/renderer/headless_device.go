package renderer

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// HeadlessOption configures a HeadlessDevice.
type HeadlessOption func(*HeadlessDevice)

// WithReversedZ makes the headless device report a reversed depth buffer.
func WithReversedZ(reversed bool) HeadlessOption {
	return func(d *HeadlessDevice) {
		d.reversedZ = reversed
	}
}

// HeadlessDevice is a Device that allocates no GPU memory. It tracks texture
// lifetimes and keeps every executed command, which makes it the device of choice
// for tests and offscreen tooling.
type HeadlessDevice struct {
	mu        sync.Mutex
	nextID    uint64
	live      map[uint64]*headlessTexture
	created   int
	target    *headlessTexture
	executed  []Command
	buffers   []string
	submits   int
	closed    bool
	reversedZ bool
}

var _ Device = &HeadlessDevice{}

// NewHeadlessDevice creates a headless device.
func NewHeadlessDevice(opts ...HeadlessOption) *HeadlessDevice {
	d := &HeadlessDevice{
		live: make(map[uint64]*headlessTexture),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type headlessTexture struct {
	id       uint64
	desc     TextureDescriptor
	device   *HeadlessDevice
	released bool
	owned    bool
}

func (t *headlessTexture) ID() uint64 { return t.id }

func (t *headlessTexture) Descriptor() TextureDescriptor { return t.desc }

func (t *headlessTexture) Release() {
	if t.owned {
		return
	}
	t.device.mu.Lock()
	defer t.device.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	delete(t.device.live, t.id)
}

func (d *HeadlessDevice) newTexture(desc TextureDescriptor) *headlessTexture {
	d.nextID++
	return &headlessTexture{id: d.nextID, desc: desc, device: d}
}

func (d *HeadlessDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	t := d.newTexture(desc)
	d.live[t.id] = t
	d.created++
	return t, nil
}

func (d *HeadlessDevice) UploadTexture(desc TextureDescriptor, pixels []byte) (Texture, error) {
	desc.Format = gputypes.TextureFormatRGBA8Unorm
	desc.DepthBits = DepthNone
	if want := desc.Width * desc.Height * 4; len(pixels) < want {
		return nil, fmt.Errorf("upload texture %q: have %d bytes, need %d", desc.Label, len(pixels), want)
	}
	return d.CreateTexture(desc)
}

func (d *HeadlessDevice) CameraTarget(width, height int) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	if d.target == nil || d.target.desc.Width != width || d.target.desc.Height != height {
		t := d.newTexture(TextureDescriptor{
			Label:  "CameraTarget",
			Width:  width,
			Height: height,
			Format: gputypes.TextureFormatBGRA8Unorm,
		})
		t.owned = true
		d.target = t
	}
	return d.target, nil
}

// ExecuteCommandBuffer appends the buffer's commands to the executed log. It fails
// when any command references a texture that has already been released.
func (d *HeadlessDevice) ExecuteCommandBuffer(cb *CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	for i, c := range cb.commands {
		if err := checkLive(c); err != nil {
			return fmt.Errorf("command buffer %q: command %d (%s): %w", cb.name, i, c.Type, err)
		}
	}
	d.executed = append(d.executed, cb.commands...)
	d.buffers = append(d.buffers, cb.name)
	return nil
}

func checkLive(c Command) error {
	check := func(t Texture) error {
		if ht, ok := t.(*headlessTexture); ok && ht.released {
			return fmt.Errorf("%w: %q", ErrTextureReleased, ht.desc.Label)
		}
		return nil
	}
	for _, t := range c.Colors {
		if err := check(t); err != nil {
			return err
		}
	}
	for _, t := range []Texture{c.Depth, c.Texture, c.Dest} {
		if err := check(t); err != nil {
			return err
		}
	}
	return nil
}

func (d *HeadlessDevice) Submit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.submits++
	return nil
}

func (d *HeadlessDevice) ReversedZ() bool {
	return d.reversedZ
}

func (d *HeadlessDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.live {
		t.released = true
		delete(d.live, id)
	}
	d.closed = true
}

// Created returns the number of textures allocated so far, excluding camera targets.
func (d *HeadlessDevice) Created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

// Live returns the number of allocated textures not yet released.
func (d *HeadlessDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Executed returns a copy of every command executed so far.
func (d *HeadlessDevice) Executed() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Command, len(d.executed))
	copy(out, d.executed)
	return out
}

// ExecutedBuffers returns the names of the executed command buffers in order.
func (d *HeadlessDevice) ExecutedBuffers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.buffers))
	copy(out, d.buffers)
	return out
}

// Submits returns how many times Submit was called.
func (d *HeadlessDevice) Submits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submits
}

// ResetLog clears the executed command log.
func (d *HeadlessDevice) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = nil
	d.buffers = nil
}
