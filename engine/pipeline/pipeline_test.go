package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/camera"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ink/engine/rendergraph"
	"github.com/Carmen-Shannon/oxy-ink/engine/scene"
)

// clearRenderer clears the camera target, optionally touching an undeclared texture.
type clearRenderer struct {
	violate bool
	block   chan struct{}
	started chan struct{}
	seen    []*CameraContext
}

func (c *clearRenderer) MaxShadowDistance() float32 { return 100 }

func (c *clearRenderer) Record(r *rendergraph.Recorder, ctx *CameraContext) {
	if c.started != nil {
		close(c.started)
		<-c.block
	}
	c.seen = append(c.seen, ctx)
	target := r.ImportTexture(ctx.Target)
	stray := r.ImportTexture(ctx.Target)
	r.AddRenderPass("Clear", func(b *rendergraph.PassBuilder) {
		b.WriteTexture(target)
		b.SetRenderFunc(func(pc *rendergraph.Context) {
			pc.Cmd().SetRenderTarget([]renderer.Texture{pc.Texture(target)}, nil)
			if c.violate {
				pc.Texture(stray)
			}
			pc.Cmd().ClearRenderTarget(true, true, common.Color{R: 1, A: 1})
		})
	})
}

func newTestPipeline(t *testing.T, cr CameraRenderer, opts ...PipelineBuilderOption) (Pipeline, *renderer.HeadlessDevice) {
	t.Helper()
	dev := renderer.NewHeadlessDevice()
	sc := scene.NewScene("pipeline")
	p := NewPipeline(dev, sc, cr, opts...)
	t.Cleanup(func() {
		p.Close()
		sc.Close()
		dev.Close()
	})
	return p, dev
}

func newTestCamera(name string, opts ...camera.CameraBuilderOption) camera.Camera {
	opts = append([]camera.CameraBuilderOption{
		camera.WithName(name),
		camera.WithPixelSize(32, 16),
		camera.WithController(camera.NewCameraController()),
	}, opts...)
	return camera.NewCamera(opts...)
}

func TestRenderCameras(t *testing.T) {
	cr := &clearRenderer{}
	clock := time.Unix(100, 0)
	p, dev := newTestPipeline(t, cr, WithClock(func() time.Time { return clock }))
	clock = clock.Add(1500 * time.Millisecond)

	near := newTestCamera("main", camera.WithClipPlanes(0.1, 40))
	if err := p.Render(near, newTestCamera("second")); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if dev.Submits() != 2 {
		t.Errorf("submits = %d, want 2", dev.Submits())
	}
	if got := dev.ExecutedBuffers(); len(got) != 2 || got[0] != "main" || got[1] != "second" {
		t.Errorf("executed buffers = %v", got)
	}
	if p.Graph().Frame() != 1 {
		t.Errorf("frame = %d, want 1", p.Graph().Frame())
	}
	if cr.seen[0].Time != 1.5 {
		t.Errorf("camera time = %v, want 1.5", cr.seen[0].Time)
	}
	if d := cr.seen[0].Target.Descriptor(); d.Width != 32 || d.Height != 16 {
		t.Errorf("target = %dx%d", d.Width, d.Height)
	}
}

func TestRenderSkipsCameraWithoutFrustum(t *testing.T) {
	cr := &clearRenderer{}
	p, dev := newTestPipeline(t, cr)
	if err := p.Render(newTestCamera("flat", camera.WithClipPlanes(1, 1))); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if dev.Submits() != 0 || len(cr.seen) != 0 {
		t.Errorf("camera without a frustum was rendered")
	}
	if p.Graph().Frame() != 1 {
		t.Error("the frame must end even when every camera is skipped")
	}
}

func TestContractViolationClearsCamera(t *testing.T) {
	p, dev := newTestPipeline(t, &clearRenderer{violate: true}, WithStrictContracts(false))
	bg := common.Color{G: 1, A: 1}
	if err := p.Render(newTestCamera("broken", camera.WithBackgroundColor(bg))); err != nil {
		t.Fatalf("Render: %v", err)
	}

	cmds := dev.Executed()
	if len(cmds) != 2 {
		t.Fatalf("executed %d commands, want the fallback target and clear", len(cmds))
	}
	if cmds[1].Type != renderer.CmdClearRenderTarget || cmds[1].Color != bg {
		t.Errorf("fallback clear = %+v", cmds[1])
	}
}

func TestStrictContractViolationPanics(t *testing.T) {
	p, _ := newTestPipeline(t, &clearRenderer{violate: true}, WithStrictContracts(true))
	defer func() {
		if _, ok := rendergraph.AsContractViolation(recover()); !ok {
			t.Error("strict mode should re-panic the contract violation")
		}
	}()
	p.Render(newTestCamera("broken"))
}

func TestSetCameraRendererWaitsForFrame(t *testing.T) {
	busy := &clearRenderer{block: make(chan struct{}), started: make(chan struct{})}
	p, _ := newTestPipeline(t, busy)

	done := make(chan error)
	go func() { done <- p.Render(newTestCamera("slow")) }()
	<-busy.started

	if !p.IsRendering() {
		t.Error("IsRendering = false during a frame")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.SetCameraRenderer(ctx, &clearRenderer{}); !errors.Is(err, ErrFrameInFlight) {
		t.Errorf("SetCameraRenderer during a frame = %v, want ErrFrameInFlight", err)
	}

	close(busy.block)
	if err := <-done; err != nil {
		t.Fatalf("Render: %v", err)
	}
	if p.IsRendering() {
		t.Error("IsRendering = true after the frame")
	}
	if err := p.SetCameraRenderer(context.Background(), &clearRenderer{}); err != nil {
		t.Errorf("SetCameraRenderer between frames = %v", err)
	}
}
