package rendergraph

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
	"github.com/gogpu/gputypes"
)

type fakeList struct {
	name  string
	count int
}

func (l fakeList) Name() string  { return l.name }
func (l fakeList) IsEmpty() bool { return l.count == 0 }
func (l fakeList) Count() int    { return l.count }

func colorDesc(label string) renderer.TextureDescriptor {
	return renderer.TextureDescriptor{Label: label, Width: 16, Height: 16, Format: gputypes.TextureFormatRGBA8Unorm}
}

func newTestGraph(t *testing.T, opts ...GraphBuilderOption) (*Graph, *renderer.HeadlessDevice) {
	t.Helper()
	dev := renderer.NewHeadlessDevice()
	g := NewGraph(dev, opts...)
	t.Cleanup(func() {
		g.Cleanup()
		dev.Close()
	})
	return g, dev
}

func run(t *testing.T, g *Graph, record func(*Recorder)) *renderer.CommandBuffer {
	t.Helper()
	cmd := renderer.NewCommandBuffer(t.Name())
	if err := g.RecordAndExecute(RecordParams{CommandBuffer: cmd}, record); err != nil {
		t.Fatalf("RecordAndExecute: %v", err)
	}
	return cmd
}

func expectViolation(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		cv, ok := AsContractViolation(r)
		if !ok {
			t.Fatalf("recovered %v, want *ContractViolation", r)
		}
		if target != nil && !errors.Is(cv, target) {
			t.Fatalf("violation %v does not wrap %v", cv, target)
		}
	}()
	fn()
}

func TestCullingCounter(t *testing.T) {
	g, dev := newTestGraph(t)
	target, _ := dev.CameraTarget(16, 16)
	executed := map[string]int{}
	mark := func(name string) func(*Context) {
		return func(*Context) { executed[name]++ }
	}

	run(t, g, func(r *Recorder) {
		orphan := r.CreateTexture(colorDesc("orphan"))
		used := r.CreateTexture(colorDesc("used"))
		cam := r.ImportTexture(target)

		r.AddRenderPass("Orphan", func(b *PassBuilder) {
			b.WriteTexture(orphan)
			b.SetRenderFunc(mark("Orphan"))
		})
		r.AddRenderPass("Producer", func(b *PassBuilder) {
			b.WriteTexture(used)
			b.SetRenderFunc(mark("Producer"))
		})
		r.AddRenderPass("Final", func(b *PassBuilder) {
			b.ReadTexture(used)
			b.WriteTexture(cam)
			b.SetRenderFunc(mark("Final"))
		})
	})

	stats := g.Stats()
	if stats.Passes != 3 || stats.Culled != 1 || stats.Executed != 2 {
		t.Errorf("stats = %+v, want 3 passes, 1 culled, 2 executed", stats)
	}
	if executed["Orphan"] != 0 || executed["Producer"] != 1 || executed["Final"] != 1 {
		t.Errorf("executed = %v", executed)
	}
	if dev.Created() != 1 {
		t.Errorf("created %d textures, want 1 (orphan must stay unallocated)", dev.Created())
	}
}

func TestTransitiveCulling(t *testing.T) {
	g, _ := newTestGraph(t)
	run(t, g, func(r *Recorder) {
		a := r.CreateTexture(colorDesc("a"))
		b2 := r.CreateTexture(colorDesc("b"))
		r.AddRenderPass("First", func(b *PassBuilder) {
			b.WriteTexture(a)
			b.SetRenderFunc(func(*Context) { t.Error("First executed") })
		})
		r.AddRenderPass("Second", func(b *PassBuilder) {
			b.ReadTexture(a)
			b.WriteTexture(b2)
			b.SetRenderFunc(func(*Context) { t.Error("Second executed") })
		})
	})
	if got := g.Stats().Culled; got != 2 {
		t.Errorf("culled %d passes, want 2", got)
	}
}

func TestForceExecuteRunsOnce(t *testing.T) {
	g, _ := newTestGraph(t)
	calls := 0
	cmd := run(t, g, func(r *Recorder) {
		tex := r.CreateTexture(colorDesc("atlas"))
		r.AddRenderPass("Lighting", func(b *PassBuilder) {
			b.WriteTexture(tex)
			b.AllowPassCulling(false)
			b.SetRenderFunc(func(ctx *Context) {
				calls++
				ctx.Cmd().SetRenderTarget([]renderer.Texture{ctx.Texture(tex)}, nil)
			})
		})
	})
	if calls != 1 {
		t.Errorf("forced pass ran %d times, want 1", calls)
	}

	cmds := cmd.Commands()
	if len(cmds) != 3 || cmds[0].Type != renderer.CmdBeginSample || cmds[2].Type != renderer.CmdEndSample {
		t.Fatalf("commands not wrapped in a sample: %v", cmds)
	}
	if cmds[0].Name != "Lighting" || cmds[2].Name != "Lighting" {
		t.Errorf("sample names = %q/%q, want Lighting", cmds[0].Name, cmds[2].Name)
	}
}

func TestRendererListCulling(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		listCull   bool
		wantCulled int
	}{
		{"empty list culls producer and dependent", 0, true, 2},
		{"non empty list keeps both", 3, true, 0},
		{"empty list without list culling falls back to readers", 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, dev := newTestGraph(t, WithRendererListCulling(tt.listCull))
			target, _ := dev.CameraTarget(16, 16)
			run(t, g, func(r *Recorder) {
				list := r.CreateRendererList(fakeList{name: "opaque", count: tt.count})
				shadow := r.CreateTexture(colorDesc("shadow"))
				cam := r.ImportTexture(target)
				r.AddRenderPass("ColorShadow", func(b *PassBuilder) {
					b.UseRendererList(list)
					b.WriteTexture(shadow)
					b.SetRenderFunc(func(ctx *Context) {
						ctx.Cmd().DrawRendererList(ctx.RendererList(list))
					})
				})
				r.AddRenderPass("Blur", func(b *PassBuilder) {
					b.DependsOn(list)
					b.ReadTexture(shadow)
					b.WriteTexture(cam)
					b.SetRenderFunc(func(*Context) {})
				})
			})
			if got := g.Stats().Culled; got != tt.wantCulled {
				t.Errorf("culled %d, want %d (%v)", got, tt.wantCulled, g.Stats().CulledNames)
			}
		})
	}
}

func TestPoolAliasesDisjointLifetimes(t *testing.T) {
	g, dev := newTestGraph(t)
	target, _ := dev.CameraTarget(16, 16)
	var first, second uint64

	run(t, g, func(r *Recorder) {
		a := r.CreateTexture(colorDesc("a"))
		b2 := r.CreateTexture(colorDesc("b"))
		cam := r.ImportTexture(target)
		r.AddRenderPass("WriteA", func(b *PassBuilder) {
			b.WriteTexture(a)
			b.SetRenderFunc(func(ctx *Context) { first = ctx.Texture(a).ID() })
		})
		r.AddRenderPass("ReadA", func(b *PassBuilder) {
			b.ReadTexture(a)
			b.ReadWriteTexture(cam)
			b.SetRenderFunc(func(*Context) {})
		})
		r.AddRenderPass("WriteB", func(b *PassBuilder) {
			b.WriteTexture(b2)
			b.SetRenderFunc(func(ctx *Context) { second = ctx.Texture(b2).ID() })
		})
		r.AddRenderPass("ReadB", func(b *PassBuilder) {
			b.ReadTexture(b2)
			b.ReadWriteTexture(cam)
			b.SetRenderFunc(func(*Context) {})
		})
	})

	if first == 0 || first != second {
		t.Errorf("textures with disjoint lifetimes not aliased: %d vs %d", first, second)
	}
	if s := g.Stats(); s.Allocated != 1 || s.Reused != 1 {
		t.Errorf("allocated %d reused %d, want 1 and 1", s.Allocated, s.Reused)
	}
}

func TestStaleHandlePanics(t *testing.T) {
	g, _ := newTestGraph(t)
	var stale TextureHandle
	run(t, g, func(r *Recorder) {
		stale = r.CreateTexture(colorDesc("old"))
	})

	expectViolation(t, ErrStaleHandle, func() {
		_ = g.RecordAndExecute(RecordParams{CommandBuffer: renderer.NewCommandBuffer("next")}, func(r *Recorder) {
			r.AddRenderPass("UsesOld", func(b *PassBuilder) {
				b.ReadTexture(stale)
			})
		})
	})

	other, _ := newTestGraph(t)
	expectViolation(t, ErrStaleHandle, func() {
		_ = other.RecordAndExecute(RecordParams{CommandBuffer: renderer.NewCommandBuffer("foreign")}, func(r *Recorder) {
			r.AddRenderPass("Foreign", func(b *PassBuilder) {
				b.WriteTexture(stale)
			})
		})
	})
}

func TestUndeclaredAccessPanicsAndReturnsTextures(t *testing.T) {
	g, dev := newTestGraph(t)
	expectViolation(t, ErrUndeclaredAccess, func() {
		_ = g.RecordAndExecute(RecordParams{CommandBuffer: renderer.NewCommandBuffer("cam")}, func(r *Recorder) {
			declared := r.CreateTexture(colorDesc("declared"))
			hidden := r.CreateTexture(colorDesc("hidden"))
			r.AddRenderPass("Sneaky", func(b *PassBuilder) {
				b.WriteTexture(declared)
				b.AllowPassCulling(false)
				b.SetRenderFunc(func(ctx *Context) {
					ctx.Texture(hidden)
				})
			})
		})
	})
	if g.PooledTextures() != dev.Live() {
		t.Errorf("pool holds %d textures, device has %d live", g.PooledTextures(), dev.Live())
	}

	// the graph stays usable after a violation
	run(t, g, func(r *Recorder) {})
}

func TestNilRenderFuncPanics(t *testing.T) {
	g, _ := newTestGraph(t)
	expectViolation(t, nil, func() {
		_ = g.RecordAndExecute(RecordParams{CommandBuffer: renderer.NewCommandBuffer("cam")}, func(r *Recorder) {
			r.AddRenderPass("NoFunc", func(b *PassBuilder) {
				b.AllowPassCulling(false)
			})
		})
	})
}

func TestAddPassOutsideRecordingPanics(t *testing.T) {
	g, _ := newTestGraph(t)
	var kept *Recorder
	run(t, g, func(r *Recorder) { kept = r })
	expectViolation(t, ErrNotRecording, func() {
		kept.AddRenderPass("Late", func(*PassBuilder) {})
	})
}

func TestTemporariesReleasedAndEvicted(t *testing.T) {
	g, dev := newTestGraph(t, WithPoolRetentionFrames(1))
	run(t, g, func(r *Recorder) {
		r.AddRenderPass("Temps", func(b *PassBuilder) {
			b.AllowPassCulling(false)
			b.SetRenderFunc(func(ctx *Context) {
				_, release := ctx.TemporaryTexture(colorDesc("released"))
				release()
				release()
				ctx.TemporaryTexture(colorDesc("leaked"))
			})
		})
	})

	if got := g.PooledTextures(); got != 1 {
		t.Errorf("pooled = %d, want 1 (both temporaries share one texture)", got)
	}

	g.EndFrame()
	if dev.Live() != 1 {
		t.Errorf("texture evicted before the retention window passed")
	}
	g.EndFrame()
	if dev.Live() != 0 {
		t.Errorf("live = %d after retention window, want 0", dev.Live())
	}
}

func TestDefaultShadowTexturePersists(t *testing.T) {
	g, dev := newTestGraph(t)
	var ids []uint64
	for range 2 {
		run(t, g, func(r *Recorder) {
			shadow := r.DefaultShadowTexture()
			r.AddRenderPass("Lighting", func(b *PassBuilder) {
				b.ReadTexture(shadow)
				b.AllowPassCulling(false)
				b.SetRenderFunc(func(ctx *Context) { ids = append(ids, ctx.Texture(shadow).ID()) })
			})
		})
		g.EndFrame()
	}
	if len(ids) != 2 || ids[0] != ids[1] {
		t.Errorf("default shadow texture ids = %v, want the same texture twice", ids)
	}
	if dev.Created() != 1 {
		t.Errorf("created %d, want 1", dev.Created())
	}
	g.Cleanup()
	if dev.Live() != 0 {
		t.Errorf("live = %d after Cleanup, want 0", dev.Live())
	}
}

func TestCommandsExecuteAgainstLiveTextures(t *testing.T) {
	g, dev := newTestGraph(t)
	target, _ := dev.CameraTarget(16, 16)
	cmd := run(t, g, func(r *Recorder) {
		a := r.CreateTexture(colorDesc("a"))
		cam := r.ImportTexture(target)
		r.AddRenderPass("Draw", func(b *PassBuilder) {
			b.WriteTexture(a)
			b.SetRenderFunc(func(ctx *Context) {
				ctx.Cmd().SetRenderTarget([]renderer.Texture{ctx.Texture(a)}, nil)
			})
		})
		r.AddRenderPass("Blit", func(b *PassBuilder) {
			b.ReadTexture(a)
			b.WriteTexture(cam)
			b.SetRenderFunc(func(ctx *Context) {
				ctx.Cmd().CopyTexture(ctx.Texture(a), ctx.Texture(cam))
			})
		})
	})
	if err := dev.ExecuteCommandBuffer(cmd); err != nil {
		t.Fatalf("execute: %v", err)
	}
}
