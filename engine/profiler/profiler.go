package profiler

import (
	"cmp"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ink/common"
)

// PassTiming is the accumulated CPU time of one render pass over a reporting interval.
type PassTiming struct {
	Name    string
	Runs    int
	Total   time.Duration
	Average time.Duration
}

// Profiler tracks frame rate, memory statistics and per pass CPU timings.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	passes map[string]*PassTiming
	last   []PassTiming
	now    func() time.Time
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - interval: the reporting interval, 0 for the default
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Profiler{
		mu:             &sync.Mutex{},
		updateInterval: interval,
		passes:         make(map[string]*PassTiming),
		now:            time.Now,
	}
	p.lastTime = p.now()
	return p
}

// ObservePass records one execution of a render pass. It matches the render
// graph's pass observer signature.
//
// Parameters:
//   - name: the pass name
//   - elapsed: the CPU time spent recording the pass
func (p *Profiler) ObservePass(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.passes[name]
	if !ok {
		t = &PassTiming{Name: name}
		p.passes[name] = t
	}
	t.Runs++
	t.Total += elapsed
}

// Passes returns the pass timings of the last completed interval, slowest first.
func (p *Profiler) Passes() []PassTiming {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.last)
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times,
// total memory and the slowest passes.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.last = p.last[:0]
	for _, t := range p.passes {
		t.Average = t.Total / time.Duration(t.Runs)
		p.last = append(p.last, *t)
	}
	slices.SortFunc(p.last, func(a, b PassTiming) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	clear(p.passes)

	attrs := []any{
		slog.Float64("fps", fps),
		slog.Float64("heapMB", allocMB),
		slog.Float64("allocRateMBs", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Uint64("lastPauseUs", lastPauseUs),
		slog.Uint64("maxPauseUs", maxPauseUs),
		slog.Float64("sysMB", sysMB),
	}
	if len(p.last) > 0 {
		attrs = append(attrs, slog.String("slowestPass", p.last[0].Name), slog.Duration("slowestPassAvg", p.last[0].Average))
	}
	common.Logger().Info("profiler", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
