package rendergraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

type pooledTexture struct {
	tex      renderer.Texture
	lastUsed uint64
}

// texturePool groups free physical textures by descriptor key. Textures returned
// to the pool stay allocated until they go unused for the retention window.
type texturePool struct {
	device  renderer.Device
	buckets map[renderer.TextureDescriptor][]pooledTexture
	free    int
}

func newTexturePool(device renderer.Device) *texturePool {
	return &texturePool{
		device:  device,
		buckets: make(map[renderer.TextureDescriptor][]pooledTexture),
	}
}

// get pops a free texture matching desc or allocates a new one. reused reports a pool hit.
func (p *texturePool) get(desc renderer.TextureDescriptor) (tex renderer.Texture, reused bool, err error) {
	key := desc.Key()
	if bucket := p.buckets[key]; len(bucket) > 0 {
		e := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.free--
		return e.tex, true, nil
	}
	tex, err = p.device.CreateTexture(desc)
	if err != nil {
		return nil, false, fmt.Errorf("allocate %q: %w", desc.Label, err)
	}
	return tex, false, nil
}

func (p *texturePool) put(tex renderer.Texture, frame uint64) {
	key := tex.Descriptor().Key()
	p.buckets[key] = append(p.buckets[key], pooledTexture{tex: tex, lastUsed: frame})
	p.free++
}

// evict releases free textures unused for more than retention frames.
func (p *texturePool) evict(frame uint64, retention int) int {
	evicted := 0
	for key, bucket := range p.buckets {
		kept := bucket[:0]
		for _, e := range bucket {
			if frame-e.lastUsed > uint64(retention) {
				e.tex.Release()
				evicted++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(p.buckets, key)
		} else {
			p.buckets[key] = kept
		}
	}
	p.free -= evicted
	if evicted > 0 {
		common.Logger().Debug("rendergraph: evicted pooled textures", "count", evicted, "frame", frame)
	}
	return evicted
}

func (p *texturePool) releaseAll() {
	for key, bucket := range p.buckets {
		for _, e := range bucket {
			e.tex.Release()
		}
		delete(p.buckets, key)
	}
	p.free = 0
}
