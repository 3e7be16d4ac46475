package rendergraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
)

// compile culls passes and computes texture lifetimes over the survivors.
//
// A pass survives when it is forced, writes an imported texture, draws a non empty
// renderer list, or writes a texture read by a later surviving pass. With renderer
// list culling a pass whose lists are all empty is culled unless forced, and a pass
// depending on a list whose producer was culled is culled as well. Culling a pass
// drops its reads, which may in turn cull the passes producing them, so the rules
// are applied until nothing changes.
func (g *Graph) compile() {
	for _, p := range g.passes {
		p.culled = false
		if !p.force && g.rendererListCulling && len(p.uses) > 0 && g.allListsEmpty(p) {
			p.culled = true
		}
	}

	for changed := true; changed; {
		changed = false
		for _, p := range g.passes {
			if p.culled || p.force {
				continue
			}
			if g.dependencyCulled(p) || !g.hasSideEffect(p) && !g.hasLaterReader(p) {
				p.culled = true
				changed = true
			}
		}
	}

	g.stats.Passes = len(g.passes)
	for _, p := range g.passes {
		if !p.culled {
			if p.render == nil {
				violate(p.name, "compile", fmt.Errorf("surviving pass has no render function"))
			}
			continue
		}
		g.stats.Culled++
		g.stats.CulledNames = append(g.stats.CulledNames, p.name)
		common.Logger().Debug("rendergraph: culled pass", "pass", p.name)
	}

	for _, p := range g.passes {
		if p.culled {
			continue
		}
		for _, idx := range p.order {
			t := g.textures[idx]
			if t.firstUse < 0 {
				t.firstUse = p.index
			}
			t.lastUse = p.index
		}
	}
}

func (g *Graph) allListsEmpty(p *pass) bool {
	for _, idx := range p.uses {
		if !g.lists[idx].list.IsEmpty() {
			return false
		}
	}
	return true
}

func (g *Graph) dependencyCulled(p *pass) bool {
	for _, idx := range p.dependsOn {
		producer := g.lists[idx].producer
		if producer >= 0 && g.passes[producer].culled {
			return true
		}
	}
	return false
}

// hasSideEffect reports whether the pass is observable outside the graph: it writes
// an imported texture or draws a non empty renderer list.
func (g *Graph) hasSideEffect(p *pass) bool {
	for _, idx := range p.order {
		if p.accesses[idx]&AccessWrite != 0 && g.textures[idx].kind != kindTransient {
			return true
		}
	}
	for _, idx := range p.uses {
		if !g.lists[idx].list.IsEmpty() {
			return true
		}
	}
	return false
}

func (g *Graph) hasLaterReader(p *pass) bool {
	for _, idx := range p.order {
		if p.accesses[idx]&AccessWrite == 0 {
			continue
		}
		for _, q := range g.passes[p.index+1:] {
			if !q.culled && q.accesses[idx]&AccessRead != 0 {
				return true
			}
		}
	}
	return false
}
