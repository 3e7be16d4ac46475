package light

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ink/common"
	"github.com/Carmen-Shannon/oxy-ink/engine/renderer"
)

type countingReserver struct {
	dir, other []int
}

func (r *countingReserver) ReserveDirectionalShadows(l Light, i int) common.Vec4 {
	r.dir = append(r.dir, i)
	return common.Vec4{1, float32(i)}
}

func (r *countingReserver) ReserveOtherShadows(l Light, i int) common.Vec4 {
	r.other = append(r.other, i)
	return common.Vec4{1, float32(i)}
}

func TestGlobalsSetupLimits(t *testing.T) {
	var visible []Light
	for i := 0; i < 6; i++ {
		visible = append(visible, NewLight(LightTypeDirectional))
	}
	for i := 0; i < 10; i++ {
		visible = append(visible, NewLight(LightTypePoint))
	}

	g := NewGlobals(InkLimits)
	r := &countingReserver{}
	total := g.Setup(visible, ^uint32(0), r)

	if total != 9 {
		t.Fatalf("total = %d, want 9", total)
	}
	if g.DirectionalCount != 4 || g.OtherCount != 5 {
		t.Errorf("counts = %d directional, %d other", g.DirectionalCount, g.OtherCount)
	}
	if len(r.dir) != 4 || r.dir[3] != 3 {
		t.Errorf("directional reservations %v", r.dir)
	}
	// visible indices 4 and 5 are directional lights past the limit
	if len(r.other) != 5 || r.other[0] != 6 {
		t.Errorf("other reservations %v", r.other)
	}
}

func TestGlobalsLayerMask(t *testing.T) {
	visible := []Light{
		NewLight(LightTypeDirectional, WithRenderingLayerMask(2)),
		NewLight(LightTypeSpot, WithRenderingLayerMask(1)),
	}
	g := NewGlobals(InkLimits)
	g.Setup(visible, 1, &countingReserver{})

	if g.DirectionalCount != 0 || g.OtherCount != 1 {
		t.Fatalf("counts = %d, %d", g.DirectionalCount, g.OtherCount)
	}
	if g.OtherShadowData[0][1] != 1 {
		t.Errorf("spot reserved with visible index %v, want 1", g.OtherShadowData[0][1])
	}
	if bits := math.Float32bits(g.OtherDirectionsAndMasks[0][3]); bits != 1 {
		t.Errorf("mask bits = %d, want 1", bits)
	}
}

func TestGlobalsPacking(t *testing.T) {
	visible := []Light{
		NewLight(LightTypeDirectional, WithDirection(0, -1, 0), WithColor(1, 0.5, 0), WithIntensity(2)),
		NewLight(LightTypePoint, WithPosition(1, 2, 3), WithRange(0)),
	}
	g := NewGlobals(InkLimits)
	g.Setup(visible, 1, &countingReserver{})

	if g.Colors[0] != (common.Vec4{2, 1, 0, 1}) {
		t.Errorf("directional color = %v", g.Colors[0])
	}
	if g.Colors[1][3] != 0 {
		t.Errorf("point color alpha = %v, want 0", g.Colors[1][3])
	}
	d := g.DirectionsAndMasks[0]
	if d[0] != 0 || d[1] != 1 || d[2] != 0 {
		t.Errorf("directional dir = %v, want the negated shining direction", d)
	}
	p := g.OtherPositions[0]
	if p[0] != 1 || p[1] != 2 || p[2] != 3 || p[3] != 0.00001 {
		t.Errorf("point position = %v", p)
	}
	if g.OtherSpotAngles[0] != (common.Vec4{0, 1}) {
		t.Errorf("point spot angles = %v", g.OtherSpotAngles[0])
	}
}

func TestSpotAngles(t *testing.T) {
	a := SpotAngles(30, 30)
	if math.Abs(float64(a[0])-1000) > 1e-2 {
		t.Errorf("degenerate cone inv range = %v, want 1000", a[0])
	}
	a = SpotAngles(20, 40)
	inner := math.Cos(10 * math.Pi / 180)
	outer := math.Cos(20 * math.Pi / 180)
	want := 1 / (inner - outer)
	if math.Abs(float64(a[0])-want) > 1e-2 {
		t.Errorf("inv range = %v, want %v", a[0], want)
	}
}

func TestGlobalsApply(t *testing.T) {
	g := NewGlobals(InkLimits)
	g.Setup([]Light{NewLight(LightTypeSpot)}, 1, &countingReserver{})

	cmd := renderer.NewCommandBuffer("lights")
	g.Apply(cmd)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name] = true
	}
	if names[DirectionalLightDirsAndMasksID] {
		t.Error("directional arrays set without directional lights")
	}
	for _, n := range []string{TotalLightCountID, LightColorsID, OtherLightPositionsID, OtherLightShadowDataID} {
		if !names[n] {
			t.Errorf("%s not set", n)
		}
	}
}
