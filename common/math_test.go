package common

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestFrustumTests(t *testing.T) {
	var proj [16]float32
	Perspective(proj[:], 60*Deg2Rad, 1, 1, 10)
	f := ExtractFrustumFromMatrix(proj[:])

	if n := f.Planes[FrustumNear]; !near(n.Normal[2], -1) || !near(n.Distance, -1) {
		t.Errorf("near plane = %+v, want normal -Z at distance 1", n)
	}

	tests := []struct {
		name   string
		center [3]float32
		radius float32
		want   bool
	}{
		{"inside", [3]float32{0, 0, -5}, 0.5, true},
		{"behind", [3]float32{0, 0, 5}, 0.5, false},
		{"beyond far", [3]float32{0, 0, -20}, 0.5, false},
		{"straddles far", [3]float32{0, 0, -10.5}, 1, true},
		{"off to the side", [3]float32{50, 0, -5}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ContainsSphere(tt.center, tt.radius); got != tt.want {
				t.Errorf("ContainsSphere = %v, want %v", got, tt.want)
			}
			b := Bounds{Center: tt.center, Extents: [3]float32{tt.radius, tt.radius, tt.radius}}
			if got := f.IntersectsBounds(b); got != tt.want {
				t.Errorf("IntersectsBounds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvert4(t *testing.T) {
	var view, inv [16]float32
	LookAt(view[:], [3]float32{3, 4, 5}, [3]float32{0, 1, 0}, [3]float32{0, 1, 0})
	if !Invert4(inv[:], view[:]) {
		t.Fatal("view matrix should be invertible")
	}
	id := Mul(view, inv)
	want := IdentityMatrix()
	for i := range id {
		if !near(id[i], want[i]) {
			t.Fatalf("view * inverse = %v", id)
		}
	}

	var zero [16]float32
	if Invert4(inv[:], zero[:]) {
		t.Error("zero matrix is singular")
	}
}

func TestBoundsEncapsulate(t *testing.T) {
	a := Bounds{Center: [3]float32{0, 0, 0}, Extents: [3]float32{1, 1, 1}}
	b := Bounds{Center: [3]float32{4, 0, 0}, Extents: [3]float32{1, 1, 1}}
	got := a.Encapsulate(b)
	if got.Center != [3]float32{2, 0, 0} || got.Extents != [3]float32{3, 1, 1} {
		t.Errorf("encapsulated = %+v", got)
	}
	if (Bounds{}).Encapsulate(b) != b {
		t.Error("empty bounds should become the other box")
	}
}

func TestIntHelpers(t *testing.T) {
	for n, want := range []int{0, 1, 1, 2, 2, 3} {
		if got := CeilDiv(n, 2); got != want {
			t.Errorf("CeilDiv(%d, 2) = %d, want %d", n, got, want)
		}
	}
	if Clamp(7, 0, 5) != 5 || Clamp(float32(-1), 0, 1) != 0 {
		t.Error("Clamp out of range")
	}
	if Coalesce("", "a", "b") != "a" || Coalesce(0, 0) != 0 {
		t.Error("Coalesce should return the first non-zero value")
	}
}
