package pixelart

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestEdgeDistance(t *testing.T) {
	for _, tc := range []struct {
		x, y, w, h int
		want       int
	}{
		{0, 0, 5, 5, 0},
		{4, 2, 5, 5, 0},
		{2, 4, 5, 5, 0},
		{1, 1, 5, 5, 1},
		{2, 2, 5, 5, 2},
		{3, 1, 10, 4, 1},
		{5, 2, 10, 6, 2},
		{0, 0, 1, 1, 0},
	} {
		if got := EdgeDistance(tc.x, tc.y, tc.w, tc.h); got != tc.want {
			t.Errorf("EdgeDistance(%d,%d,%d,%d) = %d want %d", tc.x, tc.y, tc.w, tc.h, got, tc.want)
		}
	}
}

func TestChipProbability_Decays(t *testing.T) {
	for _, decay := range []float64{0.1, 0.5, 0.65, 0.99} {
		prev := ChipProbability(0, 80, decay)
		if math.Abs(prev-0.8) > 1e-12 {
			t.Fatalf("decay %g: border probability %g want 0.8", decay, prev)
		}
		for d := 1; d < 10; d++ {
			p := ChipProbability(d, 80, decay)
			if p >= prev {
				t.Fatalf("decay %g: probability at %d (%g) not below %d (%g)", decay, d, p, d-1, prev)
			}
			prev = p
		}
	}
	if p := ChipProbability(7, 50, 1); p != 0.5 {
		t.Errorf("decay 1: got %g want a flat 0.5", p)
	}
}

func TestProbabilityMap(t *testing.T) {
	m := ProbabilityMap(6, 4, 100, 0.5)
	if r, c := m.Dims(); r != 4 || c != 6 {
		t.Fatalf("dims %dx%d want 4x6", r, c)
	}
	if got := m.At(0, 3); got != 1 {
		t.Errorf("border cell: got %g want 1", got)
	}
	if got := m.At(1, 2); got != 0.5 {
		t.Errorf("inner cell: got %g want 0.5", got)
	}
}

func TestDistress_BorderRing(t *testing.T) {
	src := makeTestImage(12, 9)
	out, err := Distress(src, 100, 1e-12, rand.NewPCG(7, 7))
	if err != nil {
		t.Fatalf("Distress: %v", err)
	}
	for y := range 9 {
		for x := range 12 {
			got, orig := out.NRGBAAt(x, y), src.NRGBAAt(x, y)
			if got.R != orig.R || got.G != orig.G || got.B != orig.B {
				t.Fatalf("color at (%d,%d) changed: %v -> %v", x, y, orig, got)
			}
			border := EdgeDistance(x, y, 12, 9) == 0
			if border && got.A != 0 {
				t.Fatalf("border cell (%d,%d) not chipped", x, y)
			}
			if !border && got.A != 255 {
				t.Fatalf("interior cell (%d,%d) chipped", x, y)
			}
		}
	}
}

func TestDistress_DoesNotMutateInput(t *testing.T) {
	src := makeTestImage(10, 10)
	before := bytes.Clone(src.Pix)
	out, err := Distress(src, 100, 0.9, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatalf("Distress: %v", err)
	}
	if !bytes.Equal(src.Pix, before) {
		t.Fatal("input pixels were modified")
	}
	if out == src {
		t.Fatal("Distress returned its input")
	}
}

func TestDistress_SeedReproducible(t *testing.T) {
	src := makeTestImage(30, 20)
	a, err := Distress(src, 70, 0.65, rand.NewPCG(42, 0))
	if err != nil {
		t.Fatalf("Distress: %v", err)
	}
	b, err := Distress(src, 70, 0.65, rand.NewPCG(42, 0))
	if err != nil {
		t.Fatalf("Distress: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("same seed produced different chips")
	}
}

func TestDistress_InvalidDecayFallsBack(t *testing.T) {
	src := makeTestImage(16, 16)
	want, err := Distress(src, 60, DefaultDecayRate, rand.NewPCG(3, 4))
	if err != nil {
		t.Fatalf("Distress: %v", err)
	}
	for _, decay := range []float64{0, -0.2, 1.5, math.NaN()} {
		got, err := Distress(src, 60, decay, rand.NewPCG(3, 4))
		if err != nil {
			t.Fatalf("decay %g: %v", decay, err)
		}
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("decay %g: result differs from the default decay", decay)
		}
	}
}

func TestDistress_Intensity(t *testing.T) {
	src := makeTestImage(8, 8)
	for _, n := range []int{-1, 101} {
		if _, err := Distress(src, n, 0.5, nil); !errors.Is(err, ErrInvalidIntensity) {
			t.Errorf("intensity %d: got %v want ErrInvalidIntensity", n, err)
		}
	}
	out, err := Distress(src, 0, 0.5, nil)
	if err != nil {
		t.Fatalf("intensity 0: %v", err)
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("intensity 0 changed the image")
	}
}

func TestDistress_GeometricFalloff(t *testing.T) {
	src := makeTestImage(200, 200)
	out, err := Distress(src, 100, 0.5, rand.NewPCG(2024, 10))
	if err != nil {
		t.Fatalf("Distress: %v", err)
	}
	cov := RingCoverage(out)
	if len(cov) != 100 {
		t.Fatalf("got %d rings want 100", len(cov))
	}
	for d := range 5 {
		want := math.Pow(0.5, float64(d))
		if math.Abs(cov[d]-want) > 0.08 {
			t.Errorf("ring %d: chipped %.3f want ~%.3f", d, cov[d], want)
		}
		if d > 0 && cov[d] > cov[d-1] {
			t.Errorf("ring %d chipped more (%.3f) than ring %d (%.3f)", d, cov[d], d-1, cov[d-1])
		}
	}
}

func TestRingCoverage_Untouched(t *testing.T) {
	cov := RingCoverage(makeTestImage(7, 5))
	if len(cov) != 3 {
		t.Fatalf("got %d rings want 3", len(cov))
	}
	for d, c := range cov {
		if c != 0 {
			t.Errorf("ring %d: coverage %g want 0", d, c)
		}
	}
}
