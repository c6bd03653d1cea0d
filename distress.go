package pixelart

import (
	"fmt"
	"image"
	"log"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const DefaultDecayRate = 0.65

// EdgeDistance is the number of grid cells between (x, y) and the nearest
// border of a w×h grid. Border cells are at distance 0.
func EdgeDistance(x, y, w, h int) int {
	return min(min(x, w-1-x), min(y, h-1-y))
}

// ChipProbability is the chance that a cell at the given edge distance is
// chipped: intensity/100 × decay^distance.
func ChipProbability(distance, intensity int, decay float64) float64 {
	return float64(intensity) / 100 * math.Pow(decay, float64(distance))
}

// ProbabilityMap returns the chip probability of every cell of a w×h grid.
// Rows are y, columns are x.
func ProbabilityMap(w, h, intensity int, decay float64) *mat.Dense {
	m := mat.NewDense(h, w, nil)
	raw := m.RawMatrix()
	for y := range h {
		row := y * raw.Stride
		for x := range w {
			raw.Data[row+x] = ChipProbability(EdgeDistance(x, y, w, h), intensity, decay)
		}
	}
	return m
}

func validDecay(decay float64) bool {
	return decay > 0 && decay <= 1
}

// Distress returns a copy of img in which cells near the border are made
// fully transparent at random. Each cell gets one uniform draw, in row-major
// order, from src. Color channels of chipped cells are kept.
//
// A decay outside (0, 1] is replaced by DefaultDecayRate. A nil src is
// seeded randomly.
func Distress(img *image.NRGBA, intensity int, decay float64, src rand.Source) (*image.NRGBA, error) {
	if intensity < 0 || intensity > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidIntensity, intensity)
	}
	out := imaging.Clone(img)
	if intensity == 0 {
		return out, nil
	}
	if !validDecay(decay) {
		log.Printf("distress warning: decay rate %g outside (0, 1], using %g", decay, DefaultDecayRate)
		decay = DefaultDecayRate
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	w, h := out.Rect.Dx(), out.Rect.Dy()
	probs := ProbabilityMap(w, h, intensity, decay).RawMatrix()
	u := distuv.Uniform{Min: 0, Max: 1, Src: src}
	for y := range h {
		row := y * probs.Stride
		for x := range w {
			if u.Rand() < probs.Data[row+x] {
				out.Pix[out.PixOffset(x, y)+3] = 0
			}
		}
	}
	return out, nil
}

// RingCoverage reports, for each edge distance d, the fraction of cells at
// distance d that are fully transparent.
func RingCoverage(img *image.NRGBA) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	rings := make([][]float64, (min(w, h)+1)/2)
	for y := range h {
		for x := range w {
			d := EdgeDistance(x, y, w, h)
			v := 0.0
			if img.NRGBAAt(b.Min.X+x, b.Min.Y+y).A == 0 {
				v = 1
			}
			rings[d] = append(rings[d], v)
		}
	}
	out := make([]float64, len(rings))
	for d, vals := range rings {
		out[d] = stat.Mean(vals, nil)
	}
	return out
}
