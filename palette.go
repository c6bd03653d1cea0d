package pixelart

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
)

// Lloyd passes applied to the median cut palette.
const refinePasses = 8

// ReducePalette maps the colors of img to at most colors representatives.
// Alpha is held aside while the palette is built from the color channels and
// is copied back unchanged, so out.A == img.A for every pixel.
// colors <= 0 returns an unmodified copy and a nil palette.
func ReducePalette(img *image.NRGBA, colors int) (*image.NRGBA, color.Palette) {
	if colors <= 0 {
		return imaging.Clone(img), nil
	}
	b := img.Bounds()
	alpha := extractAlpha(img)
	palette := buildPalette(visibleColors(img, alpha), colors)

	out := image.NewNRGBA(b)
	memo := make(map[color.NRGBA]color.NRGBA)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			c.A = 0xff
			m, ok := memo[c]
			if !ok {
				m = palette.nearest(c)
				memo[c] = m
			}
			m.A = alpha.AlphaAt(x, y).A
			out.SetNRGBA(x, y, m)
		}
	}
	return out, palette.colorPalette()
}

func extractAlpha(img *image.NRGBA) *image.Alpha {
	b := img.Bounds()
	alpha := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			alpha.SetAlpha(x, y, color.Alpha{A: img.NRGBAAt(x, y).A})
		}
	}
	return alpha
}

// visibleColors returns the opaque color projection of every pixel with
// non-zero alpha, or of every pixel when none is visible.
func visibleColors(img *image.NRGBA, alpha *image.Alpha) []color.NRGBA {
	b := img.Bounds()
	all := make([]color.NRGBA, 0, b.Dx()*b.Dy())
	visible := make([]color.NRGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			c.A = 0xff
			all = append(all, c)
			if alpha.AlphaAt(x, y).A > 0 {
				visible = append(visible, c)
			}
		}
	}
	if len(visible) == 0 {
		return all
	}
	return visible
}

type labPalette []colorful.Color

// buildPalette seeds k colors with median cut and moves them with Lloyd
// iterations in Lab space. Nothing here is random.
func buildPalette(samples []color.NRGBA, k int) labPalette {
	strip := image.NewNRGBA(image.Rect(0, 0, len(samples), 1))
	for i, c := range samples {
		strip.SetNRGBA(i, 0, c)
	}
	q := quantize.MedianCutQuantizer{}
	seed := q.Quantize(make(color.Palette, 0, k), strip)
	if len(seed) == 0 {
		seed = color.Palette{samples[0]}
	}
	if len(seed) > k {
		seed = seed[:k]
	}

	obs := make(clusters.Observations, 0, len(samples))
	for _, c := range samples {
		obs = append(obs, labCoordinates(c))
	}
	cc := make(clusters.Clusters, 0, len(seed))
	for _, c := range seed {
		cc = append(cc, clusters.Cluster{Center: labCoordinates(c)})
	}
	for range refinePasses {
		cc.Reset()
		for _, o := range obs {
			n := cc.Nearest(o)
			cc[n].Append(o)
		}
		cc.Recenter()
	}

	out := make(labPalette, 0, len(cc))
	seen := make(map[color.NRGBA]bool, len(cc))
	for _, c := range cc {
		col := colorful.Lab(c.Center[0], c.Center[1], c.Center[2]).Clamped()
		r, g, b := col.RGB255()
		key := color.NRGBA{R: r, G: g, B: b, A: 0xff}
		if seen[key] {
			continue
		}
		seen[key] = true
		// Snap to the 8-bit color so mapping and output agree.
		snapped, _ := colorful.MakeColor(key)
		out = append(out, snapped)
	}
	return out
}

func labCoordinates(c color.Color) clusters.Coordinates {
	col, _ := colorful.MakeColor(c)
	l, a, b := col.Lab()
	return clusters.Coordinates{l, a, b}
}

// nearest returns the palette entry closest to c in Lab space. Ties go to the
// earlier entry.
func (p labPalette) nearest(c color.NRGBA) color.NRGBA {
	col, _ := colorful.MakeColor(c)
	best := 0
	bestD := col.DistanceLab(p[0])
	for i := 1; i < len(p); i++ {
		if d := col.DistanceLab(p[i]); d < bestD {
			best, bestD = i, d
		}
	}
	r, g, b := p[best].RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func (p labPalette) colorPalette() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 0xff}
	}
	return out
}
