package pixelart

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

type Options struct {
	// Side of one output block in source pixels. Must be > 0.
	// Larger values => fewer, bigger blocks.
	PixelSize int
	// Target palette size for the downscaled image.
	// <= 0 keeps the averaged block colors.
	Colors int
	// Chip probability of border blocks in percent, 0-100.
	// 0 disables distress.
	DistressIntensity int
	// Per-cell falloff of chip probability toward the interior, in (0, 1].
	// Near 1 chips deep into the image; near 0 only the outer ring.
	DecayRate float64
	// Downscale filter. Zero value means imaging.Lanczos.
	Filter imaging.ResampleFilter
	// Source of the distress draws. Nil means a randomly seeded PCG.
	Source rand.Source
}

func DefaultOptions() Options {
	return Options{
		PixelSize: 8,
		DecayRate: DefaultDecayRate,
		Filter:    imaging.Lanczos,
	}
}

// OptionsFromSize picks a pixel size that leaves roughly 32-96 blocks along
// the longer side.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	longest := max(size.X, size.Y)
	targetBlocks := 64
	if longest <= 256 {
		targetBlocks = 32
	} else if longest > 2048 {
		targetBlocks = 96
	}
	opt.PixelSize = max(1, longest/targetBlocks)
	return opt
}

func (o Options) Validate() error {
	if o.PixelSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPixelSize, o.PixelSize)
	}
	if o.DistressIntensity < 0 || o.DistressIntensity > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidIntensity, o.DistressIntensity)
	}
	return nil
}

// Mode tells whether an image carries meaningful opacity.
type Mode int

const (
	Opaque Mode = iota
	Translucent
)

func (m Mode) String() string {
	switch m {
	case Translucent:
		return "translucent"
	default:
		return "opaque"
	}
}

// Classify reports Translucent if any pixel of img is not fully opaque.
func Classify(img image.Image) Mode {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		if o.Opaque() {
			return Opaque
		}
		return Translucent
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return Translucent
			}
		}
	}
	return Opaque
}

type State int

const (
	Loaded State = iota
	AlphaClassified
	Downscaled
	PaletteReduced
	Distressed
	Upscaled
	ModeFinalized
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case AlphaClassified:
		return "alpha-classified"
	case Downscaled:
		return "downscaled"
	case PaletteReduced:
		return "palette-reduced"
	case Distressed:
		return "distressed"
	case Upscaled:
		return "upscaled"
	case ModeFinalized:
		return "mode-finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Pixelator struct {
	Input image.Image
	// Mode of the image moving through the pipeline. Starts as the input
	// classification and becomes Translucent once distress is applied.
	Mode  Mode
	State State
	Grid  image.Point
	// Downscaled image after the optional palette and distress stages.
	Small   *image.NRGBA
	Palette color.Palette
	// Set only when Build succeeds. *image.RGBA for Opaque, *image.NRGBA for
	// Translucent.
	Output image.Image
}

func New(input image.Image) *Pixelator {
	return &Pixelator{Input: input}
}

// Pixelate runs the whole pipeline on img.
func Pixelate(img image.Image, opt Options) (image.Image, error) {
	p := New(img)
	if err := p.Build(opt); err != nil {
		return nil, err
	}
	return p.Output, nil
}

func (p *Pixelator) Build(opt Options) error {
	p.State = Loaded
	p.Small, p.Palette, p.Output = nil, nil, nil
	p.Grid = image.Point{}
	if err := opt.Validate(); err != nil {
		return err
	}
	if p.Input == nil || p.Input.Bounds().Empty() {
		return ErrEmptyImage
	}

	p.Mode = Classify(p.Input)
	p.State = AlphaClassified

	small, err := Downscale(p.Input, opt.PixelSize, opt.Filter)
	if err != nil {
		return err
	}
	p.Grid = small.Bounds().Size()
	p.State = Downscaled

	var palette color.Palette
	if opt.Colors > 0 {
		small, palette = ReducePalette(small, opt.Colors)
		p.State = PaletteReduced
	}

	mode := p.Mode
	if opt.DistressIntensity > 0 {
		small, err = Distress(small, opt.DistressIntensity, opt.DecayRate, opt.Source)
		if err != nil {
			return err
		}
		mode = Translucent
		p.State = Distressed
	}

	up, err := Upscale(small, p.Input.Bounds().Size(), opt.PixelSize)
	if err != nil {
		return err
	}
	p.State = Upscaled

	p.Small, p.Palette, p.Mode = small, palette, mode
	p.Output = finalize(up, mode)
	p.State = ModeFinalized
	return nil
}

// ============ MODE FINALIZATION ============

// finalize returns img unchanged for Translucent and a fully opaque RGBA copy
// for Opaque.
func finalize(img *image.NRGBA, mode Mode) image.Image {
	if mode == Translucent {
		return img
	}
	out := image.NewRGBA(img.Rect)
	for i := 0; i < len(img.Pix); i += 4 {
		copy(out.Pix[i:i+3], img.Pix[i:i+3])
		out.Pix[i+3] = 0xff
	}
	return out
}
