package main

import (
	"fmt"
	"image"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cenkalti/dominantcolor"

	"github.com/setanarut/pixelart"
	"github.com/setanarut/pixelart/utils"
)

const desc = `Turn an image into pixel art: blocky downscale, optional palette reduction and chipped edges.`

// CLI holds the parsed command line.
type CLI struct {
	Input  string `arg:"" help:"Path to the input image file."`
	Output string `arg:"" optional:"" help:"Path to save the result. Defaults to <input>_pixel<size>.png next to the input."`

	PixelSize int     `short:"p" default:"8" help:"Size of the pixel blocks, e.g. 8 means each block is 8x8 source pixels."`
	AutoSize  bool    `help:"Derive the pixel size from the image size instead of --pixel-size."`
	Colors    int     `short:"c" help:"Maximum number of colors in the output, e.g. 16 or 32. 0 keeps all colors."`
	Distress  int     `short:"d" help:"Edge distress intensity in percent (0-100). 0 disables it."`
	Decay     float64 `default:"0.65" help:"Decay of the distress probability per block away from the border, in (0,1]."`
	Seed      int64   `default:"-1" help:"Seed for the distress pattern. Negative picks a random seed."`
	Filter    string  `default:"lanczos" enum:"lanczos,box,catmullrom,linear" help:"Downscale filter (${enum})."`

	PaletteOut  string `type:"path" help:"Also write the reduced palette as a swatch image."`
	ShowPalette bool   `help:"Print the reduced palette as colored swatches."`
	Verbose     bool   `short:"v" help:"Report grid size, mode, palette and distress coverage."`
}

var cli CLI

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("pixelart"),
		kong.Description(desc),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(run(cli))
}

func run(c CLI) error {
	img, err := utils.ReadImage(c.Input)
	if err != nil {
		return err
	}
	opt, err := buildOptions(c, img.Bounds().Size())
	if err != nil {
		return err
	}

	p := pixelart.New(img)
	if err := p.Build(opt); err != nil {
		return err
	}

	out, err := prepareOutput(c, opt.PixelSize)
	if err != nil {
		return err
	}
	if err := utils.SaveImage(p.Output, out); err != nil {
		return err
	}

	if c.Verbose {
		report(p, opt)
	}
	if len(p.Palette) > 0 {
		sorted := append(p.Palette[:0:0], p.Palette...)
		utils.SortPaletteByBrightness(sorted)
		if c.ShowPalette {
			fmt.Println(utils.Swatches(sorted))
		}
		if c.PaletteOut != "" {
			if err := utils.SavePalette(sorted, 32, c.PaletteOut); err != nil {
				return err
			}
		}
	}

	fmt.Printf("Pixelated image saved to %s\n", out)
	return nil
}

// buildOptions maps flags onto pipeline options for an input of the given
// size. A negative seed leaves Source nil so every run differs.
func buildOptions(c CLI, size image.Point) (pixelart.Options, error) {
	opt := pixelart.DefaultOptions()
	if c.AutoSize {
		opt = pixelart.OptionsFromSize(size)
	} else {
		opt.PixelSize = c.PixelSize
	}
	opt.Colors = c.Colors
	opt.DistressIntensity = c.Distress
	opt.DecayRate = c.Decay
	var err error
	if opt.Filter, err = pixelart.ParseFilter(c.Filter); err != nil {
		return pixelart.Options{}, err
	}
	if c.Seed >= 0 {
		opt.Source = rand.NewPCG(uint64(c.Seed), 0)
	}
	return opt, nil
}

// prepareOutput resolves the output path and creates its directory.
func prepareOutput(c CLI, pixelSize int) (string, error) {
	out := c.Output
	if out == "" {
		out = utils.OutputPath(c.Input, pixelSize)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrEncode, err)
	}
	return out, nil
}

func report(p *pixelart.Pixelator, opt pixelart.Options) {
	b := p.Input.Bounds()
	log.Printf("input %dx%d, pixel size %d, grid %dx%d", b.Dx(), b.Dy(), opt.PixelSize, p.Grid.X, p.Grid.Y)
	log.Printf("output mode %s, last stage %s", p.Mode, p.State)
	if len(p.Palette) > 0 {
		log.Printf("palette (%d): %s", len(p.Palette), strings.Join(utils.PaletteHex(p.Palette), " "))
	}
	var dominant []string
	for _, c := range utils.DominantColors(p.Output, 5) {
		dominant = append(dominant, fmt.Sprintf("%s %.0f%%", dominantcolor.Hex(c.RGBA), c.Weight*100))
	}
	log.Printf("dominant colors: %s", strings.Join(dominant, ", "))
	if opt.DistressIntensity > 0 {
		for d, cov := range pixelart.RingCoverage(p.Small) {
			log.Printf("ring %d: %.1f%% chipped", d, cov*100)
		}
	}
}
