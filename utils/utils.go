package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/webp"

	"github.com/setanarut/pixelart"
)

var (
	ErrInputNotFound = errors.New("input not found")
	ErrDecode        = errors.New("decode failure")
	ErrEncode        = errors.New("encode failure")
)

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette color.Palette) {
	slices.SortStableFunc(palette, func(a, b color.Color) int {
		ya, yb := luminance(a), luminance(b)
		if ya < yb {
			return -1
		}
		if ya > yb {
			return 1
		}
		return 0
	})
}

func luminance(c color.Color) float64 {
	col, _ := colorful.MakeColor(c)
	r, g, b := col.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// DominantColors returns up to n colors of img ordered by weight, heaviest
// first.
func DominantColors(img image.Image, n int) []dominantcolor.Color {
	if n <= 0 {
		return nil
	}
	found := dominantcolor.FindWeight(img, n)
	slices.SortStableFunc(found, func(a, b dominantcolor.Color) int {
		if a.Weight > b.Weight {
			return -1
		}
		if a.Weight < b.Weight {
			return 1
		}
		return 0
	})
	return found
}

func PaletteHex(palette color.Palette) []string {
	out := make([]string, 0, len(palette))
	for _, c := range palette {
		col, _ := colorful.MakeColor(c)
		out = append(out, col.Hex())
	}
	return out
}

// Swatches renders each palette entry as a two-cell colored block for
// terminal output.
func Swatches(palette color.Palette) string {
	var sb strings.Builder
	for _, hex := range PaletteHex(palette) {
		sb.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  "))
	}
	return sb.String()
}

func ReadImage(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// KeepsAlpha reports whether images written in format f keep an alpha
// channel on the way back in. GIF is quantized against an opaque palette
// and BMP alpha sits in a V3 header that decoders treat as padding.
func KeepsAlpha(f imaging.Format) bool {
	switch f {
	case imaging.PNG, imaging.TIFF:
		return true
	default:
		return false
	}
}

// SaveImage encodes img in the format implied by the file extension. The
// encoded bytes go to a temporary file in the target directory which is
// renamed over filename, so a failed save leaves no partial file.
func SaveImage(img image.Image, filename string) error {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, filename, err)
	}
	if !KeepsAlpha(format) && pixelart.Classify(img) == pixelart.Translucent {
		log.Printf("save warning: %s has no alpha channel, transparency in %s is lost", format, filename)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, filename, err)
	}
	if err := writeFileAtomic(filename, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, filename, err)
	}
	return nil
}

func writeFileAtomic(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// OutputPath places the result next to input as <base>_pixel<size>.png.
func OutputPath(input string, pixelSize int) string {
	dir := filepath.Dir(input)
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+"_pixel"+strconv.Itoa(pixelSize)+".png")
}

func SavePalette(palette color.Palette, tileSize int, filename string) error {
	if len(palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, c := range palette {
		r, g, b, _ := c.RGBA()
		fill := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, fill)
			}
		}
	}

	return SaveImage(img, filename)
}
