package pixelart

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// GridSize returns the number of blocks along each axis for an image with
// bounds b. A trailing partial block is merged into the last full one.
func GridSize(b image.Rectangle, pixelSize int) image.Point {
	if pixelSize <= 0 {
		return image.Point{}
	}
	return image.Pt(max(1, b.Dx()/pixelSize), max(1, b.Dy()/pixelSize))
}

// Downscale shrinks img to its block grid. Every output pixel is a filtered
// average of the source block it stands for. A zero filter means Lanczos.
func Downscale(img image.Image, pixelSize int, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPixelSize, pixelSize)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if filter.Kernel == nil {
		filter = imaging.Lanczos
	}
	grid := GridSize(b, pixelSize)
	return imaging.Resize(img, grid.X, grid.Y, filter), nil
}

// Upscale replicates each pixel of small over its block of a size.X×size.Y
// image. Output pixel (x, y) takes small[min(x/p, gw-1), min(y/p, gh-1)].
func Upscale(small *image.NRGBA, size image.Point, pixelSize int) (*image.NRGBA, error) {
	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPixelSize, pixelSize)
	}
	sb := small.Bounds()
	if sb.Empty() || size.X <= 0 || size.Y <= 0 {
		return nil, ErrEmptyImage
	}
	gw, gh := sb.Dx(), sb.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	srcX := make([]int, size.X)
	for x := range size.X {
		srcX[x] = min(x/pixelSize, gw-1)
	}
	for y := range size.Y {
		sy := min(y/pixelSize, gh-1)
		srow := small.Pix[small.PixOffset(sb.Min.X, sb.Min.Y+sy):]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+size.X*4]
		for x, sx := range srcX {
			copy(drow[x*4:x*4+4], srow[sx*4:sx*4+4])
		}
	}
	return dst, nil
}

// ParseFilter maps a filter name to one of the averaging filters usable for
// the downscale step.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lanczos":
		return imaging.Lanczos, nil
	case "box", "area":
		return imaging.Box, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "linear", "bilinear":
		return imaging.Linear, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("%w: unknown filter %q", ErrInvalidConfig, name)
	}
}
