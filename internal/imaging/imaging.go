package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Resize creates a copy of the given image, scaled to the given width.
// The aspect ratio is preserved.
func Resize(i image.Image, width int) image.Image {
	b := i.Bounds()
	if width <= 0 || b.Dx() == 0 {
		return i
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	size := image.Rect(0, 0, width, height)

	dst := image.NewRGBA(size)
	draw.CatmullRom.Scale(dst, size, i, b, draw.Over, nil)
	return dst
}

// ApplyOpacity applies the given opacity (0.0..1.0) to the given image.
// This method returns a new image where the alpha channel is a combination
// of the source alpha and the opacity.
func ApplyOpacity(i image.Image, opacity float64) image.Image {
	opacity = math.Max(0, math.Min(1, opacity))
	alpha := uint8(math.Round(255 * opacity))
	mask := image.NewUniform(color.Alpha{alpha})

	rect := i.Bounds()
	dst := image.NewRGBA(rect)
	draw.DrawMask(dst, rect, i, rect.Min, mask, image.Point{}, draw.Over)
	return dst
}

// IsBlank tells if every pixel of the image is fully transparent.
func IsBlank(i image.Image) bool {
	b := i.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := i.At(x, y).RGBA()
			if a != 0 {
				return false
			}
		}
	}
	return true
}
