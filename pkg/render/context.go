package render

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/imaging"
	"github.com/akeil/annotate/pkg/scene"
)

// DefaultRasterScale is the number of raster pixels per PDF point used
// when flattening annotations.
const DefaultRasterScale = 2.0

// Context holds parameters for rendering operations.
//
// A Context can be shared between concurrent exports.
type Context struct {
	// RasterScale is the number of pixels per point for flattened scenes.
	RasterScale float64
	// Validate enables a structural check of exported PDFs.
	Validate bool
	// Producer is written to the PDF metadata.
	Producer string
}

// NewContext sets up a new rendering context.
func NewContext(rasterScale float64, validate bool) *Context {
	if rasterScale <= 0 {
		rasterScale = DefaultRasterScale
	}
	setupFonts()
	return &Context{
		RasterScale: rasterScale,
		Validate:    validate,
		Producer:    "annotate",
	}
}

// DefaultContext returns a context with default settings.
func DefaultContext() *Context {
	return NewContext(DefaultRasterScale, true)
}

// PNG paints the given scene at its display size and writes it as a PNG
// with transparent background.
//
// If width is greater than zero, the image is scaled to that width.
func (c *Context) PNG(s *scene.Scene, width int, w io.Writer) error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.NewValidationError("scene has no display size")
	}

	img, err := c.Rasterize(s, int(math.Ceil(s.Width)), int(math.Ceil(s.Height)))
	if err != nil {
		return err
	}

	var out image.Image = img
	if width > 0 && width != img.Bounds().Dx() {
		out = imaging.Resize(img, width)
	}

	return png.Encode(w, out)
}

func encodePNG(img image.Image) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	// speed matters more than size, the PDF is compressed anyway
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	err := enc.Encode(&buf, img)
	if err != nil {
		return nil, err
	}
	return &buf, nil
}
