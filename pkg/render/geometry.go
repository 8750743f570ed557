package render

import (
	"bytes"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
)

// Size is the size of a page in PDF points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var configOnce sync.Once

func pdfConfig() *model.Configuration {
	configOnce.Do(func() {
		// do not create a config directory in the user's home
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageSizes reads the size of every page of a PDF document.
func PageSizes(rs io.ReadSeeker) ([]Size, error) {
	dims, err := api.PageDims(rs, pdfConfig())
	if err != nil {
		return nil, errors.NewValidationError("read page geometry: %v", err)
	}
	if len(dims) == 0 {
		return nil, errors.NewValidationError("document has no pages")
	}

	sizes := make([]Size, len(dims))
	for i, d := range dims {
		sizes[i] = Size{Width: d.Width, Height: d.Height}
	}
	logging.Debug("Read geometry for %d pages", len(sizes))
	return sizes, nil
}

// ValidatePDF performs a structural check of a PDF document.
func ValidatePDF(rs io.ReadSeeker) error {
	err := api.Validate(rs, pdfConfig())
	if err != nil {
		return errors.NewValidationError("invalid PDF: %v", err)
	}
	return nil
}

// pageBox is the media box of a source page and the clockwise rotation
// a viewer applies to it.
type pageBox struct {
	X, Y          float64
	Width, Height float64
	Rotation      int
}

// Display is the size of the page as shown, with rotation applied.
func (b pageBox) Display() Size {
	if b.Rotation%180 != 0 {
		return Size{Width: b.Height, Height: b.Width}
	}
	return Size{Width: b.Width, Height: b.Height}
}

// normalizeRotation maps any multiple of 90 to 0, 90, 180 or 270.
func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// readPageBoxes reads media box and rotation for every page.
func readPageBoxes(src []byte) ([]pageBox, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(src), pdfConfig())
	if err != nil {
		return nil, errors.NewValidationError("read page geometry: %v", err)
	}
	pbs, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, errors.NewValidationError("read page geometry: %v", err)
	}

	boxes := make([]pageBox, len(pbs))
	for i, pb := range pbs {
		mb := pb.MediaBox()
		boxes[i] = pageBox{
			X:        mb.LL.X,
			Y:        mb.LL.Y,
			Width:    mb.Width(),
			Height:   mb.Height(),
			Rotation: normalizeRotation(pb.Rot),
		}
	}
	return boxes, nil
}

// classicXRef rewrites a PDF with a plain cross reference table and
// without object streams, which is the only layout gofpdi can import.
func classicXRef(src []byte) ([]byte, error) {
	conf := pdfConfig()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var buf bytes.Buffer
	err := api.Optimize(bytes.NewReader(src), &buf, conf)
	if err != nil {
		return nil, errors.NewValidationError("rewrite PDF: %v", err)
	}
	logging.Debug("Rewrote source PDF, %d -> %d bytes", len(src), buf.Len())
	return buf.Bytes(), nil
}
