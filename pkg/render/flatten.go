package render

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/mattetti/filebuffer"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/imaging"
	"github.com/akeil/annotate/internal/logging"
	"github.com/akeil/annotate/pkg/scene"
	"github.com/akeil/annotate/pkg/textrun"
)

// Page describes what to flatten onto a single page of the source document.
type Page struct {
	// Number is the 1-based page number in the source document.
	Number int
	// Size is the native page size in points.
	Size Size
	// Scene holds the annotations in display coordinates; may be nil.
	Scene *scene.Scene
	// Edits replace text runs on this page.
	Edits []textrun.Edit
}

// Flatten writes a copy of the source PDF with all scenes and text edits
// baked into their pages.
//
// Pages are processed in order. Any error aborts the export and nothing is
// written to w.
func (c *Context) Flatten(src []byte, pages []Page, title string, w io.Writer) error {
	if len(pages) == 0 {
		return errors.NewValidationError("no pages to export")
	}
	logging.Debug("Flatten %d pages", len(pages))

	// gofpdi cannot read object streams or cross reference streams
	norm, err := classicXRef(src)
	if err != nil {
		return err
	}
	boxes, err := readPageBoxes(norm)
	if err != nil {
		return err
	}

	pdf := c.setupPDF(pages[0].Size, title)

	// gofpdi needs a ReadSeeker, and will keep it for all pages
	rs := io.ReadSeeker(bytes.NewReader(norm))
	im := gofpdi.NewImporter()

	for _, p := range pages {
		if p.Number < 1 || p.Number > len(boxes) {
			return errors.NewNotFound("page %d", p.Number)
		}
		err = c.flattenPage(pdf, im, &rs, p, boxes[p.Number-1])
		if err != nil {
			return errors.Wrap(err, "page %d", p.Number)
		}
	}

	buf := filebuffer.New(nil)
	err = pdf.Output(buf)
	if err != nil {
		return errors.Wrap(err, "write PDF")
	}

	if c.Validate {
		_, err = buf.Seek(0, io.SeekStart)
		if err != nil {
			return err
		}
		err = ValidatePDF(buf)
		if err != nil {
			return err
		}
	}

	_, err = buf.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, buf)
	return err
}

func (c *Context) setupPDF(first Size, title string) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})

	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetProducer(c.Producer, true)
	if title != "" {
		pdf.SetTitle(title, true)
	}

	return pdf
}

func (c *Context) flattenPage(pdf *gofpdf.Fpdf, im *gofpdi.Importer, rs *io.ReadSeeker, p Page, box pageBox) error {
	w, h := p.Size.Width, p.Size.Height
	if w <= 0 || h <= 0 {
		return errors.NewValidationError("invalid page size %vx%v", w, h)
	}

	// always "P", gofpdf swaps width and height for "L"
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})

	// gofpdi applies /Rotate to the template, its size is the display size
	var tpl int
	err := dontPanic(func() {
		tpl = im.ImportPageFromStream(pdf, rs, p.Number, "/MediaBox")
	})
	if err != nil {
		return err
	}
	im.UseImportedTemplate(pdf, tpl, 0, 0, w, h)

	for _, ed := range p.Edits {
		applyEdit(pdf, p.Size, box, ed)
	}

	if p.Scene.IsEmpty() {
		logging.Debug("Skip empty scene for page %d", p.Number)
	} else {
		err = c.overlayScene(pdf, p)
		if err != nil {
			return err
		}
	}

	return pdf.Error()
}

// rasterizePage rescales a scene from display pixels to page points and
// renders it at RasterScale pixels per point.
func (c *Context) rasterizePage(s *scene.Scene, size Size) (*image.RGBA, error) {
	inPoints, err := s.ScaleTo(size.Width, size.Height)
	if err != nil {
		return nil, err
	}
	k := c.RasterScale
	scaled := inPoints.Scale(k, k)

	rw := int(math.Ceil(size.Width * k))
	rh := int(math.Ceil(size.Height * k))
	return c.Rasterize(scaled, rw, rh)
}

// overlayScene places the rasterized scene over the full page.
func (c *Context) overlayScene(pdf *gofpdf.Fpdf, p Page) error {
	img, err := c.rasterizePage(p.Scene, p.Size)
	if err != nil {
		return err
	}
	if imaging.IsBlank(img) {
		logging.Debug("Scene for page %d renders blank", p.Number)
		return nil
	}

	buf, err := encodePNG(img)
	if err != nil {
		return err
	}

	name := uuid.New().String()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, buf)

	flow := false
	link := 0
	linkStr := ""
	pdf.ImageOptions(name, 0, 0, p.Size.Width, p.Size.Height, flow, opts, link, linkStr)

	return nil
}

// applyEdit covers the original text run with white and draws the
// replacement text on the same baseline.
//
// Run coordinates are in the unrotated user space of the source page.
// On rotated pages the edit is drawn into the media box and turned with it.
func applyEdit(pdf *gofpdf.Fpdf, page Size, box pageBox, ed textrun.Edit) {
	run := ed.Run
	family, style := coreFont(run.Font)
	pdf.SetFont(family, style, run.FontSize)

	// core fonts use WinAnsiEncoding; encoders are not safe for concurrent use
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	text, err := enc.String(ed.Replacement)
	if err != nil {
		logging.Warning("Cannot encode replacement %q: %v", ed.Replacement, err)
		text = ed.Replacement
	}

	width := run.Width
	if width <= 0 {
		width = pdf.GetStringWidth(run.Text)
	}
	width = math.Max(width, pdf.GetStringWidth(text))

	// PDF origin is bottom left, gofpdf uses top left
	x := run.X - box.X
	baseline := box.Height - (run.Y - box.Y)
	pad := run.FontSize * 0.1

	if box.Rotation != 0 {
		// center the media box on the page, then turn it clockwise
		x += (page.Width - box.Width) / 2
		baseline += (page.Height - box.Height) / 2
		pdf.TransformBegin()
		pdf.TransformRotate(float64(-box.Rotation), page.Width/2, page.Height/2)
		defer pdf.TransformEnd()
	}

	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(x-pad, baseline-run.Ascent(), width+2*pad, run.Ascent()+run.Descent(), "F")

	if text != "" {
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(x, baseline, text)
	}
}

// coreFont chooses one of the PDF core fonts for an embedded font name.
func coreFont(name string) (family, style string) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "times"), strings.Contains(n, "serif") && !strings.Contains(n, "sans"):
		family = "times"
	case strings.Contains(n, "courier"), strings.Contains(n, "mono"):
		family = "courier"
	default:
		family = "helvetica"
	}
	if strings.Contains(n, "bold") {
		style += "B"
	}
	if strings.Contains(n, "italic") || strings.Contains(n, "oblique") {
		style += "I"
	}
	return family, style
}

// executes the given function in a separate go routine.
// If that panics, this will recover and return the panic as an error.
func dontPanic(f func()) error {
	rv := make(chan error, 1)

	go func() {
		// this will "catch" any panic and send its mssage to the error channel
		defer func() {
			x := recover()
			if x != nil {
				logging.Warning("Panic occured (recovered): %v", x)
				rv <- fmt.Errorf("recovered from: %v", x)
				return
			}
			rv <- nil
		}()

		// the actual call that might panic
		f()
	}()

	// wait for the result
	return <-rv
}
