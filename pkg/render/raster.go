package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/imaging"
	"github.com/akeil/annotate/pkg/scene"
)

// ascent is the distance from the top of a text line to the baseline,
// relative to the font size.
const (
	ascent     = 0.9
	lineHeight = 1.2
)

// Rasterize paints all objects of the scene onto a transparent image of
// the given size. Scene coordinates are used as pixel coordinates.
func (c *Context) Rasterize(s *scene.Scene, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewValidationError("invalid raster size %dx%d", width, height)
	}
	setupFonts()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	for _, o := range s.Objects {
		if o.Opacity <= 0 {
			continue
		}

		if o.Opacity >= 1 {
			err := paintObject(dst, o)
			if err != nil {
				return nil, err
			}
			continue
		}

		// semi transparent objects are painted on a separate layer
		// so that overlapping parts of the same object do not add up
		layer := image.NewRGBA(dst.Bounds())
		err := paintObject(layer, o)
		if err != nil {
			return nil, err
		}
		faded := imaging.ApplyOpacity(layer, o.Opacity)
		draw.Draw(dst, dst.Bounds(), faded, image.Point{}, draw.Over)
	}

	return dst, nil
}

// paintObject draws a single vector object.
func paintObject(dst draw.Image, o scene.Object) error {
	stroke, hasStroke, err := o.Stroke.Parse()
	if err != nil {
		return errors.NewValidationError("object %q: %v", o.ID, err)
	}
	fill, hasFill, err := o.Fill.Parse()
	if err != nil {
		return errors.NewValidationError("object %q: %v", o.ID, err)
	}
	hasStroke = hasStroke && o.StrokeWidth > 0

	gc := draw2dimg.NewGraphicContext(dst)
	// one point is one pixel
	gc.SetDPI(72)
	gc.SetLineCap(draw2d.RoundCap)
	gc.SetLineJoin(draw2d.RoundJoin)
	gc.SetLineWidth(o.StrokeWidth)
	gc.SetStrokeColor(stroke)
	gc.SetFillColor(fill)

	if o.Angle != 0 {
		cx, cy := o.Center()
		gc.Translate(cx, cy)
		gc.Rotate(rad(o.Angle))
		gc.Translate(-cx, -cy)
	}

	gc.BeginPath()
	switch o.Kind {
	case scene.Rect:
		draw2dkit.Rectangle(gc, o.Left, o.Top, o.Left+o.Width, o.Top+o.Height)
		finish(gc, hasFill, hasStroke)
	case scene.Ellipse:
		cx, cy := o.Center()
		draw2dkit.Ellipse(gc, cx, cy, o.Width/2, o.Height/2)
		finish(gc, hasFill, hasStroke)
	case scene.Line:
		if len(o.Points) == 2 && hasStroke {
			gc.MoveTo(o.Points[0].X, o.Points[0].Y)
			gc.LineTo(o.Points[1].X, o.Points[1].Y)
			gc.Stroke()
		}
	case scene.Path:
		if hasStroke {
			paintPath(gc, o.Points, o.StrokeWidth, stroke)
		}
	case scene.Text:
		paintText(gc, o, fill, hasFill, stroke, hasStroke)
	default:
		return errors.NewValidationError("cannot render object of type %q", o.Kind)
	}

	return nil
}

func finish(gc draw2d.GraphicContext, fill, stroke bool) {
	switch {
	case fill && stroke:
		gc.FillStroke()
	case fill:
		gc.Fill()
	case stroke:
		gc.Stroke()
	}
}

// paintPath draws a freehand path smoothed with quadratic curves through
// the midpoints of consecutive points.
func paintPath(gc draw2d.GraphicContext, pts []scene.Point, width float64, col color.Color) {
	if len(pts) == 1 {
		// a single click leaves a dot
		gc.SetFillColor(col)
		draw2dkit.Circle(gc, pts[0].X, pts[0].Y, width/2)
		gc.Fill()
		return
	}

	gc.MoveTo(pts[0].X, pts[0].Y)
	for i := 1; i < len(pts)-1; i++ {
		mx := (pts[i].X + pts[i+1].X) / 2
		my := (pts[i].Y + pts[i+1].Y) / 2
		gc.QuadCurveTo(pts[i].X, pts[i].Y, mx, my)
	}
	last := pts[len(pts)-1]
	gc.LineTo(last.X, last.Y)
	gc.Stroke()
}

// paintText draws text with the fill color, falling back on the stroke
// color and then on black.
func paintText(gc draw2d.GraphicContext, o scene.Object, fill color.Color, hasFill bool, stroke color.Color, hasStroke bool) {
	col := color.Color(color.Black)
	if hasFill {
		col = fill
	} else if hasStroke {
		col = stroke
	}

	gc.SetFontData(fontData(o.FontFamily))
	gc.SetFontSize(o.FontSize)
	gc.SetFillColor(col)

	for i, line := range strings.Split(o.Text, "\n") {
		if line == "" {
			continue
		}
		y := o.Top + o.FontSize*ascent + float64(i)*o.FontSize*lineHeight
		gc.FillStringAt(line, o.Left, y)
	}
}

func rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
