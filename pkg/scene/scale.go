package scene

import (
	"github.com/akeil/annotate/internal/errors"
)

// Scale returns a copy of the scene with all coordinates multiplied by
// sx horizontally and sy vertically.
//
// Boxes and positions scale independently along both axes. Lines and
// freehand paths have every point rescaled. Text keeps its proportions:
// only its position scales independently, the font size scales with sy.
// Stroke widths scale with the mean of both factors.
func (s *Scene) Scale(sx, sy float64) *Scene {
	c := &Scene{
		Width:   s.Width * sx,
		Height:  s.Height * sy,
		Objects: make([]Object, len(s.Objects)),
	}

	sw := (sx + sy) / 2
	for i, o := range s.Objects {
		o = o.clone()
		o.Left *= sx
		o.Top *= sy
		o.StrokeWidth *= sw

		switch o.Kind {
		case Line, Path:
			for j := range o.Points {
				o.Points[j].X *= sx
				o.Points[j].Y *= sy
			}
			o.fitPoints()
		case Text:
			o.FontSize *= sy
			o.fitText()
		default:
			o.Width *= sx
			o.Height *= sy
		}

		c.Objects[i] = o
	}

	return c
}

// ScaleTo rescales the scene from its display size to the given size.
func (s *Scene) ScaleTo(width, height float64) (*Scene, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, errors.NewValidationError("scene has no display size (%vx%v)", s.Width, s.Height)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.NewValidationError("invalid target size %vx%v", width, height)
	}
	return s.Scale(width/s.Width, height/s.Height), nil
}
