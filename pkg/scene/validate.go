package scene

import (
	"math"

	"github.com/akeil/annotate/internal/errors"
)

// Validate checks the scene and all objects for valid data.
// Returns an error if invalid data is found, nil if everything is fine.
func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.NewValidationError("invalid scene size %vx%v", s.Width, s.Height)
	}

	seen := make(map[string]bool)
	for _, o := range s.Objects {
		if seen[o.ID] {
			return errors.NewValidationError("duplicate object id %q", o.ID)
		}
		seen[o.ID] = true

		err := o.Validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate checks a single object.
func (o *Object) Validate() error {
	if o.ID == "" {
		return errors.NewValidationError("object without id")
	}

	for _, v := range []float64{o.Left, o.Top, o.Width, o.Height, o.Angle, o.StrokeWidth, o.FontSize} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("object %q has non-finite geometry", o.ID)
		}
	}

	if o.Width < 0 || o.Height < 0 {
		return errors.NewValidationError("object %q has negative size %vx%v", o.ID, o.Width, o.Height)
	}

	if o.StrokeWidth < 0 {
		return errors.NewValidationError("object %q has negative stroke width", o.ID)
	}

	if o.Opacity < 0 || o.Opacity > 1 {
		return errors.NewValidationError("invalid opacity %v for object %q", o.Opacity, o.ID)
	}

	if err := o.Stroke.Validate(); err != nil {
		return errors.NewValidationError("object %q: %v", o.ID, err)
	}
	if err := o.Fill.Validate(); err != nil {
		return errors.NewValidationError("object %q: %v", o.ID, err)
	}

	switch o.Kind {
	case Rect, Ellipse:
		// box only
	case Line:
		if len(o.Points) != 2 {
			return errors.NewValidationError("line %q needs exactly two points, got %d", o.ID, len(o.Points))
		}
	case Path:
		if len(o.Points) == 0 {
			return errors.NewValidationError("path %q has no points", o.ID)
		}
	case Text:
		if o.FontSize <= 0 {
			return errors.NewValidationError("text %q has invalid font size %v", o.ID, o.FontSize)
		}
	default:
		return errors.NewValidationError("object %q has unknown type %q", o.ID, o.Kind)
	}

	return nil
}
