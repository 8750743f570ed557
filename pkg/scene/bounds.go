package scene

import (
	"math"

	"github.com/akeil/annotate/internal/imaging"
)

// minHitTolerance is the minimum distance in display pixels within which
// a pointer selects a thin object.
const minHitTolerance = 3.0

// Box is an axis aligned rectangle.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// Contains tells if the point lies inside the box (inclusive).
func (b Box) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Center returns the center point of the (unrotated) bounding box.
func (o *Object) Center() (float64, float64) {
	return o.Left + o.Width/2, o.Top + o.Height/2
}

// transform maps object space (unrotated) to scene space.
func (o *Object) transform() imaging.Matrix {
	if o.Angle == 0 {
		return imaging.Identity()
	}
	cx, cy := o.Center()
	return imaging.RotationAround(rad(o.Angle), cx, cy)
}

// Bounds returns the axis aligned box around the rotated object,
// including half the stroke width.
func (o *Object) Bounds() Box {
	m := o.transform()
	corners := [][2]float64{
		{o.Left, o.Top},
		{o.Left + o.Width, o.Top},
		{o.Left, o.Top + o.Height},
		{o.Left + o.Width, o.Top + o.Height},
	}

	b := Box{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, c := range corners {
		x, y := m.Apply(c[0], c[1])
		b.X0 = math.Min(b.X0, x)
		b.Y0 = math.Min(b.Y0, y)
		b.X1 = math.Max(b.X1, x)
		b.Y1 = math.Max(b.Y1, y)
	}

	pad := o.StrokeWidth / 2
	b.X0 -= pad
	b.Y0 -= pad
	b.X1 += pad
	b.Y1 += pad
	return b
}

// Hit tells if the point x, y (scene space) touches the object.
func (o *Object) Hit(x, y float64) bool {
	inv, ok := o.transform().Invert()
	if !ok {
		return false
	}
	// work in object space, where the box is axis aligned
	px, py := inv.Apply(x, y)
	tol := math.Max(o.StrokeWidth/2, minHitTolerance)

	switch o.Kind {
	case Line, Path:
		if len(o.Points) == 1 {
			return math.Hypot(px-o.Points[0].X, py-o.Points[0].Y) <= tol
		}
		for i := 1; i < len(o.Points); i++ {
			if segmentDistance(px, py, o.Points[i-1], o.Points[i]) <= tol {
				return true
			}
		}
		return false
	case Ellipse:
		rx, ry := o.Width/2+tol, o.Height/2+tol
		cx, cy := o.Center()
		dx, dy := (px-cx)/rx, (py-cy)/ry
		return dx*dx+dy*dy <= 1
	default:
		b := Box{o.Left - tol, o.Top - tol, o.Left + o.Width + tol, o.Top + o.Height + tol}
		return b.Contains(px, py)
	}
}

// HitTest returns the ID of the topmost object at x, y.
func (s *Scene) HitTest(x, y float64) (string, bool) {
	for i := len(s.Objects) - 1; i >= 0; i-- {
		if s.Objects[i].Hit(x, y) {
			return s.Objects[i].ID, true
		}
	}
	return "", false
}

// segmentDistance returns the distance from x, y to the segment a-b.
func segmentDistance(x, y float64, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	t := ((x-a.X)*dx + (y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(x-(a.X+t*dx), y-(a.Y+t*dy))
}

func rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
