package scene

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/akeil/annotate/internal/errors"
)

// Kind is the type of a vector object.
type Kind string

const (
	Rect    Kind = "rect"
	Ellipse Kind = "ellipse"
	Line    Kind = "line"
	Path    Kind = "path"
	Text    Kind = "text"
)

// Default values for new objects.
const (
	DefaultStrokeWidth = 2.0
	DefaultFontSize    = 16.0
	DefaultFontFamily  = "sans"
)

// Point is a coordinate in scene space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is a single vector object on a page.
type Object struct {
	// ID identifies the object within its scene.
	ID string `json:"id"`
	// Kind is one of rect, ellipse, line, path or text.
	Kind Kind `json:"type"`
	// Left and Top are the upper left corner of the (unrotated) bounding box.
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
	// Width and Height of the (unrotated) bounding box.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Angle is the clockwise rotation in degrees around the box center.
	Angle float64 `json:"angle,omitempty"`
	// Points holds the two endpoints of a line or the points of a freehand path.
	Points []Point `json:"points,omitempty"`
	// Stroke is the outline color, empty for no outline.
	Stroke Color `json:"stroke,omitempty"`
	// Fill is the fill color, empty for no fill.
	Fill        Color   `json:"fill,omitempty"`
	StrokeWidth float64 `json:"strokeWidth"`
	// Opacity of the whole object, 0.0 through 1.0.
	Opacity    float64 `json:"opacity"`
	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
}

// UnmarshalJSON decodes an object; a missing opacity means fully opaque.
func (o *Object) UnmarshalJSON(b []byte) error {
	type plain Object
	p := plain{Opacity: 1}
	err := json.Unmarshal(b, &p)
	if err != nil {
		return err
	}
	*o = Object(p)
	return nil
}

// NewRect creates a rectangle with the given box.
func NewRect(left, top, width, height float64, stroke, fill Color) Object {
	return Object{
		Kind:        Rect,
		Left:        left,
		Top:         top,
		Width:       width,
		Height:      height,
		Stroke:      stroke,
		Fill:        fill,
		StrokeWidth: DefaultStrokeWidth,
		Opacity:     1,
	}
}

// NewEllipse creates an ellipse inscribed in the given box.
func NewEllipse(left, top, width, height float64, stroke, fill Color) Object {
	o := NewRect(left, top, width, height, stroke, fill)
	o.Kind = Ellipse
	return o
}

// NewLine creates a straight line from a to b.
func NewLine(a, b Point, stroke Color, width float64) Object {
	o := Object{
		Kind:        Line,
		Points:      []Point{a, b},
		Stroke:      stroke,
		StrokeWidth: width,
		Opacity:     1,
	}
	o.fitPoints()
	return o
}

// NewPath creates a freehand path through the given points.
func NewPath(points []Point, stroke Color, width float64) Object {
	o := Object{
		Kind:        Path,
		Points:      append([]Point(nil), points...),
		Stroke:      stroke,
		StrokeWidth: width,
		Opacity:     1,
	}
	o.fitPoints()
	return o
}

// NewText creates a text object with its upper left corner at left, top.
func NewText(left, top float64, text string, size float64, fill Color) Object {
	o := Object{
		Kind:       Text,
		Left:       left,
		Top:        top,
		Text:       text,
		FontSize:   size,
		FontFamily: DefaultFontFamily,
		Fill:       fill,
		Opacity:    1,
	}
	o.fitText()
	return o
}

// Scene is the set of vector objects for a single page.
//
// Coordinates are given in the display space the scene was authored in,
// i.e. Width and Height are the on-screen size of the page.
type Scene struct {
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Objects []Object `json:"objects"`
}

// New creates an empty scene for a page displayed at the given size.
func New(width, height float64) *Scene {
	return &Scene{
		Width:   width,
		Height:  height,
		Objects: make([]Object, 0),
	}
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.Objects)
}

// IsEmpty tells if the scene has no objects.
func (s *Scene) IsEmpty() bool {
	return s == nil || len(s.Objects) == 0
}

// Add appends an object on top of all others and returns its ID.
//
// An ID is assigned if the object has none.
func (s *Scene) Add(o Object) (string, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	} else if s.index(o.ID) >= 0 {
		return "", errors.NewValidationError("duplicate object id %q", o.ID)
	}
	o.normalize()

	err := o.Validate()
	if err != nil {
		return "", err
	}

	s.Objects = append(s.Objects, o)
	return o.ID, nil
}

// Find returns a copy of the object with the given ID.
func (s *Scene) Find(id string) (Object, bool) {
	i := s.index(id)
	if i < 0 {
		return Object{}, false
	}
	return s.Objects[i], true
}

// Remove deletes exactly the object with the given ID.
func (s *Scene) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return errors.NewNotFound("no object with id %q", id)
	}
	s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
	return nil
}

// Update applies fn to the object with the given ID.
// The object is validated afterwards; an invalid result is discarded.
func (s *Scene) Update(id string, fn func(o *Object)) error {
	i := s.index(id)
	if i < 0 {
		return errors.NewNotFound("no object with id %q", id)
	}

	o := s.Objects[i].clone()
	fn(&o)
	o.ID = id
	o.normalize()
	err := o.Validate()
	if err != nil {
		return err
	}

	s.Objects[i] = o
	return nil
}

// Move translates the object with the given ID by dx, dy.
func (s *Scene) Move(id string, dx, dy float64) error {
	return s.Update(id, func(o *Object) {
		o.Left += dx
		o.Top += dy
		for i := range o.Points {
			o.Points[i].X += dx
			o.Points[i].Y += dy
		}
	})
}

// Clear removes all objects.
func (s *Scene) Clear() {
	s.Objects = make([]Object, 0)
}

// Clone creates a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		Width:   s.Width,
		Height:  s.Height,
		Objects: make([]Object, len(s.Objects)),
	}
	for i, o := range s.Objects {
		c.Objects[i] = o.clone()
	}
	return c
}

// Snapshot serializes the scene.
func (s *Scene) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// Restore creates a scene from a snapshot.
func Restore(data []byte) (*Scene, error) {
	s := &Scene{}
	err := json.Unmarshal(data, s)
	if err != nil {
		return nil, errors.Wrap(err, "restore scene")
	}
	if s.Objects == nil {
		s.Objects = make([]Object, 0)
	}
	return s, nil
}

func (s *Scene) index(id string) int {
	for i, o := range s.Objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (o Object) clone() Object {
	if o.Points != nil {
		o.Points = append([]Point(nil), o.Points...)
	}
	return o
}

// normalize keeps the bounding box of point based objects in sync.
func (o *Object) normalize() {
	switch o.Kind {
	case Line, Path:
		o.fitPoints()
	case Text:
		o.fitText()
	}
}

func (o *Object) fitPoints() {
	if len(o.Points) == 0 {
		return
	}
	x0, y0 := o.Points[0].X, o.Points[0].Y
	x1, y1 := x0, y0
	for _, p := range o.Points[1:] {
		if p.X < x0 {
			x0 = p.X
		}
		if p.X > x1 {
			x1 = p.X
		}
		if p.Y < y0 {
			y0 = p.Y
		}
		if p.Y > y1 {
			y1 = p.Y
		}
	}
	o.Left, o.Top = x0, y0
	o.Width, o.Height = x1-x0, y1-y0
}

// fitText estimates the text box from the font size.
// The renderer uses actual glyph metrics; this is for selection only.
func (o *Object) fitText() {
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	o.Width = float64(len([]rune(o.Text))) * o.FontSize * 0.55
	o.Height = o.FontSize * 1.2
}
