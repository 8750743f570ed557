package scene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a CSS style hex color (#rgb, #rrggbb or #rrggbbaa).
// The empty string and "transparent" mean "no color".
type Color string

const (
	None  Color = ""
	Black Color = "#000000"
	White Color = "#ffffff"
	Red   Color = "#ff0000"
	Blue  Color = "#0000ff"
	// Yellow with transparency, used for highlights.
	Highlight Color = "#ffff0080"
)

// IsNone tells if this color paints nothing.
func (c Color) IsNone() bool {
	s := strings.TrimSpace(strings.ToLower(string(c)))
	return s == "" || s == "transparent" || s == "none"
}

// Parse converts the color to an alpha-premultiplied RGBA value.
// The second return value is false for "no color".
func (c Color) Parse() (color.RGBA, bool, error) {
	if c.IsNone() {
		return color.RGBA{}, false, nil
	}

	s := strings.TrimPrefix(strings.TrimSpace(string(c)), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]}) + "ff"
	case 6:
		s += "ff"
	case 8:
		// as is
	default:
		return color.RGBA{}, false, fmt.Errorf("invalid color %q", string(c))
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false, fmt.Errorf("invalid color %q", string(c))
	}

	// color.RGBA is alpha-premultiplied
	a := uint32(v & 0xff)
	r := uint32(v>>24) & 0xff
	g := uint32(v>>16) & 0xff
	b := uint32(v>>8) & 0xff
	return color.RGBA{
		R: uint8(r * a / 0xff),
		G: uint8(g * a / 0xff),
		B: uint8(b * a / 0xff),
		A: uint8(a),
	}, true, nil
}

// Validate checks that the color can be parsed.
func (c Color) Validate() error {
	_, _, err := c.Parse()
	return err
}
