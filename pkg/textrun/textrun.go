// Package textrun extracts text runs from PDF pages and records
// in-place replacements for them.
package textrun

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
)

// Run is a sequence of glyphs on a common baseline with the same font.
//
// Geometry is given in PDF points with the origin at the bottom left
// corner of the page.
type Run struct {
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"fontSize"`
	// X, Y is the start of the baseline.
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// Key identifies a run by page and approximate position.
func (r Run) Key() string {
	return fmt.Sprintf("%d:%d:%d", r.Page, int(math.Round(r.X)), int(math.Round(r.Y)))
}

// Ascent and Descent estimate the extent of the glyphs above and below
// the baseline.
func (r Run) Ascent() float64 {
	return r.FontSize * 0.8
}

func (r Run) Descent() float64 {
	return r.FontSize * 0.25
}

// Extract reads all text runs from the given page (1-based) of a PDF.
func Extract(data []byte, page int) (runs []Run, err error) {
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "read pdf")
	}

	if page < 1 || page > rd.NumPage() {
		return nil, errors.NewNotFound("page %d (document has %d pages)", page, rd.NumPage())
	}

	p := rd.Page(page)
	if p.V.IsNull() {
		return nil, errors.NewNotFound("page %d", page)
	}

	// the content parser panics on malformed streams
	defer func() {
		x := recover()
		if x != nil {
			logging.Warning("Panic while extracting text from page %d (recovered): %v", page, x)
			runs = nil
			err = fmt.Errorf("extract text from page %d: %v", page, x)
		}
	}()

	content := p.Content()
	runs = group(page, content.Text)
	logging.Debug("Extracted %d text runs from page %d", len(runs), page)
	return runs, nil
}

// group joins consecutive glyphs into runs.
func group(page int, glyphs []pdf.Text) []Run {
	runs := make([]Run, 0)
	var cur *Run

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimRight(cur.Text, " ")
			runs = append(runs, *cur)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}

		x, w := g.X, g.W
		if cur != nil {
			end := cur.X + cur.Width
			sameLine := math.Abs(g.Y-cur.Y) < 0.5 && g.Font == cur.Font && math.Abs(g.FontSize-cur.FontSize) < 0.01
			if w <= 0 && sameLine && x >= cur.X && x < end {
				// fonts without widths do not advance the position
				x = end
			}
			gap := x - end
			switch {
			case !sameLine, gap > cur.FontSize*1.5, gap < -cur.FontSize:
				flush()
			case gap > cur.FontSize*0.2 && !strings.HasSuffix(cur.Text, " ") && g.S != " ":
				cur.Text += " "
			}
		}
		if w <= 0 {
			w = estimateWidth(g.S, g.FontSize)
		}

		if cur == nil {
			if g.S == " " {
				continue
			}
			cur = &Run{
				Page:     page,
				Font:     g.Font,
				FontSize: g.FontSize,
				X:        x,
				Y:        g.Y,
			}
		}

		cur.Text += g.S
		cur.Width = math.Max(cur.Width, x+w-cur.X)
	}
	flush()

	return runs
}

// estimateWidth approximates the advance of s for fonts that carry no
// glyph widths, such as the standard 14 fonts.
func estimateWidth(s string, size float64) float64 {
	n := 0.0
	for _, r := range s {
		if r == ' ' {
			n += 0.28
		} else {
			n += 0.5
		}
	}
	return n * size
}

// Edit replaces the text of a run with a new string.
type Edit struct {
	Run         Run    `json:"run"`
	Replacement string `json:"replacement"`
}

// Edits holds at most one edit per run key.
type Edits struct {
	m map[string]Edit
}

// NewEdits creates an empty set of edits.
func NewEdits() *Edits {
	return &Edits{m: make(map[string]Edit)}
}

// Put records an edit, replacing an earlier edit for the same run.
func (e *Edits) Put(ed Edit) error {
	if ed.Run.Page < 1 {
		return errors.NewValidationError("invalid page %d for text edit", ed.Run.Page)
	}
	if ed.Run.FontSize <= 0 || ed.Run.Width < 0 {
		return errors.NewValidationError("invalid geometry for text run %q", ed.Run.Text)
	}
	e.m[ed.Run.Key()] = ed
	return nil
}

// Remove deletes the edit for the given key.
func (e *Edits) Remove(key string) error {
	if _, ok := e.m[key]; !ok {
		return errors.NewNotFound("no text edit for %q", key)
	}
	delete(e.m, key)
	return nil
}

// Len returns the number of edits.
func (e *Edits) Len() int {
	return len(e.m)
}

// Page returns the edits for the given page, ordered top to bottom
// and left to right.
func (e *Edits) Page(page int) []Edit {
	res := make([]Edit, 0)
	for _, ed := range e.m {
		if ed.Run.Page == page {
			res = append(res, ed)
		}
	}
	sortEdits(res)
	return res
}

// All returns all edits ordered by page.
func (e *Edits) All() []Edit {
	res := make([]Edit, 0, len(e.m))
	for _, ed := range e.m {
		res = append(res, ed)
	}
	sortEdits(res)
	return res
}

func sortEdits(edits []Edit) {
	sort.Slice(edits, func(i, j int) bool {
		a, b := edits[i].Run, edits[j].Run
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return a.X < b.X
	})
}
