package annotate

import (
	"bytes"
	"io"
	"math"
	"strings"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
	"github.com/akeil/annotate/pkg/docx"
	"github.com/akeil/annotate/pkg/history"
	"github.com/akeil/annotate/pkg/render"
	"github.com/akeil/annotate/pkg/scene"
	"github.com/akeil/annotate/pkg/textrun"
)

// Tool is the active input mode of the annotation surface.
type Tool int

const (
	// Draw creates freehand paths.
	Draw Tool = iota
	// Shape creates rectangles, ellipses or lines by dragging.
	Shape
	// Text places a text object where the pointer goes down.
	Text
)

func (t Tool) String() string {
	switch t {
	case Draw:
		return "draw"
	case Shape:
		return "shape"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// ParseTool converts a tool name to a Tool.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(s) {
	case "draw":
		return Draw, nil
	case "shape":
		return Shape, nil
	case "text":
		return Text, nil
	}
	return Draw, errors.NewValidationError("unknown tool %q", s)
}

// DefaultText is the content of a newly placed text object.
const DefaultText = "Text"

// minDrag is the minimum pointer movement in pixels for a shape.
const minDrag = 2.0

// Style holds the attributes for newly created objects.
type Style struct {
	Stroke      scene.Color `json:"stroke"`
	Fill        scene.Color `json:"fill"`
	StrokeWidth float64     `json:"strokeWidth"`
	FontSize    float64     `json:"fontSize"`
	FontFamily  string      `json:"fontFamily"`
	Opacity     float64     `json:"opacity"`
}

// DefaultStyle is black outlines without fill.
func DefaultStyle() Style {
	return Style{
		Stroke:      scene.Black,
		Fill:        scene.None,
		StrokeWidth: scene.DefaultStrokeWidth,
		FontSize:    scene.DefaultFontSize,
		FontFamily:  scene.DefaultFontFamily,
		Opacity:     1,
	}
}

// Validate checks the style attributes.
func (s Style) Validate() error {
	if err := s.Stroke.Validate(); err != nil {
		return errors.NewValidationError("stroke: %v", err)
	}
	if err := s.Fill.Validate(); err != nil {
		return errors.NewValidationError("fill: %v", err)
	}
	if s.StrokeWidth < 0 || s.FontSize <= 0 {
		return errors.NewValidationError("invalid stroke width %v or font size %v", s.StrokeWidth, s.FontSize)
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return errors.NewValidationError("invalid opacity %v", s.Opacity)
	}
	return nil
}

func (s Style) apply(o *scene.Object) {
	o.Opacity = s.Opacity
	switch o.Kind {
	case scene.Text:
		o.Fill = s.Stroke
		o.FontSize = s.FontSize
		o.FontFamily = s.FontFamily
	default:
		o.Stroke = s.Stroke
		o.Fill = s.Fill
		o.StrokeWidth = s.StrokeWidth
	}
}

// Options configure an Editor.
type Options struct {
	// HistoryLimit is the maximum number of undo steps per page, 0 for no limit.
	HistoryLimit int
	// Render is used for export; DefaultContext() if nil.
	Render *render.Context
}

// gesture is an ongoing pointer drag.
type gesture struct {
	start  scene.Point
	end    scene.Point
	points []scene.Point
}

// Editor is the annotation surface for one document.
//
// It holds the active page's scene with its undo history, the saved scenes
// of all other pages and the recorded text edits. Every mutation stores the
// page scene and pushes exactly one history entry.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	opts      Options
	doc       *Document
	page      int
	current   *scene.Scene
	scenes    map[int]*scene.Scene
	viewports map[int]render.Size
	hist      *history.History
	edits     *textrun.Edits
	tool      Tool
	shape     scene.Kind
	style     Style
	selection string
	drag      *gesture
}

// NewEditor creates an editor and loads the given document.
func NewEditor(doc *Document, opts Options) (*Editor, error) {
	if opts.Render == nil {
		opts.Render = render.DefaultContext()
	}
	e := &Editor{
		opts:  opts,
		tool:  Draw,
		shape: scene.Rect,
		style: DefaultStyle(),
	}
	err := e.Load(doc)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Load replaces the current document.
// All scenes, text edits and history of the previous document are discarded.
func (e *Editor) Load(doc *Document) error {
	if doc == nil {
		return errors.NewValidationError("no document")
	}

	e.doc = doc
	e.scenes = make(map[int]*scene.Scene)
	e.viewports = make(map[int]render.Size)
	e.edits = textrun.NewEdits()
	e.selection = ""
	e.drag = nil
	e.page = 0
	e.current = nil
	e.hist = nil

	if doc.FileType() == PDF {
		e.page = 1
		e.current = e.emptyScene(1)
		e.resetHistory()
	}

	logging.Debug("Editor loaded %q", doc.Name())
	return nil
}

// Document returns the loaded document.
func (e *Editor) Document() *Document {
	return e.doc
}

// Page returns the active 1-based page number, 0 for non-paginated documents.
func (e *Editor) Page() int {
	return e.page
}

// Tool returns the active tool.
func (e *Editor) Tool() Tool {
	return e.tool
}

// SetTool switches the input mode and aborts any ongoing gesture.
func (e *Editor) SetTool(t Tool) error {
	switch t {
	case Draw, Shape, Text:
	default:
		return errors.NewValidationError("unknown tool %v", t)
	}
	e.tool = t
	e.drag = nil
	return nil
}

// SetShape chooses the kind of object the Shape tool creates.
func (e *Editor) SetShape(k scene.Kind) error {
	switch k {
	case scene.Rect, scene.Ellipse, scene.Line:
		e.shape = k
		return nil
	}
	return errors.NewValidationError("unsupported shape %q", k)
}

// Style returns the style for new objects.
func (e *Editor) Style() Style {
	return e.style
}

// SetStyle sets the style for new objects.
func (e *Editor) SetStyle(s Style) error {
	err := s.Validate()
	if err != nil {
		return err
	}
	e.style = s
	return nil
}

// Scene returns a copy of the active page's scene.
func (e *Editor) Scene() *scene.Scene {
	if e.current == nil {
		return nil
	}
	return e.current.Clone()
}

// SceneFor returns a copy of the saved scene for the given page.
// ok is false if the page has never been edited.
func (e *Editor) SceneFor(page int) (*scene.Scene, bool) {
	s, ok := e.scenes[page]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// PageScene returns a copy of the scene for any page. Pages without
// annotations get an empty scene at their display size.
func (e *Editor) PageScene(page int) (*scene.Scene, error) {
	if err := e.requireAnnotatable(); err != nil {
		return nil, err
	}
	if page < 1 || page > e.doc.PageCount() {
		return nil, errors.NewNotFound("page %d (document has %d pages)", page, e.doc.PageCount())
	}
	if page == e.page {
		return e.current.Clone(), nil
	}
	if s, ok := e.scenes[page]; ok {
		return s.Clone(), nil
	}
	v := e.viewport(page)
	return scene.New(v.Width, v.Height), nil
}

// Selection returns the ID of the selected object, if any.
func (e *Editor) Selection() string {
	return e.selection
}

// CanUndo tells if Undo would change the scene.
func (e *Editor) CanUndo() bool {
	return e.hist != nil && e.hist.CanUndo()
}

// CanRedo tells if Redo would change the scene.
func (e *Editor) CanRedo() bool {
	return e.hist != nil && e.hist.CanRedo()
}

// Viewport returns the display size of the active page.
func (e *Editor) Viewport() render.Size {
	return e.viewport(e.page)
}

// SetViewport sets the on-screen size of the active page.
//
// Existing objects are rescaled so they stay in place relative to the
// page. This starts a new history for the page.
func (e *Editor) SetViewport(width, height float64) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return errors.NewValidationError("invalid viewport %vx%v", width, height)
	}

	e.viewports[e.page] = render.Size{Width: width, Height: height}
	if e.current.Width == width && e.current.Height == height {
		return nil
	}

	scaled, err := e.current.ScaleTo(width, height)
	if err != nil {
		return err
	}
	e.current = scaled
	if _, ok := e.scenes[e.page]; ok {
		e.scenes[e.page] = scaled.Clone()
	}
	e.drag = nil
	e.resetHistory()
	return nil
}

// GoToPage makes another page the active one.
//
// The active scene is saved, the scene of the target page is restored
// (or an empty one is created) and the history starts over.
func (e *Editor) GoToPage(page int) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	if page < 1 || page > e.doc.PageCount() {
		return errors.NewNotFound("page %d (document has %d pages)", page, e.doc.PageCount())
	}
	if page == e.page {
		return nil
	}

	if !e.current.IsEmpty() {
		e.scenes[e.page] = e.current.Clone()
	}

	if s, ok := e.scenes[page]; ok {
		e.current = s.Clone()
	} else {
		e.current = e.emptyScene(page)
	}
	e.page = page
	e.selection = ""
	e.drag = nil
	e.resetHistory()

	logging.Debug("Switched to page %d", page)
	return nil
}

// PointerDown starts a gesture at x, y (display coordinates).
//
// With the Text tool, this places a new text object and selects it;
// the returned ID is empty for the other tools.
func (e *Editor) PointerDown(x, y float64) (string, error) {
	if err := e.requireAnnotatable(); err != nil {
		return "", err
	}
	p := scene.Point{X: x, Y: y}

	switch e.tool {
	case Text:
		o := scene.NewText(x, y, DefaultText, e.style.FontSize, e.style.Stroke)
		e.style.apply(&o)
		id, err := e.add(o)
		if err != nil {
			return "", err
		}
		e.selection = id
		return id, nil
	default:
		e.drag = &gesture{start: p, end: p, points: []scene.Point{p}}
	}
	return "", nil
}

// PointerMove continues a gesture.
func (e *Editor) PointerMove(x, y float64) {
	if e.drag == nil {
		return
	}
	p := scene.Point{X: x, Y: y}
	e.drag.end = p

	if e.tool == Draw {
		last := e.drag.points[len(e.drag.points)-1]
		// skip jitter
		if math.Hypot(p.X-last.X, p.Y-last.Y) >= 1 {
			e.drag.points = append(e.drag.points, p)
		}
	}
}

// PointerUp finishes a gesture and creates the resulting object.
// Returns the ID of the new object, or an empty string if the gesture
// did not produce one.
func (e *Editor) PointerUp(x, y float64) (string, error) {
	if e.drag == nil {
		return "", nil
	}
	e.PointerMove(x, y)
	d := e.drag
	e.drag = nil

	var o scene.Object
	switch e.tool {
	case Draw:
		o = scene.NewPath(d.points, e.style.Stroke, e.style.StrokeWidth)
	case Shape:
		w := math.Abs(d.end.X - d.start.X)
		h := math.Abs(d.end.Y - d.start.Y)
		if w < minDrag && h < minDrag {
			return "", nil
		}
		left := math.Min(d.start.X, d.end.X)
		top := math.Min(d.start.Y, d.end.Y)
		switch e.shape {
		case scene.Ellipse:
			o = scene.NewEllipse(left, top, w, h, e.style.Stroke, e.style.Fill)
		case scene.Line:
			o = scene.NewLine(d.start, d.end, e.style.Stroke, e.style.StrokeWidth)
		default:
			o = scene.NewRect(left, top, w, h, e.style.Stroke, e.style.Fill)
		}
	default:
		return "", nil
	}
	e.style.apply(&o)

	return e.add(o)
}

// AddObject adds a complete object to the active scene.
func (e *Editor) AddObject(o scene.Object) (string, error) {
	if err := e.requireAnnotatable(); err != nil {
		return "", err
	}
	return e.add(o)
}

// UpdateObject replaces the object with the same ID.
func (e *Editor) UpdateObject(o scene.Object) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	err := e.current.Update(o.ID, func(dst *scene.Object) {
		*dst = o
	})
	if err != nil {
		return err
	}
	return e.commit()
}

// SetText changes the content of a text object.
func (e *Editor) SetText(id, text string) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	o, ok := e.current.Find(id)
	if !ok {
		return errors.NewNotFound("no object with id %q", id)
	}
	if o.Kind != scene.Text {
		return errors.NewValidationError("object %q is not a text", id)
	}
	err := e.current.Update(id, func(dst *scene.Object) {
		dst.Text = text
	})
	if err != nil {
		return err
	}
	return e.commit()
}

// Select marks the object with the given ID as selected.
func (e *Editor) Select(id string) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	if _, ok := e.current.Find(id); !ok {
		return errors.NewNotFound("no object with id %q", id)
	}
	e.selection = id
	return nil
}

// SelectAt selects the topmost object at x, y.
// The selection is cleared if there is no object.
func (e *Editor) SelectAt(x, y float64) (string, bool) {
	if e.current == nil {
		return "", false
	}
	id, ok := e.current.HitTest(x, y)
	e.selection = id
	return id, ok
}

// ClearSelection deselects all objects.
func (e *Editor) ClearSelection() {
	e.selection = ""
}

// MoveSelection translates the selected object.
func (e *Editor) MoveSelection(dx, dy float64) error {
	if e.selection == "" {
		return errors.NewNotFound("nothing selected")
	}
	err := e.current.Move(e.selection, dx, dy)
	if err != nil {
		return err
	}
	return e.commit()
}

// DeleteSelection removes exactly the selected object and records one
// history entry.
func (e *Editor) DeleteSelection() error {
	if e.selection == "" {
		return errors.NewNotFound("nothing selected")
	}
	err := e.current.Remove(e.selection)
	if err != nil {
		return err
	}
	e.selection = ""
	return e.commit()
}

// Clear removes all objects from the active page.
func (e *Editor) Clear() error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	if e.current.IsEmpty() {
		return nil
	}
	e.current.Clear()
	e.selection = ""
	return e.commit()
}

// Undo restores the previous snapshot of the active page.
// Returns false if there is nothing to undo.
func (e *Editor) Undo() (bool, error) {
	if e.hist == nil {
		return false, nil
	}
	snap, ok := e.hist.Undo()
	if !ok {
		return false, nil
	}
	return true, e.restore(snap)
}

// Redo re-applies the next snapshot of the active page.
// Returns false if there is nothing to redo.
func (e *Editor) Redo() (bool, error) {
	if e.hist == nil {
		return false, nil
	}
	snap, ok := e.hist.Redo()
	if !ok {
		return false, nil
	}
	return true, e.restore(snap)
}

// Runs extracts the text runs of a page, to be used with EditText.
func (e *Editor) Runs(page int) ([]textrun.Run, error) {
	if err := e.requireAnnotatable(); err != nil {
		return nil, err
	}
	return textrun.Extract(e.doc.Bytes(), page)
}

// EditText records the replacement of a text run.
// An earlier edit for the same run is replaced.
func (e *Editor) EditText(run textrun.Run, replacement string) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	if run.Page < 1 || run.Page > e.doc.PageCount() {
		return errors.NewNotFound("page %d (document has %d pages)", run.Page, e.doc.PageCount())
	}
	return e.edits.Put(textrun.Edit{Run: run, Replacement: replacement})
}

// TextEdits returns the edits recorded for a page.
func (e *Editor) TextEdits(page int) []textrun.Edit {
	return e.edits.Page(page)
}

// RemoveTextEdit discards the edit with the given key (see textrun.Run.Key).
func (e *Editor) RemoveTextEdit(key string) error {
	return e.edits.Remove(key)
}

// Export writes the exported document to w.
//
// PDFs are flattened with all annotations and text edits; DOCX documents
// are written unchanged.
func (e *Editor) Export(w io.Writer) error {
	switch e.doc.FileType() {
	case DOCX:
		_, err := w.Write(e.doc.Bytes())
		return err
	case PDF:
		return e.exportPDF(w)
	}
	return errors.NewUnsupported("export of %v", e.doc.FileType())
}

func (e *Editor) exportPDF(w io.Writer) error {
	pages := make([]render.Page, e.doc.PageCount())
	for i := range pages {
		n := i + 1
		size, err := e.doc.PageSize(n)
		if err != nil {
			return err
		}
		pages[i] = render.Page{
			Number: n,
			Size:   size,
			Scene:  e.sceneForExport(n),
			Edits:  e.edits.Page(n),
		}
	}

	logging.Info("Export %q with %d pages", e.doc.ExportName(), len(pages))
	return e.opts.Render.Flatten(e.doc.Bytes(), pages, e.doc.ExportName(), w)
}

func (e *Editor) sceneForExport(page int) *scene.Scene {
	if page == e.page {
		return e.current
	}
	return e.scenes[page]
}

// Preview writes an HTML preview of a DOCX document.
func (e *Editor) Preview(w io.Writer) error {
	if e.doc.FileType() != DOCX {
		return errors.NewUnsupported("preview of %v documents", e.doc.FileType())
	}
	data := e.doc.Bytes()
	return docx.Render(w, bytes.NewReader(data), int64(len(data)))
}

// Annotations returns all scenes and text edits.
func (e *Editor) Annotations() *Annotations {
	a := &Annotations{
		Scenes: make(map[int]*scene.Scene),
		Edits:  e.edits.All(),
	}
	for page, s := range e.scenes {
		a.Scenes[page] = s.Clone()
	}
	if e.current != nil {
		if e.current.IsEmpty() {
			delete(a.Scenes, e.page)
		} else {
			a.Scenes[e.page] = e.current.Clone()
		}
	}
	return a
}

// ImportAnnotations replaces all scenes and text edits.
// The active page starts a new history.
func (e *Editor) ImportAnnotations(a *Annotations) error {
	if err := e.requireAnnotatable(); err != nil {
		return err
	}
	err := a.Validate(e.doc.PageCount())
	if err != nil {
		return err
	}

	edits := textrun.NewEdits()
	for _, ed := range a.Edits {
		err = edits.Put(ed)
		if err != nil {
			return err
		}
	}

	e.scenes = make(map[int]*scene.Scene)
	for page, s := range a.Scenes {
		e.scenes[page] = s.Clone()
		e.viewports[page] = render.Size{Width: s.Width, Height: s.Height}
	}
	e.edits = edits

	if s, ok := e.scenes[e.page]; ok {
		e.current = s.Clone()
	} else {
		e.current = e.emptyScene(e.page)
	}
	e.selection = ""
	e.drag = nil
	e.resetHistory()
	return nil
}

func (e *Editor) add(o scene.Object) (string, error) {
	id, err := e.current.Add(o)
	if err != nil {
		return "", err
	}
	return id, e.commit()
}

// commit saves the active scene and pushes a snapshot.
func (e *Editor) commit() error {
	snap, err := e.current.Snapshot()
	if err != nil {
		return err
	}
	e.scenes[e.page] = e.current.Clone()
	e.hist.Push(snap)
	return nil
}

func (e *Editor) restore(snap []byte) error {
	s, err := scene.Restore(snap)
	if err != nil {
		return err
	}
	e.current = s
	e.scenes[e.page] = s.Clone()
	e.selection = ""
	e.drag = nil
	return nil
}

func (e *Editor) resetHistory() {
	snap, err := e.current.Snapshot()
	if err != nil {
		// a scene we built ourselves always serializes
		logging.Error("Failed to snapshot scene for page %d: %v", e.page, err)
	}
	if e.hist == nil {
		e.hist = history.New(snap, e.opts.HistoryLimit)
	} else {
		e.hist.Reset(snap)
	}
}

func (e *Editor) emptyScene(page int) *scene.Scene {
	v := e.viewport(page)
	e.viewports[page] = v
	return scene.New(v.Width, v.Height)
}

// viewport returns the display size for a page.
// Pages that were never displayed use the zoom factor of the active page.
func (e *Editor) viewport(page int) render.Size {
	if v, ok := e.viewports[page]; ok {
		return v
	}

	native, err := e.doc.PageSize(page)
	if err != nil {
		return render.Size{}
	}

	zoom := 1.0
	if v, ok := e.viewports[e.page]; ok && e.page != page {
		if ref, err := e.doc.PageSize(e.page); err == nil && ref.Width > 0 {
			zoom = v.Width / ref.Width
		}
	}
	return render.Size{Width: native.Width * zoom, Height: native.Height * zoom}
}

func (e *Editor) requireAnnotatable() error {
	if e.doc == nil || e.doc.FileType() != PDF || e.current == nil {
		return errors.NewUnsupported("annotations require a PDF document")
	}
	return nil
}
