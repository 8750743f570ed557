package annotate

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/fs"
	"github.com/akeil/annotate/pkg/scene"
	"github.com/akeil/annotate/pkg/textrun"
)

// AnnotationsExt is the extension for annotation sidecar files.
const AnnotationsExt = ".annotations.json"

// Annotations hold the scenes and text edits of one document.
type Annotations struct {
	// Scenes maps 1-based page numbers to scenes.
	Scenes map[int]*scene.Scene `json:"scenes"`
	Edits  []textrun.Edit       `json:"edits,omitempty"`
}

// Pages returns the numbers of all annotated pages in ascending order.
func (a *Annotations) Pages() []int {
	pages := make([]int, 0, len(a.Scenes))
	for p := range a.Scenes {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Validate checks that all pages exist in a document with pageCount pages
// and that every scene is valid.
func (a *Annotations) Validate(pageCount int) error {
	for page, s := range a.Scenes {
		if page < 1 || page > pageCount {
			return errors.NewValidationError("scene for page %d, document has %d pages", page, pageCount)
		}
		if s == nil {
			return errors.NewValidationError("missing scene for page %d", page)
		}
		err := s.Validate()
		if err != nil {
			return errors.Wrap(err, "page %d", page)
		}
	}
	for _, ed := range a.Edits {
		if ed.Run.Page < 1 || ed.Run.Page > pageCount {
			return errors.NewValidationError("text edit for page %d, document has %d pages", ed.Run.Page, pageCount)
		}
	}
	return nil
}

// ReadAnnotations decodes annotations from JSON.
func ReadAnnotations(r io.Reader) (*Annotations, error) {
	var a Annotations
	err := json.NewDecoder(r).Decode(&a)
	if err != nil {
		return nil, errors.NewValidationError("invalid annotations: %v", err)
	}
	if a.Scenes == nil {
		a.Scenes = make(map[int]*scene.Scene)
	}
	return &a, nil
}

// ReadAnnotationsFile reads annotations from a JSON file.
func ReadAnnotationsFile(path string) (*Annotations, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("annotations %q", path)
		}
		return nil, err
	}
	defer f.Close()

	return ReadAnnotations(f)
}

// Write encodes the annotations as JSON.
func (a *Annotations) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// WriteFile replaces the file at path with the encoded annotations.
func (a *Annotations) WriteFile(path string) error {
	return fs.WriteAtomic(path, a.Write)
}

// String is a short summary like "3 scenes, 1 edit".
func (a *Annotations) String() string {
	return plural(len(a.Scenes), "scene") + ", " + plural(len(a.Edits), "edit")
}

func plural(n int, word string) string {
	s := strconv.Itoa(n) + " " + word
	if n != 1 {
		s += "s"
	}
	return s
}
