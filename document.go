package annotate

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
	"github.com/akeil/annotate/pkg/docx"
	"github.com/akeil/annotate/pkg/render"
)

// ExportPrefix is prepended to the name of exported files.
const ExportPrefix = "edited_"

// A Document is a loaded PDF or DOCX file.
//
// The original bytes are kept unchanged; annotations live in an Editor.
type Document struct {
	name     string
	fileType FileType
	data     []byte
	sizes    []render.Size
}

// Open reads a document from r.
//
// The MIME type decides how the document is loaded. Anything but PDF or
// DOCX is rejected with an "unsupported" error. Corrupt files result in a
// validation error.
func Open(name, mimeType string, r io.Reader) (*Document, error) {
	ft, err := ParseFileType(mimeType)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read %q", name)
	}

	d := &Document{
		name:     filepath.Base(name),
		fileType: ft,
		data:     data,
	}

	switch ft {
	case PDF:
		err = d.loadPDF()
	case DOCX:
		err = docx.Check(bytes.NewReader(data), int64(len(data)))
	}
	if err != nil {
		return nil, errors.Wrap(err, "load %q", d.name)
	}

	logging.Info("Loaded %v document %q (%d bytes, %d pages)", ft, d.name, len(data), d.PageCount())
	return d, nil
}

// OpenFile loads a document from the file system.
// The MIME type is derived from the file extension.
func OpenFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Open(path, MIMEFromName(path), f)
}

func (d *Document) loadPDF() error {
	// allow for some garbage before the header, like most readers do
	head := d.data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return errors.NewValidationError("missing PDF header")
	}

	sizes, err := render.PageSizes(bytes.NewReader(d.data))
	if err != nil {
		return err
	}
	d.sizes = sizes
	return nil
}

// Name is the base name of the original file.
func (d *Document) Name() string {
	return d.name
}

// FileType is either PDF or DOCX.
func (d *Document) FileType() FileType {
	return d.fileType
}

// PageCount returns the number of pages.
// DOCX documents are not paginated and report zero pages.
func (d *Document) PageCount() int {
	return len(d.sizes)
}

// PageSize returns the native size (in points) of the given 1-based page.
func (d *Document) PageSize(page int) (render.Size, error) {
	if page < 1 || page > len(d.sizes) {
		return render.Size{}, errors.NewNotFound("page %d (document has %d pages)", page, len(d.sizes))
	}
	return d.sizes[page-1], nil
}

// Bytes returns the original file content.
func (d *Document) Bytes() []byte {
	return d.data
}

// ExportName is the file name for an exported copy.
func (d *Document) ExportName() string {
	return ExportPrefix + d.name
}
