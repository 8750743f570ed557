package annotate

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/akeil/annotate/internal/errors"
)

// MIME types of the supported documents.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// FileType is one of the supported document types.
type FileType int

const (
	Unknown FileType = iota
	PDF
	DOCX
)

func (f FileType) String() string {
	switch f {
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// Ext returns the file extension including the dot.
func (f FileType) Ext() string {
	switch f {
	case PDF:
		return ".pdf"
	case DOCX:
		return ".docx"
	default:
		return ""
	}
}

// MIME returns the MIME type for this file type.
func (f FileType) MIME() string {
	switch f {
	case PDF:
		return MIMEPDF
	case DOCX:
		return MIMEDOCX
	default:
		return ""
	}
}

var typesByExt = map[string]FileType{
	PDF.Ext():  PDF,
	DOCX.Ext(): DOCX,
}

// ParseFileType determines the file type from a MIME type.
// MIME parameters are ignored.
//
// Returns an "unsupported" error for anything but PDF or DOCX.
func ParseFileType(mimeType string) (FileType, error) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return Unknown, errors.NewUnsupported("invalid MIME type %q", mimeType)
	}

	switch strings.ToLower(mt) {
	case MIMEPDF:
		return PDF, nil
	case MIMEDOCX:
		return DOCX, nil
	}
	return Unknown, errors.NewUnsupported("file type %q, expected PDF or DOCX", mt)
}

// MIMEFromName guesses the MIME type from a file name.
// Returns an empty string for unknown extensions.
func MIMEFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ft, ok := typesByExt[ext]; ok {
		return ft.MIME()
	}
	return mime.TypeByExtension(ext)
}
