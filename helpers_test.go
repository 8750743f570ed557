package annotate

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// samplePDF creates a document with the given number of A4 pages.
func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetFont("helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Text(72, 72, "Hello World")
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func sampleDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hello DOCX</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func openPDF(t *testing.T, pages int) *Document {
	t.Helper()
	d, err := Open("sample.pdf", MIMEPDF, bytes.NewReader(samplePDF(t, pages)))
	require.NoError(t, err)
	return d
}

func openDOCX(t *testing.T) *Document {
	t.Helper()
	d, err := Open("sample.docx", MIMEDOCX, bytes.NewReader(sampleDOCX(t)))
	require.NoError(t, err)
	return d
}
