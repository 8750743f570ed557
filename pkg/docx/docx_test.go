package docx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeil/annotate/internal/errors"
)

const body = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>
<w:p>
  <w:r><w:t xml:space="preserve">Plain </w:t></w:r>
  <w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r>
  <w:r><w:rPr><w:b w:val="0"/><w:i/></w:rPr><w:t>italic</w:t></w:r>
  <w:r><w:br/><w:t>&lt;next&gt;</w:t></w:r>
</w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body>
</w:document>`

func makeDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPreview(t *testing.T) {
	data := makeDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   body,
	})

	out, err := Preview(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="docx-preview">`)
	assert.Contains(t, out, "<h1>Report</h1>")
	assert.Contains(t, out, "<p>Plain <strong>bold</strong><em>italic</em><br/>&lt;next&gt;</p>")
	assert.Contains(t, out, "<table><tr><td><p>cell</p></td></tr></table>")
}

func TestCheck(t *testing.T) {
	data := makeDocx(t, map[string]string{"word/document.xml": body})
	assert.NoError(t, Check(bytes.NewReader(data), int64(len(data))))

	data = makeDocx(t, map[string]string{"mimetype": "application/epub+zip"})
	err := Check(bytes.NewReader(data), int64(len(data)))
	assert.True(t, errors.IsValidationError(err))

	garbage := []byte("%PDF-1.4")
	err = Check(bytes.NewReader(garbage), int64(len(garbage)))
	assert.True(t, errors.IsValidationError(err))
}
