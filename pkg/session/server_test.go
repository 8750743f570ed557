package session

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeil/annotate"
	"github.com/akeil/annotate/pkg/render"
	"github.com/akeil/annotate/pkg/scene"
)

func samplePDF(t *testing.T) []byte {
	t.Helper()
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetFont("helvetica", "", 12)
	doc.AddPage()
	doc.Text(72, 72, "Page one")
	doc.AddPage()
	doc.Text(72, 72, "Page two")

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
	w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Preview me</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := New(annotate.Options{Render: render.NewContext(1, true)})
	go s.Run(ctx)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

func upload(t *testing.T, ts *httptest.Server, name, mimeType string, data []byte) *http.Response {
	t.Helper()
	res, err := http.Post(ts.URL+"/document?name="+name, mimeType, bytes.NewReader(data))
	require.NoError(t, err)
	return res
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmd Command) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.WriteJSON(cmd))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestUploadRejectsType(t *testing.T) {
	ts := startServer(t)

	res := upload(t, ts, "image.png", "image/png", []byte("\x89PNG"))
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)

	var msg Message
	require.NoError(t, json.NewDecoder(res.Body).Decode(&msg))
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, "Unsupported")

	// still no document
	res, err := http.Get(ts.URL + "/document")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUploadMultipart(t *testing.T) {
	ts := startServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	fw.Write(samplePDF(t))
	require.NoError(t, mw.Close())

	res, err := http.Post(ts.URL+"/document", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var info Info
	require.NoError(t, json.NewDecoder(res.Body).Decode(&info))
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, "pdf", info.Type)
	assert.Equal(t, "edited_report.pdf", info.ExportName)
	assert.Equal(t, 2, info.Pages)
	assert.Len(t, info.Sizes, 2)
}

func TestAnnotateAndExport(t *testing.T) {
	ts := startServer(t)
	res := upload(t, ts, "doc.pdf", annotate.MIMEPDF, samplePDF(t))
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	conn := dial(t, ts)

	msg := send(t, conn, Command{Type: CmdViewport, Width: 300, Height: 400})
	require.Equal(t, MsgState, msg.Type, msg.Error)

	msg = send(t, conn, Command{Type: CmdTool, Tool: "shape", Shape: scene.Rect})
	require.Equal(t, MsgState, msg.Type, msg.Error)
	assert.Equal(t, "shape", msg.State.Tool)

	send(t, conn, Command{Type: CmdPointer, Phase: PointerDown, X: 10, Y: 10})
	send(t, conn, Command{Type: CmdPointer, Phase: PointerMove, X: 50, Y: 30})
	msg = send(t, conn, Command{Type: CmdPointer, Phase: PointerUp, X: 100, Y: 60})
	require.Equal(t, MsgState, msg.Type, msg.Error)
	require.NotEmpty(t, msg.State.Created)
	assert.Equal(t, 1, msg.State.Scene.Len())
	assert.True(t, msg.State.CanUndo)

	msg = send(t, conn, Command{Type: CmdUndo})
	assert.True(t, msg.State.Scene.IsEmpty())
	msg = send(t, conn, Command{Type: CmdRedo})
	assert.Equal(t, 1, msg.State.Scene.Len())

	msg = send(t, conn, Command{Type: CmdPage, Page: 2})
	assert.Equal(t, 2, msg.State.Page)
	assert.True(t, msg.State.Scene.IsEmpty())
	assert.False(t, msg.State.CanUndo)

	msg = send(t, conn, Command{Type: CmdPage, Page: 9})
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, "Not found")

	// errors are not fatal
	msg = send(t, conn, Command{Type: CmdPage, Page: 1})
	require.Equal(t, MsgState, msg.Type)
	assert.Equal(t, 1, msg.State.Scene.Len())

	res, err := http.Get(ts.URL + "/page/1.png?width=150")
	require.NoError(t, err)
	img, err := png.Decode(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())

	res, err = http.Get(ts.URL + "/export")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, annotate.MIMEPDF, res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "edited_doc.pdf")

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.NoError(t, render.ValidatePDF(bytes.NewReader(data)))
}

func TestSelectAndDeleteCommand(t *testing.T) {
	ts := startServer(t)
	res := upload(t, ts, "doc.pdf", annotate.MIMEPDF, samplePDF(t))
	res.Body.Close()
	conn := dial(t, ts)

	o := scene.NewRect(10, 10, 40, 40, scene.Red, scene.None)
	msg := send(t, conn, Command{Type: CmdAdd, Object: &o})
	require.Equal(t, MsgState, msg.Type, msg.Error)
	id := msg.State.Created

	msg = send(t, conn, Command{Type: CmdSelect, X: 20, Y: 20})
	assert.Equal(t, id, msg.State.Selection)

	msg = send(t, conn, Command{Type: CmdDelete})
	require.Equal(t, MsgState, msg.Type, msg.Error)
	assert.True(t, msg.State.Scene.IsEmpty())
	assert.Empty(t, msg.State.Selection)

	msg = send(t, conn, Command{Type: "bogus"})
	assert.Equal(t, MsgError, msg.Type)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgError, msg.Type)
}

func TestDOCXSession(t *testing.T) {
	ts := startServer(t)
	data := sampleDOCX(t)
	res := upload(t, ts, "letter.docx", annotate.MIMEDOCX, data)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, err := http.Get(ts.URL + "/preview")
	require.NoError(t, err)
	html, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(html), "Preview me")

	res, err = http.Get(ts.URL + "/export")
	require.NoError(t, err)
	out, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.True(t, bytes.Equal(data, out))

	conn := dial(t, ts)
	msg := send(t, conn, Command{Type: CmdPointer, Phase: PointerDown, X: 1, Y: 1})
	assert.Equal(t, MsgError, msg.Type)
}

func TestNoDocument(t *testing.T) {
	ts := startServer(t)
	conn := dial(t, ts)
	msg := send(t, conn, Command{Type: CmdState})
	assert.Equal(t, MsgError, msg.Type)

	res, err := http.Get(ts.URL + "/export")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
