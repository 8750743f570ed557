// Package session serves a single annotation session to a local browser.
//
// All access to the editor goes through one goroutine (see Run); HTTP
// handlers and websocket connections send jobs to it and wait for the
// result.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/akeil/annotate"
	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
	"github.com/akeil/annotate/pkg/render"
	"github.com/akeil/annotate/pkg/textrun"
)

// MaxUpload is the maximum accepted document size in bytes.
const MaxUpload = 64 << 20

var errNoDocument = errors.NewNotFound("no document loaded")

type job struct {
	fn    func() error
	reply chan error
}

// Server holds one editor session.
type Server struct {
	opts   annotate.Options
	render *render.Context
	jobs   chan job
	done   chan struct{}
	editor *annotate.Editor
}

// New creates a server with no document loaded.
func New(opts annotate.Options) *Server {
	if opts.Render == nil {
		opts.Render = render.DefaultContext()
	}
	return &Server{
		opts:   opts,
		render: opts.Render,
		jobs:   make(chan job),
		done:   make(chan struct{}),
	}
}

// Run processes jobs until ctx is cancelled.
// It must be running for the handlers to respond.
func (s *Server) Run(ctx context.Context) {
	defer close(s.done)
	logging.Debug("Session loop started")
	for {
		select {
		case <-ctx.Done():
			logging.Debug("Session loop stopped")
			return
		case j := <-s.jobs:
			j.reply <- s.safely(j.fn)
		}
	}
}

func (s *Server) safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Recovered from panic in session: %v", r)
			err = errors.NewValidationError("internal error: %v", r)
		}
	}()
	return fn()
}

// do runs fn on the session goroutine.
func (s *Server) do(ctx context.Context, fn func() error) error {
	j := job{fn: fn, reply: make(chan error, 1)}
	select {
	case s.jobs <- j:
	case <-s.done:
		return errors.NewUnsupported("session closed")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withEditor runs fn with the current editor on the session goroutine.
func (s *Server) withEditor(ctx context.Context, fn func(e *annotate.Editor) error) error {
	return s.do(ctx, func() error {
		if s.editor == nil {
			return errNoDocument
		}
		return fn(s.editor)
	})
}

// Handler returns the HTTP handler for the session endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /document", s.handleUpload)
	mux.HandleFunc("GET /document", s.handleInfo)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("GET /page/{file}", s.handlePage)
	mux.HandleFunc("GET /runs/{page}", s.handleRuns)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, mimeType, body, err := readUpload(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer body.Close()

	// parse outside the session loop, the old document stays usable
	doc, err := annotate.Open(name, mimeType, body)
	if err != nil {
		logging.Warning("Rejected upload %q: %v", name, err)
		s.fail(w, err)
		return
	}

	err = s.do(r.Context(), func() error {
		if s.editor == nil {
			e, err := annotate.NewEditor(doc, s.opts)
			if err != nil {
				return err
			}
			s.editor = e
			return nil
		}
		return s.editor.Load(doc)
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, infoOf(doc))
}

// readUpload accepts a multipart form with a "file" field or a raw body
// with the name in the "name" query parameter.
func readUpload(w http.ResponseWriter, r *http.Request) (string, string, io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUpload)

	ct := r.Header.Get("Content-Type")
	mt, _, _ := mime.ParseMediaType(ct)
	if mt == "multipart/form-data" {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", "", nil, errors.NewValidationError("missing file: %v", err)
		}
		fileType := hdr.Header.Get("Content-Type")
		if fileType == "" || fileType == "application/octet-stream" {
			fileType = annotate.MIMEFromName(hdr.Filename)
		}
		return hdr.Filename, fileType, f, nil
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		return "", "", nil, errors.NewValidationError("missing name parameter")
	}
	return name, ct, r.Body, nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var info Info
	err := s.withEditor(r.Context(), func(e *annotate.Editor) error {
		info = infoOf(e.Document())
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var name, mimeType string
	err := s.withEditor(r.Context(), func(e *annotate.Editor) error {
		name = e.Document().ExportName()
		mimeType = e.Document().FileType().MIME()
		return e.Export(&buf)
	})
	if err != nil {
		logging.Error("Export failed: %v", err)
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.withEditor(r.Context(), func(e *annotate.Editor) error {
		return e.Preview(&buf)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// handlePage renders the annotations of one page as a transparent PNG.
// The optional "width" parameter scales the image.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	if !strings.HasSuffix(file, ".png") {
		s.fail(w, errors.NewNotFound("page %q", file))
		return
	}
	page, err := strconv.Atoi(strings.TrimSuffix(file, ".png"))
	if err != nil {
		s.fail(w, errors.NewNotFound("page %q", file))
		return
	}
	width, err := intParam(r, "width")
	if err != nil {
		s.fail(w, err)
		return
	}

	var buf bytes.Buffer
	err = s.withEditor(r.Context(), func(e *annotate.Editor) error {
		sc, err := e.PageScene(page)
		if err != nil {
			return err
		}
		return s.render.PNG(sc, width, &buf)
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	buf.WriteTo(w)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		s.fail(w, errors.NewNotFound("page %q", r.PathValue("page")))
		return
	}

	var runs []textrun.Run
	err = s.withEditor(r.Context(), func(e *annotate.Editor) error {
		found, err := e.Runs(page)
		runs = found
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if runs == nil {
		runs = make([]textrun.Run, 0)
	}
	writeJSON(w, http.StatusOK, runs)
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError("invalid %v %q", name, v)
	}
	return n, nil
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorMessage(err))
}

func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsUnsupported(err):
		return http.StatusUnsupportedMediaType
	case errors.IsValidationError(err):
		return http.StatusBadRequest
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logging.Warning("Failed to write response: %v", err)
	}
}
