package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstyle/internal/layout"
	"github.com/dgallion1/docstyle/internal/parser"
	"github.com/dgallion1/docstyle/internal/pipeline"
	"github.com/dgallion1/docstyle/internal/store"
)

// pdfContentTypes are the part types accepted for .pdf uploads. Clients
// that send no type get application/octet-stream.
var pdfContentTypes = map[string]bool{
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true,
}

// uploadError carries the HTTP status of a rejected upload.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

func badUpload(status int, format string, args ...any) error {
	return &uploadError{status: status, msg: fmt.Sprintf(format, args...)}
}

// readFile validates one uploaded part and returns its sanitized name and
// contents.
func (s *Server) readFile(fh *multipart.FileHeader) (string, []byte, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, badUpload(http.StatusBadRequest, "unsupported file type: %s", filepath.Ext(filename))
	}
	if isPDF(filename) {
		ct := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
		if ct != "" && !pdfContentTypes[ct] {
			return filename, nil, badUpload(http.StatusBadRequest, "expected a PDF file, got %s", ct)
		}
	}

	f, err := fh.Open()
	if err != nil {
		return filename, nil, badUpload(http.StatusInternalServerError, "failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, badUpload(http.StatusInternalServerError, "failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, badUpload(http.StatusRequestEntityTooLarge, "file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	if len(data) == 0 {
		return filename, nil, badUpload(http.StatusBadRequest, "file is empty")
	}
	if err := parser.CheckMagic(filename, data); err != nil {
		return filename, nil, badUpload(http.StatusBadRequest, "%s", err)
	}
	return filename, data, nil
}

// parseForm reads the multipart body under the upload limit.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", tooBig.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// formFile returns the single "file" part of a parsed form.
func formFile(r *http.Request) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["file"]) == 0 {
		return nil, badUpload(http.StatusBadRequest, "file is required")
	}
	return r.MultipartForm.File["file"][0], nil
}

// errorStatus maps a pipeline error onto an HTTP status.
func errorStatus(err error) int {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		return ue.status
	case errors.Is(err, parser.ErrUnsupportedFormat), errors.Is(err, parser.ErrNotPDF):
		return http.StatusBadRequest
	case errors.Is(err, layout.ErrEmptyDocument), errors.Is(err, layout.ErrMalformedInput),
		errors.Is(err, pipeline.ErrUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, parser.ErrOCRNotEnabled):
		return http.StatusNotImplemented
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	if code >= 500 && code != http.StatusServiceUnavailable && code != http.StatusNotImplemented {
		s.log.Error("request failed", "error", err)
	}
	jsonError(w, err.Error(), code)
}

func isPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
