package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/web/templates"
)

// multipartOverhead is allowed on top of the filing size for form fields
// and part headers.
const multipartOverhead = 1 << 20

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.IndexPage(s.service.MaxSize()).Render(r.Context(), w)
}

// handleInspectPage inspects a filing uploaded through the form and renders
// the summary page.
func (s *Server) handleInspectPage(w http.ResponseWriter, r *http.Request) {
	if limit := s.service.MaxSize(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if isMaxBytes(err) {
			s.respondError(w, r, tooLarge(err), 0)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), 0)
		return
	}
	defer file.Close()

	rep, err := s.service.Inspect(r.Context(), file, filingIDFor(r, header.Filename), header.Size)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.ReportPage(rep).Render(r.Context(), w)
}

// handleInspect inspects a filing sent as the raw request body and returns
// the report as JSON.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	if limit := s.service.MaxSize(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	size := r.ContentLength
	if size < 0 {
		size = 0
	}

	rep, err := s.service.Inspect(r.Context(), r.Body, filingIDFor(r, ""), size)
	if err != nil {
		if isMaxBytes(err) {
			err = tooLarge(err)
		}
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleReportCode returns the label of a report code.
func (s *Server) handleReportCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	label := fecfile.ReportCodeLabel(code)

	status := http.StatusOK
	if label == fecfile.UnknownReportCode {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"code": code, "label": label})
}

// handleStatus reports parse slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status core.LimiterStatus
	if l := s.service.Limiter(); l != nil {
		status = l.Status()
	}
	writeJSON(w, http.StatusOK, status)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isMaxBytes(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

// tooLarge rewraps a body size error as core.ErrFileTooLarge.
func tooLarge(err error) error {
	return fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
}
