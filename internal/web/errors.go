package web

// errors.go turns errors into responses.
//
// The technical error is logged with the request id; the client gets the
// user-facing message from core.MapError as JSON for API routes or as an
// HTML page otherwise.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/logging"
	"github.com/JonMunkholm/fec/internal/schema"
	"github.com/JonMunkholm/fec/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errNoFile is reported when a form upload has no file part.
var errNoFile = errors.New("no file provided")

// respondError logs err and writes the user-facing response. A status of
// 0 is derived from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
		return
	}
	respondErrorHTML(w, r, userMsg, status)
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyParses):
		return http.StatusServiceUnavailable
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case isFilingError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// isFilingError reports whether err describes malformed filing content.
func isFilingError(err error) bool {
	var (
		header  *fecfile.IncorrectHeaderError
		version *fecfile.UnsupportedVersionError
		field   *fecfile.MissingFieldError
		cover   *fecfile.CoverError
		record  *fecfile.RecordReadError
		empty   *fecfile.EmptyRecordError
		text    *fecfile.UnterminatedTextBlockError
		resolve *schema.ResolutionError
	)
	return errors.Is(err, fecfile.ErrMissingHeader) ||
		errors.As(err, &header) ||
		errors.As(err, &version) ||
		errors.As(err, &field) ||
		errors.As(err, &cover) ||
		errors.As(err, &record) ||
		errors.As(err, &empty) ||
		errors.As(err, &text) ||
		errors.As(err, &resolve)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
