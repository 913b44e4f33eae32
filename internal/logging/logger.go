// Package logging sets up the process-wide slog logger and derives scoped
// loggers from it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Attribute keys shared by every component that logs about a filing.
const (
	KeyRequestID = "request_id"
	KeyFilingID  = "filing_id"
	KeyRunID     = "run_id"
)

// Setup builds a logger writing to w, installs it as the slog default and
// returns it. Unknown levels fall back to info; any format other than
// "json" produces text output.
func Setup(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// FromContext returns the default logger, carrying request_id when ctx was
// seen by chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return slog.Default().With(KeyRequestID, id)
	}
	return slog.Default()
}

// WithFields is FromContext plus extra attributes.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ForFiling returns a logger scoped to one filing. runID is omitted when
// empty.
func ForFiling(ctx context.Context, filingID, runID string) *slog.Logger {
	if runID == "" {
		return WithFields(ctx, KeyFilingID, filingID)
	}
	return WithFields(ctx, KeyRunID, runID, KeyFilingID, filingID)
}
