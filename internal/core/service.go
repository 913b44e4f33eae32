package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/logging"
)

// ErrFileTooLarge is returned when a filing's declared length exceeds the
// service's limit.
var ErrFileTooLarge = errors.New("file too large")

// Report is the summary produced by Inspect.
type Report struct {
	RunID       string         `json:"run_id"`
	FilingID    string         `json:"filing_id"`
	Header      fecfile.Header `json:"header"`
	Cover       fecfile.Cover  `json:"cover"`
	ReportLabel string         `json:"report_label,omitempty"`
	Rows        []RowStat      `json:"rows"`
	TotalRows   int            `json:"total_rows"`
	TotalBytes  int64          `json:"total_bytes"`
	Elapsed     time.Duration  `json:"elapsed_ns"`
}

// Service parses filings on behalf of the HTTP surface.
type Service struct {
	parser  *fecfile.Parser
	limiter *ParseLimiter
	maxSize int64
}

// NewService creates a Service. A nil limiter leaves parses unbounded;
// maxSize <= 0 disables the size check.
func NewService(parser *fecfile.Parser, limiter *ParseLimiter, maxSize int64) *Service {
	return &Service{parser: parser, limiter: limiter, maxSize: maxSize}
}

// Limiter returns the service's parse limiter, which may be nil.
func (s *Service) Limiter() *ParseLimiter { return s.limiter }

// MaxSize returns the largest accepted filing in bytes, or 0 for no limit.
func (s *Service) MaxSize() int64 { return s.maxSize }

// Inspect reads the filing in r and summarizes its header, cover and rows.
// size is the declared length of r, or 0 if unknown.
func (s *Service) Inspect(ctx context.Context, r io.Reader, filingID string, size int64) (*Report, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, s.maxSize)
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	runID := uuid.NewString()
	logger := logging.ForFiling(ctx, filingID, runID)
	start := time.Now()

	f, err := s.parser.Open(r, filingID, size)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stats, err := Summarize(ctx, f)
	if err != nil {
		return nil, err
	}
	rows, bytes := Totals(stats)

	rep := &Report{
		RunID:      runID,
		FilingID:   filingID,
		Header:     f.Header,
		Cover:      f.Cover,
		Rows:       stats,
		TotalRows:  rows,
		TotalBytes: bytes,
		Elapsed:    time.Since(start),
	}
	if f.Cover.ReportCode != "" {
		rep.ReportLabel = fecfile.ReportCodeLabel(f.Cover.ReportCode)
	}

	logger.Info("filing inspected",
		"form_type", f.Cover.FormType,
		"rows", rows,
		"row_types", len(stats),
		"elapsed", rep.Elapsed,
	)
	return rep, nil
}
