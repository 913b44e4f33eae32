package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

// ValueKind is the type a field was coerced to.
type ValueKind int

const (
	KindText ValueKind = iota
	KindDate
	KindFloat
)

func (k ValueKind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Value is one typed field handed to a sink. Dates are carried as
// YYYY-MM-DD text; Float holds the parsed number for KindFloat.
type Value struct {
	Kind  ValueKind
	Text  string
	Float float64
}

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Date returns a date value from an ISO YYYY-MM-DD string.
func Date(iso string) Value { return Value{Kind: KindDate, Text: iso} }

// Float returns a float value. Text keeps the original spelling.
func Float(f float64, raw string) Value { return Value{Kind: KindFloat, Float: f, Text: raw} }

// String renders the value the way it appeared after coercion.
func (v Value) String() string {
	if v.Kind == KindFloat && v.Text == "" {
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	}
	return v.Text
}

// Any returns the value as a driver-friendly Go value: float64 for floats,
// string otherwise.
func (v Value) Any() any {
	if v.Kind == KindFloat {
		return v.Float
	}
	return v.Text
}

// Warning reports a row that had more fields than its layout and was
// truncated.
type Warning struct {
	FilingID string
	RowType  string
	Line     int
	Offset   int64
	Got      int
	Want     int
}

func (w Warning) String() string {
	return fmt.Sprintf("filing %s line %d (offset %d): %s has %d values, want %d; truncated",
		w.FilingID, w.Line, w.Offset, w.RowType, w.Got, w.Want)
}

// FilingRecord is the per-filing summary written before any rows.
type FilingRecord struct {
	FilingID string
	Header   fecfile.Header
	Cover    fecfile.Cover
}

// NewFilingRecord captures the summary of an open filing.
func NewFilingRecord(f *fecfile.Filing) FilingRecord {
	return FilingRecord{FilingID: f.ID, Header: f.Header, Cover: f.Cover}
}

// Sink receives exported filings. Implementations must be safe for
// concurrent Begin calls; each Session is used by one goroutine.
type Sink interface {
	Begin(ctx context.Context) (Session, error)
}

// Session is one unit of export work. Either Commit or Rollback is called
// exactly once.
type Session interface {
	WriteFiling(ctx context.Context, rec FilingRecord) error

	// Prepare returns the writer for a table named after rowType. It is
	// called once per distinct table within a session.
	Prepare(ctx context.Context, rowType string, cols *schema.Columns) (RowWriter, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RowWriter writes rows of a single row type. values has one slot for the
// filing id followed by one per column; row carries the raw fields.
type RowWriter interface {
	WriteRow(ctx context.Context, row *fecfile.Row, values []Value) error
}

// ExportResult summarizes one exported filing.
type ExportResult struct {
	FilingID string
	Rows     int
	Skipped  int
	Warnings int
	Tables   []string
	Duration time.Duration
}
