package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/logging"
	"github.com/JonMunkholm/fec/internal/schema"
)

// Target selects which rows an export writes and where.
type Target int

const (
	// TargetByFormType writes every row to a table named after its row type.
	TargetByFormType Target = iota

	// TargetScheduleA writes only Schedule A rows, all into one table.
	TargetScheduleA
)

// ScheduleATable is the table name used by TargetScheduleA.
const ScheduleATable = "schedule_a"

// ctxCheckInterval is how many rows are written between context checks.
const ctxCheckInterval = 1000

// Exporter drives filings into a sink.
type Exporter struct {
	Sink   Sink
	Target Target

	// OnWarning, if set, is called for every reconciliation warning in
	// addition to the warning being logged.
	OnWarning func(Warning)
}

// table is a prepared writer plus the layout its rows are reconciled against.
type table struct {
	cols *schema.Columns
	w    RowWriter
}

// session is the per-filing state of one export. Prepared writers live
// only as long as the session.
type session struct {
	exp    *Exporter
	sess   Session
	filing *fecfile.Filing
	logger *slog.Logger
	tables map[string]*table
	result ExportResult
}

// Export writes f to the sink in a single session and closes f. The session
// is committed only if every row was written; otherwise it is rolled back
// and the error returned.
func (e *Exporter) Export(ctx context.Context, f *fecfile.Filing) (res ExportResult, err error) {
	defer f.Close()
	start := time.Now()

	sess, err := e.Sink.Begin(ctx)
	if err != nil {
		return ExportResult{FilingID: f.ID}, fmt.Errorf("begin export of %s: %w", f.ID, err)
	}

	s := &session{
		exp:    e,
		sess:   sess,
		filing: f,
		logger: logging.ForFiling(ctx, f.ID, ""),
		tables: make(map[string]*table),
		result: ExportResult{FilingID: f.ID},
	}

	defer func() {
		if err != nil {
			if rbErr := sess.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				s.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = s.run(ctx); err != nil {
		return s.result, err
	}
	if err = sess.Commit(ctx); err != nil {
		return s.result, fmt.Errorf("commit export of %s: %w", f.ID, err)
	}

	s.result.Tables = s.tableNames()
	s.result.Duration = time.Since(start)
	s.logger.Info("filing exported",
		"rows", s.result.Rows,
		"skipped", s.result.Skipped,
		"warnings", s.result.Warnings,
		"tables", len(s.result.Tables),
		"duration", s.result.Duration,
	)
	return s.result, nil
}

func (s *session) run(ctx context.Context) error {
	if err := s.sess.WriteFiling(ctx, NewFilingRecord(s.filing)); err != nil {
		return fmt.Errorf("write filing %s: %w", s.filing.ID, err)
	}

	for {
		row, err := s.filing.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", s.filing.ID, err)
		}

		if (s.result.Rows+s.result.Skipped)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := s.write(ctx, row); err != nil {
			return err
		}
	}
}

func (s *session) write(ctx context.Context, row *fecfile.Row) error {
	key := row.RowType
	if s.exp.Target == TargetScheduleA {
		if !strings.HasPrefix(strings.ToUpper(row.RowType), "SA") {
			s.result.Skipped++
			return nil
		}
		key = ScheduleATable
	}

	t, err := s.table(ctx, key, row.RowType)
	if err != nil {
		return err
	}

	values, warn := Reconcile(row, s.filing.ID, t.cols)
	if warn != nil {
		s.result.Warnings++
		s.logger.Warn("row truncated to layout",
			"row_type", warn.RowType,
			"line", warn.Line,
			"offset", warn.Offset,
			"got", warn.Got,
			"want", warn.Want,
		)
		if s.exp.OnWarning != nil {
			s.exp.OnWarning(*warn)
		}
	}

	if err := t.w.WriteRow(ctx, row, values); err != nil {
		return fmt.Errorf("write %s row at line %d: %w", row.RowType, row.Pos.Line, err)
	}
	s.result.Rows++
	return nil
}

// table returns the prepared writer for key, resolving and preparing it on
// first use. rowType is the type used for resolution.
func (s *session) table(ctx context.Context, key, rowType string) (*table, error) {
	if t, ok := s.tables[key]; ok {
		return t, nil
	}

	cols, err := s.filing.Columns(rowType)
	if err != nil {
		return nil, fmt.Errorf("filing %s: %w", s.filing.ID, err)
	}

	w, err := s.sess.Prepare(ctx, key, cols)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", key, err)
	}

	t := &table{cols: cols, w: w}
	s.tables[key] = t
	s.logger.Debug("prepared table", "table", key, "columns", cols.Len())
	return t, nil
}

func (s *session) tableNames() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
