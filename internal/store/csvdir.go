package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

// FilingsFile is the CSV file holding one line per exported filing.
const FilingsFile = "filings.csv"

// CSVDir is a sink writing one <ROWTYPE>.csv file per row type into a
// directory. The first line of each file lists the layout's column names;
// every following line is a record's raw fields.
//
// Rows are spooled to temporary files and appended to the shared files on
// Commit, so a rolled back session leaves the directory untouched.
type CSVDir struct {
	dir string
	mu  sync.Mutex
}

// NewCSVDir creates dir if needed and returns a sink writing into it.
func NewCSVDir(dir string) (*CSVDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv directory: %w", err)
	}
	return &CSVDir{dir: dir}, nil
}

// Dir returns the output directory.
func (d *CSVDir) Dir() string { return d.dir }

// Begin starts a session.
func (d *CSVDir) Begin(ctx context.Context) (core.Session, error) {
	return &csvSession{sink: d}, nil
}

type csvSession struct {
	sink    *CSVDir
	filings [][]string
	spools  []*csvSpool
}

// csvSpool is one table's pending rows.
type csvSpool struct {
	name   string
	header []string
	file   *os.File
	w      *csv.Writer
}

func (s *csvSession) WriteFiling(ctx context.Context, rec core.FilingRecord) error {
	args := filingArgs(rec, func(v string) any { return v })
	line := make([]string, len(args))
	for i, a := range args {
		line[i] = a.(string)
	}
	s.filings = append(s.filings, line)
	return nil
}

func (s *csvSession) Prepare(ctx context.Context, rowType string, cols *schema.Columns) (core.RowWriter, error) {
	f, err := os.CreateTemp(s.sink.dir, "."+rowType+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("spool %s: %w", rowType, err)
	}
	sp := &csvSpool{
		name:   rowType + ".csv",
		header: cols.Names,
		file:   f,
		w:      csv.NewWriter(f),
	}
	s.spools = append(s.spools, sp)
	return sp, nil
}

func (sp *csvSpool) WriteRow(ctx context.Context, row *fecfile.Row, values []core.Value) error {
	return sp.w.Write(row.Fields)
}

func (s *csvSession) Commit(ctx context.Context) error {
	defer s.cleanup()

	for _, sp := range s.spools {
		sp.w.Flush()
		if err := sp.w.Error(); err != nil {
			return fmt.Errorf("spool %s: %w", sp.name, err)
		}
	}

	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()

	if len(s.filings) > 0 {
		err := s.sink.appendFile(FilingsFile, filingColumns, func(w io.Writer) error {
			cw := csv.NewWriter(w)
			cw.WriteAll(s.filings)
			return cw.Error()
		})
		if err != nil {
			return err
		}
	}

	for _, sp := range s.spools {
		if _, err := sp.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", sp.name, err)
		}
		err := s.sink.appendFile(sp.name, sp.header, func(w io.Writer) error {
			_, err := io.Copy(w, sp.file)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *csvSession) Rollback(ctx context.Context) error {
	s.cleanup()
	return nil
}

func (s *csvSession) cleanup() {
	for _, sp := range s.spools {
		sp.file.Close()
		os.Remove(sp.file.Name())
	}
	s.spools = nil
	s.filings = nil
}

// appendFile opens name for appending, writes header if the file is new and
// then the body.
func (d *CSVDir) appendFile(name string, header []string, body func(io.Writer) error) (err error) {
	path := filepath.Join(d.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if info.Size() == 0 {
		cw := csv.NewWriter(f)
		cw.Write(header)
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("write %s header: %w", name, err)
		}
	}

	if err := body(f); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}
