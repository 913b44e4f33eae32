package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

func rec(fields ...string) string {
	return strings.Join(fields, string(fecfile.Delimiter))
}

func filingText(records ...string) string {
	return strings.Join(records, "\n") + "\n"
}

var (
	hdr84   = rec("HDR", "FEC", "8.4", "FECFile", "8")
	coverF3 = rec("F3", "C00101766", "Friends of Kellner", "", "1 Main St", "", "Houston", "TX", "77024",
		"TX", "07", "Q1", "", "", "", "20000101", "20000331")
)

func openText(t *testing.T, id, input string) *fecfile.Filing {
	t.Helper()
	f, err := fecfile.Open(strings.NewReader(input), id, int64(len(input)))
	if err != nil {
		t.Fatalf("open %s: %v", id, err)
	}
	return f
}

// memSink records everything written to it.
type memSink struct {
	mu         sync.Mutex
	committed  []*memSession
	rolledBack int
	failTable  string // Prepare fails for this table
}

type memSession struct {
	sink     *memSink
	filings  []FilingRecord
	tables   map[string]*memTable
	prepares int
}

type memTable struct {
	cols *schema.Columns
	rows [][]Value
}

var errPrepare = errors.New("prepare refused")

func (s *memSink) Begin(ctx context.Context) (Session, error) {
	return &memSession{sink: s, tables: make(map[string]*memTable)}, nil
}

func (s *memSink) tables() map[string]*memTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make(map[string]*memTable)
	for _, sess := range s.committed {
		for name, tbl := range sess.tables {
			if cur, ok := all[name]; ok {
				cur.rows = append(cur.rows, tbl.rows...)
				continue
			}
			all[name] = &memTable{cols: tbl.cols, rows: append([][]Value(nil), tbl.rows...)}
		}
	}
	return all
}

func (s *memSession) WriteFiling(ctx context.Context, rec FilingRecord) error {
	s.filings = append(s.filings, rec)
	return nil
}

func (s *memSession) Prepare(ctx context.Context, rowType string, cols *schema.Columns) (RowWriter, error) {
	if rowType == s.sink.failTable {
		return nil, errPrepare
	}
	s.prepares++
	tbl := &memTable{cols: cols}
	s.tables[rowType] = tbl
	return tbl, nil
}

func (s *memSession) Commit(ctx context.Context) error {
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	s.sink.committed = append(s.sink.committed, s)
	return nil
}

func (s *memSession) Rollback(ctx context.Context) error {
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	s.sink.rolledBack++
	return nil
}

func (t *memTable) WriteRow(ctx context.Context, row *fecfile.Row, values []Value) error {
	t.rows = append(t.rows, values)
	return nil
}
