package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

// SQLite is a sink backed by a single SQLite database file. Sessions are
// transactions; the pool is limited to one connection, so concurrent
// exports are serialized at Begin.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path with foreign
// keys enforced and creates the filings table.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	s, err := NewSQLite(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return s, nil
}

// NewSQLite wraps an open database handle and creates the filings table.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteDialect.createFilingsSQL()); err != nil {
		return nil, fmt.Errorf("create %s: %w", FilingsTable, err)
	}
	return &SQLite{db: db}, nil
}

// DB returns the underlying handle.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Begin starts a transaction.
func (s *SQLite) Begin(ctx context.Context) (core.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &sqliteSession{tx: tx}, nil
}

type sqliteSession struct {
	tx    *sql.Tx
	stmts []*sql.Stmt
}

func (s *sqliteSession) WriteFiling(ctx context.Context, rec core.FilingRecord) error {
	args := filingArgs(rec, func(v string) any {
		return sql.NullString{String: v, Valid: v != ""}
	})
	if _, err := s.tx.ExecContext(ctx, sqliteDialect.insertFilingSQL(), args...); err != nil {
		return fmt.Errorf("insert into %s: %w", FilingsTable, err)
	}
	return nil
}

func (s *sqliteSession) Prepare(ctx context.Context, rowType string, cols *schema.Columns) (core.RowWriter, error) {
	table := TableName(rowType)

	if _, err := s.tx.ExecContext(ctx, sqliteDialect.createTableSQL(table, cols)); err != nil {
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	names := columnNames(cols)
	if err := s.ensureColumns(ctx, table, names, cols); err != nil {
		return nil, err
	}

	stmt, err := s.tx.PrepareContext(ctx, sqliteDialect.insertSQL(table, names))
	if err != nil {
		return nil, fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	s.stmts = append(s.stmts, stmt)
	return &sqliteWriter{stmt: stmt}, nil
}

// ensureColumns adds columns that a table created for an earlier version's
// layout is missing.
func (s *sqliteSession) ensureColumns(ctx context.Context, table string, names []string, cols *schema.Columns) error {
	rows, err := s.tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		existing[strings.ToLower(name)] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}

	for i, name := range names[1:] {
		if existing[strings.ToLower(name)] {
			continue
		}
		if _, err := s.tx.ExecContext(ctx, sqliteDialect.addColumnSQL(table, name, cols.Types[i])); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, name, err)
		}
	}
	return nil
}

func (s *sqliteSession) Commit(ctx context.Context) error {
	s.closeStmts()
	return s.tx.Commit()
}

func (s *sqliteSession) Rollback(ctx context.Context) error {
	s.closeStmts()
	return s.tx.Rollback()
}

func (s *sqliteSession) closeStmts() {
	for _, stmt := range s.stmts {
		stmt.Close()
	}
	s.stmts = nil
}

type sqliteWriter struct {
	stmt *sql.Stmt
	args []any
}

func (w *sqliteWriter) WriteRow(ctx context.Context, row *fecfile.Row, values []core.Value) error {
	w.args = w.args[:0]
	for _, v := range values {
		w.args = append(w.args, v.Any())
	}
	_, err := w.stmt.ExecContext(ctx, w.args...)
	return err
}
