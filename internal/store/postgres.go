package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fec/internal/config"
	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

// DefaultBatchSize is the number of queued inserts sent per round trip.
const DefaultBatchSize = 1000

// DBTX is the subset of pgx shared by pools, connections and transactions.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres is a sink backed by a PostgreSQL pool. Each session is one
// transaction; row inserts are queued and sent in batches.
type Postgres struct {
	pool      *pgxpool.Pool
	batchSize int
}

// ConnectPostgres creates a pool from cfg, verifies it and creates the
// filings table.
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig, batchSize int) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := NewPostgres(pool, batchSize)
	if err := p.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing pool. A batchSize <= 0 uses DefaultBatchSize.
func NewPostgres(pool *pgxpool.Pool, batchSize int) *Postgres {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Postgres{pool: pool, batchSize: batchSize}
}

// Migrate creates the filings table.
func (p *Postgres) Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, postgresDialect.createFilingsSQL()); err != nil {
		return fmt.Errorf("create %s: %w", FilingsTable, err)
	}
	return nil
}

// Pool returns the underlying pool.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

// Close closes the pool.
func (p *Postgres) Close() { p.pool.Close() }

// Begin starts a transaction.
func (p *Postgres) Begin(ctx context.Context) (core.Session, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &pgSession{tx: tx, batchSize: p.batchSize, batch: &pgx.Batch{}}, nil
}

type pgSession struct {
	tx        pgx.Tx
	batchSize int
	batch     *pgx.Batch
}

func (s *pgSession) WriteFiling(ctx context.Context, rec core.FilingRecord) error {
	args := filingArgs(rec, func(v string) any { return toPgText(v) })
	if _, err := s.tx.Exec(ctx, postgresDialect.insertFilingSQL(), args...); err != nil {
		return fmt.Errorf("insert into %s: %w", FilingsTable, err)
	}
	return nil
}

func (s *pgSession) Prepare(ctx context.Context, rowType string, cols *schema.Columns) (core.RowWriter, error) {
	table := TableName(rowType)

	// Concurrent sessions may create the same table.
	if _, err := s.tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", table); err != nil {
		return nil, fmt.Errorf("lock %s: %w", table, err)
	}
	if _, err := s.tx.Exec(ctx, postgresDialect.createTableSQL(table, cols)); err != nil {
		return nil, fmt.Errorf("create %s: %w", table, err)
	}

	names := columnNames(cols)
	if sql := addMissingColumnsSQL(table, names, cols); sql != "" {
		if _, err := s.tx.Exec(ctx, sql); err != nil {
			return nil, fmt.Errorf("alter %s: %w", table, err)
		}
	}

	return &pgWriter{
		session: s,
		insert:  postgresDialect.insertSQL(table, names),
		types:   cols.Types,
	}, nil
}

// addMissingColumnsSQL returns one ALTER TABLE adding every layout column
// if it does not already exist.
func addMissingColumnsSQL(table string, names []string, cols *schema.Columns) string {
	if len(names) <= 1 {
		return ""
	}
	clauses := make([]string, 0, len(names)-1)
	for i, name := range names[1:] {
		clauses = append(clauses, fmt.Sprintf("ADD COLUMN IF NOT EXISTS %s %s",
			quoteIdentifier(name), postgresDialect.columnType(cols.Types[i])))
	}
	return fmt.Sprintf("ALTER TABLE %s %s", quoteIdentifier(table), strings.Join(clauses, ", "))
}

func (s *pgSession) queue(ctx context.Context, sql string, args []any) error {
	s.batch.Queue(sql, args...)
	if s.batch.Len() >= s.batchSize {
		return s.flush(ctx)
	}
	return nil
}

func (s *pgSession) flush(ctx context.Context) error {
	if s.batch.Len() == 0 {
		return nil
	}
	n := s.batch.Len()
	err := s.tx.SendBatch(ctx, s.batch).Close()
	s.batch = &pgx.Batch{}
	if err != nil {
		return fmt.Errorf("send batch of %d rows: %w", n, err)
	}
	return nil
}

func (s *pgSession) Commit(ctx context.Context) error {
	if err := s.flush(ctx); err != nil {
		return err
	}
	return s.tx.Commit(ctx)
}

func (s *pgSession) Rollback(ctx context.Context) error {
	s.batch = &pgx.Batch{}
	return s.tx.Rollback(ctx)
}

type pgWriter struct {
	session *pgSession
	insert  string
	types   []schema.ColumnType
}

func (w *pgWriter) WriteRow(ctx context.Context, row *fecfile.Row, values []core.Value) error {
	args := make([]any, len(values))
	args[0] = values[0].Text
	for i, v := range values[1:] {
		args[i+1] = toPgValue(w.types[i], v)
	}
	return w.session.queue(ctx, w.insert, args)
}

// toPgValue converts a coerced value for a column of type t. Values that
// fell back to text in a date or float column are stored as NULL.
func toPgValue(t schema.ColumnType, v core.Value) any {
	switch t {
	case schema.ColumnDate:
		if v.Kind != core.KindDate {
			return pgtype.Date{}
		}
		return toPgDate(v.Text)
	case schema.ColumnFloat:
		if v.Kind != core.KindFloat {
			return pgtype.Float8{}
		}
		return pgtype.Float8{Float64: v.Float, Valid: true}
	default:
		return toPgText(v.Text)
	}
}

// toPgText converts a string to pgtype.Text. Empty strings are NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgDate converts a YYYY-MM-DD string to pgtype.Date. Calendar-invalid
// dates such as 2020-02-30 are NULL.
func toPgDate(iso string) pgtype.Date {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
