package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM "+quoteIdentifier(table)).Scan(&n))
	return n
}

func TestSQLite_Export(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	input := filingText(hdr84, coverF3,
		saRow("SA11AI", "SA.1", "20200115", "250.50"),
		saRow("SA11AI", "SA.2", "N/A", "bogus"),
		rec("SB17", "C00101766", "SB.1"),
	)
	res, err := (&core.Exporter{Sink: s}).Export(ctx, openText(t, "13360", input))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)

	db := s.DB()
	assert.Equal(t, 1, countRows(t, db, FilingsTable))
	assert.Equal(t, 2, countRows(t, db, "libfec_SA11AI"))
	assert.Equal(t, 1, countRows(t, db, "libfec_SB17"))

	var filerName, reportCode string
	var reportID sql.NullString
	require.NoError(t, db.QueryRow(
		"SELECT filer_name, report_code, report_id FROM libfec_filings WHERE filing_id = ?", "13360",
	).Scan(&filerName, &reportCode, &reportID))
	assert.Equal(t, "Friends of Kellner", filerName)
	assert.Equal(t, "Q1", reportCode)
	assert.False(t, reportID.Valid, "absent optional header field is NULL")

	var date string
	var amount float64
	require.NoError(t, db.QueryRow(
		`SELECT contribution_date, contribution_amount FROM "libfec_SA11AI" WHERE transaction_id = ?`, "SA.1",
	).Scan(&date, &amount))
	assert.Equal(t, "2020-01-15", date)
	assert.Equal(t, 250.5, amount)

	// Uncoercible values are kept as text.
	var rawDate, rawAmount string
	require.NoError(t, db.QueryRow(
		`SELECT contribution_date, CAST(contribution_amount AS text) FROM "libfec_SA11AI" WHERE transaction_id = ?`, "SA.2",
	).Scan(&rawDate, &rawAmount))
	assert.Equal(t, "N/A", rawDate)
	assert.Equal(t, "bogus", rawAmount)
}

func TestSQLite_DuplicateFilingRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	exp := &core.Exporter{Sink: s}

	input := filingText(hdr84, coverF3, saRow("SA11AI", "SA.1", "20200115", "1"))
	_, err := exp.Export(ctx, openText(t, "1", input))
	require.NoError(t, err)

	_, err = exp.Export(ctx, openText(t, "1", input))
	require.Error(t, err)
	assert.Equal(t, "DB001", core.MapError(err).Code)

	assert.Equal(t, 1, countRows(t, s.DB(), "libfec_SA11AI"))
}

func TestSQLite_FailedExportLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	input := filingText(hdr84, coverF3,
		saRow("SA11AI", "SA.1", "20200115", "1"),
		rec("ZZ9", "C00101766"),
	)
	_, err := (&core.Exporter{Sink: s}).Export(ctx, openText(t, "1", input))
	require.Error(t, err)

	assert.Equal(t, 0, countRows(t, s.DB(), FilingsTable))
	var n int
	err = s.DB().QueryRow(`SELECT count(*) FROM sqlite_master WHERE name = 'libfec_SA11AI'`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n, "table creation rolled back with the rows")
}

func TestSQLite_ScheduleATarget(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	input := filingText(hdr84, coverF3,
		saRow("SA11AI", "SA.1", "20200115", "1"),
		saRow("SA17", "SA.2", "20200116", "2"),
		rec("SB17", "C00101766", "SB.1"),
	)
	_, err := (&core.Exporter{Sink: s, Target: core.TargetScheduleA}).Export(ctx, openText(t, "1", input))
	require.NoError(t, err)

	assert.Equal(t, 2, countRows(t, s.DB(), TableName(core.ScheduleATable)))
}

func TestSQLite_ExportAll(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	exp := &core.Exporter{Sink: s}

	ids := []string{"100", "101", "102", "103"}
	sources := make([]core.Source, len(ids))
	for i, id := range ids {
		input := filingText(hdr84, coverF3, saRow("SA11AI", "SA."+id, "20200115", "1"))
		sources[i] = core.Source{Name: id, Open: func() (*fecfile.Filing, error) {
			return fecfile.Open(strings.NewReader(input), id, 0)
		}}
	}

	results, err := core.ExportAll(ctx, exp, sources, 3)
	require.NoError(t, err)
	assert.Len(t, results, len(ids))
	assert.Equal(t, len(ids), countRows(t, s.DB(), FilingsTable))
	assert.Equal(t, len(ids), countRows(t, s.DB(), "libfec_SA11AI"))
}
