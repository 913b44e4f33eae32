// Package store provides the concrete sinks that exported filings are
// written to: SQLite, PostgreSQL and a directory of CSV files.
//
// The relational sinks share one layout. Every filing gets a row in
// libfec_filings keyed by filing_id, and every row type gets a table
// libfec_<ROWTYPE> whose first column references the filing.
package store

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/schema"
)

// FilingsTable holds one row per exported filing.
const FilingsTable = "libfec_filings"

const tablePrefix = "libfec_"

// filingColumns is the libfec_filings layout. Order matches filingArgs.
var filingColumns = []string{
	"filing_id",
	"fec_version",
	"software_name",
	"software_version",
	"report_id",
	"report_number",
	"comment",
	"cover_record_form_type",
	"filer_id",
	"filer_name",
	"report_code",
	"coverage_from_date",
	"coverage_through_date",
}

// dialect captures the SQL differences between the relational sinks.
type dialect struct {
	types       map[schema.ColumnType]string
	placeholder func(n int) string
}

var sqliteDialect = dialect{
	types: map[schema.ColumnType]string{
		schema.ColumnText:  "text",
		schema.ColumnDate:  "date",
		schema.ColumnFloat: "float",
	},
	placeholder: func(int) string { return "?" },
}

var postgresDialect = dialect{
	types: map[schema.ColumnType]string{
		schema.ColumnText:  "text",
		schema.ColumnDate:  "date",
		schema.ColumnFloat: "double precision",
	},
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// TableName returns the table rows of rowType are stored in. Characters
// outside [A-Za-z0-9_] are replaced with underscores.
func TableName(rowType string) string {
	var b strings.Builder
	b.WriteString(tablePrefix)
	for _, r := range rowType {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnNames returns the stored column names for a layout: filing_id
// followed by the layout's columns. A layout column named filing_id is
// stored as filing_id_2.
func columnNames(cols *schema.Columns) []string {
	names := make([]string, 0, cols.Len()+1)
	names = append(names, "filing_id")
	for _, name := range cols.Names {
		if strings.EqualFold(name, "filing_id") {
			name += "_2"
		}
		names = append(names, name)
	}
	return names
}

func (d dialect) columnType(t schema.ColumnType) string {
	if s, ok := d.types[t]; ok {
		return s
	}
	return d.types[schema.ColumnText]
}

func (d dialect) createFilingsSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(FilingsTable)
	b.WriteString(" (\n  filing_id text PRIMARY KEY")
	for _, name := range filingColumns[1:] {
		b.WriteString(",\n  ")
		b.WriteString(name)
		b.WriteString(" text")
	}
	b.WriteString("\n)")
	return b.String()
}

func (d dialect) insertFilingSQL() string {
	return d.insertSQL(FilingsTable, filingColumns)
}

// createTableSQL returns the CREATE TABLE statement for a row table.
func (d dialect) createTableSQL(table string, cols *schema.Columns) string {
	names := columnNames(cols)

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quoteIdentifier(table))
	b.WriteString(" (\n  filing_id text REFERENCES ")
	b.WriteString(FilingsTable)
	b.WriteString("(filing_id)")
	for i, name := range names[1:] {
		b.WriteString(",\n  ")
		b.WriteString(quoteIdentifier(name))
		b.WriteString(" ")
		b.WriteString(d.columnType(cols.Types[i]))
	}
	b.WriteString("\n)")
	return b.String()
}

// addColumnSQL returns the statement that adds one missing column.
func (d dialect) addColumnSQL(table, name string, t schema.ColumnType) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		quoteIdentifier(table), quoteIdentifier(name), d.columnType(t))
}

func (d dialect) insertSQL(table string, names []string) string {
	quoted := make([]string, len(names))
	marks := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdentifier(name)
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

// filingArgs returns the libfec_filings values for rec. Optional fields
// are passed through opt so each sink can map empty strings to NULL.
func filingArgs(rec core.FilingRecord, opt func(string) any) []any {
	h, c := rec.Header, rec.Cover
	return []any{
		rec.FilingID,
		h.FECVersion,
		h.SoftName,
		h.SoftVer,
		opt(h.ReportID),
		opt(h.ReportNumber),
		opt(h.Comment),
		c.FormType,
		c.FilerID,
		c.FilerName,
		opt(c.ReportCode),
		opt(c.CoverageFromDate),
		opt(c.CoverageThroughDate),
	}
}
