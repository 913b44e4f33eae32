package core

import (
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

// Reconcile aligns row against cols and coerces each field.
//
// The result always has len(cols)+1 values: the filing id followed by one
// value per column. Alignment is applied in this order:
//
//  1. a row with exactly one value too many loses its last value (a
//     trailing delimiter left by some filing software)
//  2. a short row is padded with empty text
//  3. a row still too long is truncated, and a Warning is returned
//
// Reconcile is a pure function and safe for concurrent use.
func Reconcile(row *fecfile.Row, filingID string, cols *schema.Columns) ([]Value, *Warning) {
	want := cols.Len() + 1
	got := len(row.Fields) + 1

	values := make([]Value, 0, want)
	values = append(values, Text(filingID))

	n := len(row.Fields)
	if got == want+1 {
		n--
	}

	var warn *Warning
	if n+1 > want {
		warn = &Warning{
			FilingID: filingID,
			RowType:  row.RowType,
			Line:     row.Pos.Line,
			Offset:   row.Pos.Offset,
			Got:      n + 1,
			Want:     want,
		}
		n = want - 1
	}

	for i := 0; i < n; i++ {
		values = append(values, Coerce(row.Fields[i], cols.Types[i]))
	}
	for len(values) < want {
		values = append(values, Text(""))
	}
	return values, warn
}
