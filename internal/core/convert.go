package core

// convert.go coerces raw .fec fields into typed values.
//
// Archived filings are full of values that do not match their column's
// nominal type ("N/A" amounts, partial dates). Coercion never fails: a value
// that does not convert is kept as text.

import (
	"strconv"

	"github.com/JonMunkholm/fec/internal/schema"
)

// Coerce converts raw according to the column type t.
func Coerce(raw string, t schema.ColumnType) Value {
	switch t {
	case schema.ColumnDate:
		if iso, ok := FormatDate(raw); ok {
			return Date(iso)
		}
	case schema.ColumnFloat:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Float(f, raw)
		}
	}
	return Text(raw)
}

// FormatDate rewrites a YYYYMMDD value as YYYY-MM-DD. Anything that is not
// exactly eight ASCII digits is rejected, so an already formatted date is
// never rewritten twice.
func FormatDate(raw string) (string, bool) {
	if len(raw) != 8 {
		return "", false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return "", false
		}
	}
	return raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8], true
}
