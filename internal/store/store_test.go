package store

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/fec/internal/fecfile"
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

// saRow returns a Schedule A record with the given transaction id,
// contribution date and amount.
func saRow(rowType, txID, date, amount string) string {
	fields := make([]string, 28)
	fields[0] = rowType
	fields[1] = "C00101766"
	fields[2] = txID
	fields[7] = "Doe"
	fields[19] = date
	fields[20] = amount
	return rec(fields...)
}

func openText(t *testing.T, id, input string) *fecfile.Filing {
	t.Helper()
	f, err := fecfile.Open(strings.NewReader(input), id, int64(len(input)))
	if err != nil {
		t.Fatalf("open %s: %v", id, err)
	}
	return f
}
