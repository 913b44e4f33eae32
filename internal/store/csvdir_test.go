package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fec/internal/core"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVDir_Export(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewCSVDir(dir)
	require.NoError(t, err)

	input := filingText(hdr84, coverF3,
		saRow("SA11AI", "SA.1", "20200115", "250.50"),
		rec("SB17", "C00101766", "SB.1"),
		saRow("SA11AI", "SA.2", "20200116", "10"),
	)
	_, err = (&core.Exporter{Sink: sink}).Export(ctx, openText(t, "13360", input))
	require.NoError(t, err)

	sa := readCSV(t, filepath.Join(dir, "SA11AI.csv"))
	require.Len(t, sa, 3)
	assert.Equal(t, "form_type", sa[0][0])
	assert.Equal(t, "contribution_date", sa[0][19])
	assert.Equal(t, "SA.1", sa[1][2])
	assert.Equal(t, "20200115", sa[1][19], "raw fields are written unconverted")
	assert.Equal(t, "SA.2", sa[2][2])

	sb := readCSV(t, filepath.Join(dir, "SB17.csv"))
	require.Len(t, sb, 2)
	assert.Equal(t, []string{"SB17", "C00101766", "SB.1"}, sb[1])

	filings := readCSV(t, filepath.Join(dir, FilingsFile))
	require.Len(t, filings, 2)
	assert.Equal(t, filingColumns, filings[0])
	assert.Equal(t, "13360", filings[1][0])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "spool files removed")
}

func TestCSVDir_AppendsAcrossFilings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink, err := NewCSVDir(dir)
	require.NoError(t, err)
	exp := &core.Exporter{Sink: sink}

	for _, id := range []string{"1", "2"} {
		input := filingText(hdr84, coverF3, rec("SB17", "C00101766", "SB."+id))
		_, err := exp.Export(ctx, openText(t, id, input))
		require.NoError(t, err)
	}

	sb := readCSV(t, filepath.Join(dir, "SB17.csv"))
	require.Len(t, sb, 3, "one header line")
	assert.Equal(t, "SB.1", sb[1][2])
	assert.Equal(t, "SB.2", sb[2][2])
}

func TestCSVDir_RollbackWritesNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink, err := NewCSVDir(dir)
	require.NoError(t, err)

	input := filingText(hdr84, coverF3,
		rec("SB17", "C00101766", "SB.1"),
		rec("ZZ9", "C00101766"),
	)
	_, err = (&core.Exporter{Sink: sink}).Export(ctx, openText(t, "1", input))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
