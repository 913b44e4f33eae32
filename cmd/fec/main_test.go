package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/store"
)

func rec(fields ...string) string {
	return strings.Join(fields, string(fecfile.Delimiter))
}

func writeFiling(t *testing.T, dir, id string, rows ...string) string {
	t.Helper()
	records := append([]string{
		rec("HDR", "FEC", "8.4", "FECFile", "8", "", "", "amended twice"),
		rec("F3", "C00101766", "Friends of Kellner", "", "1 Main St", "", "Houston", "TX", "77024",
			"TX", "07", "Q1", "", "", "", "20000101", "20000331"),
	}, rows...)
	path := filepath.Join(dir, id+".fec")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(records, "\n")+"\n"), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(false)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInfo_Table(t *testing.T) {
	path := writeFiling(t, t.TempDir(), "13360",
		rec("SA11AI", "C00101766", "SA.1"),
		rec("SA11AI", "C00101766", "SA.2"),
		rec("SB17", "C00101766", "SB.1"),
	)

	out, err := run(t, "info", "--full", path)
	require.NoError(t, err)

	assert.Contains(t, out, "13360.fec")
	assert.Contains(t, out, "Friends of Kellner (C00101766)")
	assert.Contains(t, out, "April Quarterly (Q1)")
	assert.Contains(t, out, "amended twice")
	assert.Contains(t, out, "SA11AI")
	assert.Contains(t, out, "# Rows")
}

func TestInfo_JSON(t *testing.T) {
	dir := t.TempDir()
	a := writeFiling(t, dir, "1", rec("SA11AI", "C00101766", "SA.1"))
	b := writeFiling(t, dir, "2")

	out, err := run(t, "info", "--format", "json", "--full", a, b)
	require.NoError(t, err)

	var infos []filingInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "1", infos[0].FilingID)
	assert.Equal(t, "F3", infos[0].Cover.FormType)
	require.Len(t, infos[0].Rows, 1)
	assert.Equal(t, 1, infos[0].Rows[0].Count)
	assert.Empty(t, infos[1].Rows)
}

func TestInfo_Errors(t *testing.T) {
	_, err := run(t, "info", "--format", "xml", "x.fec")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "info", filepath.Join(t.TempDir(), "missing.fec"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "info")
	assert.Error(t, err)
}

func TestExport_SQLite(t *testing.T) {
	dir := t.TempDir()
	a := writeFiling(t, dir, "100", rec("SA11AI", "C00101766", "SA.1"), rec("SB17", "C00101766", "SB.1"))
	b := writeFiling(t, dir, "101", rec("SA11AI", "C00101766", "SA.2"))

	list := filepath.Join(dir, "filings.txt")
	require.NoError(t, os.WriteFile(list, []byte("# second batch\n\n"+b+"\n"), 0o644))

	dbPath := filepath.Join(dir, "out.db")
	out, err := run(t, "export", "-o", dbPath, "-i", list, a)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 3 rows from 2 filing(s)")

	db, err := store.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.DB().QueryRow(`SELECT count(*) FROM "libfec_SA11AI"`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestExport_ScheduleA(t *testing.T) {
	dir := t.TempDir()
	path := writeFiling(t, dir, "100", rec("SA11AI", "C00101766", "SA.1"), rec("SB17", "C00101766", "SB.1"))

	dbPath := filepath.Join(dir, "out.db")
	out, err := run(t, "export", "--db", dbPath, "--target", "schedule-a", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 rows")
}

func TestExport_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeFiling(t, dir, "1")

	_, err := run(t, "export", "--target", "everything", path)
	assert.ErrorContains(t, err, "unknown target")

	_, err = run(t, "export", "--db", filepath.Join(dir, "x.db"))
	assert.ErrorContains(t, err, "no filings")

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	_, err = run(t, "export", "--postgres", path)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFiling(t, dir, "100", rec("SA11AI", "C00101766", "SA.1"), rec("SB17", "C00101766", "SB.1"))
	outDir := filepath.Join(dir, "csv")

	out, err := run(t, "csv", path, outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 rows to 2 file(s)")

	for _, name := range []string{"SA11AI.csv", "SB17.csv", store.FilingsFile} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

func TestMappingsFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFiling(t, dir, "1")

	_, err := run(t, "--mappings", filepath.Join(dir, "nope.yaml"), "info", path)
	assert.ErrorContains(t, err, "load mappings")
}

func TestReadPathList(t *testing.T) {
	list := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(list, []byte("a.fec\n  # skip\n\n  b.fec  \n"), 0o644))

	paths, err := readPathList(list)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.fec", "b.fec"}, paths)
}
