package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		dbPath    string
		postgres  bool
		target    string
		inputFile string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "export <file.fec>... [--db fec.db | --postgres]",
		Short: "Export filings into SQLite or PostgreSQL",
		Long: `Export every row of each filing into a table per row type
(libfec_<ROWTYPE>), plus one libfec_filings row per filing.

Each filing is exported in its own transaction; a filing that fails to
parse leaves nothing behind. With --target schedule-a only Schedule A rows
are written, all into libfec_schedule_a.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := parseTarget(target)
			if err != nil {
				return err
			}

			paths := args
			if inputFile != "" {
				listed, err := readPathList(inputFile)
				if err != nil {
					return err
				}
				paths = append(paths, listed...)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no filings given")
			}

			ctx := cmd.Context()
			var sink core.Sink
			if postgres {
				if a.cfg.Database.URL == "" {
					return fmt.Errorf("--postgres needs DATABASE_URL")
				}
				pg, err := store.ConnectPostgres(ctx, a.cfg.Database, a.cfg.Export.BatchSize)
				if err != nil {
					return err
				}
				defer pg.Close()
				sink = pg
			} else {
				if dbPath == "" {
					dbPath = a.cfg.Export.SQLitePath
				}
				db, err := store.OpenSQLite(ctx, dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				sink = db
			}

			if workers <= 0 {
				workers = a.cfg.Export.Workers
			}

			start := time.Now()
			exp := &core.Exporter{Sink: sink, Target: tgt}
			results, err := core.ExportAll(ctx, exp, core.FileSources(a.parser, paths), workers)
			printResults(cmd, results, time.Since(start))
			return err
		},
	}

	cmd.Flags().StringVarP(&dbPath, "db", "o", "", "SQLite database to export to (default SQLITE_PATH)")
	cmd.Flags().BoolVar(&postgres, "postgres", false, "export to the PostgreSQL database at DATABASE_URL")
	cmd.Flags().StringVar(&target, "target", "form-type", "which rows to export: form-type or schedule-a")
	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "file listing .fec paths, one per line")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "filings exported in parallel (default EXPORT_WORKERS)")
	cmd.MarkFlagsMutuallyExclusive("db", "postgres")
	return cmd
}

func parseTarget(s string) (core.Target, error) {
	switch s {
	case "form-type", "":
		return core.TargetByFormType, nil
	case "schedule-a", "a":
		return core.TargetScheduleA, nil
	default:
		return 0, fmt.Errorf("unknown target %q: want form-type or schedule-a", s)
	}
}

// readPathList reads one path per line, skipping blank lines and lines
// starting with #.
func readPathList(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, sc.Err()
}

func printResults(cmd *cobra.Command, results []core.ExportResult, elapsed time.Duration) {
	var filings, rows, warnings int
	for _, res := range results {
		if res.FilingID == "" {
			continue
		}
		filings++
		rows += res.Rows
		warnings += res.Warnings
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %s rows from %d filing(s) in %s",
		humanize.Comma(int64(rows)), filings, elapsed.Round(time.Millisecond))
	if warnings > 0 {
		fmt.Fprintf(out, " (%d truncated rows)", warnings)
	}
	fmt.Fprintln(out)
}
