package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fec/internal/fecfile"
)

// DefaultExportWorkers is used when ExportAll is given a non-positive limit.
const DefaultExportWorkers = 4

// Source opens one filing. Each call must return an independent Filing.
type Source struct {
	Name string
	Open func() (*fecfile.Filing, error)
}

// FileSources returns one Source per path, opened with p.
func FileSources(p *fecfile.Parser, paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, path := range paths {
		sources[i] = Source{
			Name: path,
			Open: func() (*fecfile.Filing, error) { return p.OpenFile(path) },
		}
	}
	return sources
}

// ExportAll exports sources concurrently with at most workers filings in
// flight. Every worker opens and owns its own Filing; only the schema
// catalog is shared. The first failure cancels the remaining exports.
// Results are returned in source order; entries for filings that did not
// finish are zero.
func ExportAll(ctx context.Context, exp *Exporter, sources []Source, workers int) ([]ExportResult, error) {
	if workers <= 0 {
		workers = DefaultExportWorkers
	}

	results := make([]ExportResult, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := src.Open()
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			res, err := exp.Export(ctx, f)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
