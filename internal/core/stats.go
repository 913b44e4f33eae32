package core

import (
	"cmp"
	"context"
	"errors"
	"io"
	"slices"

	"github.com/JonMunkholm/fec/internal/fecfile"
)

// RowStat counts the rows of one row type.
type RowStat struct {
	RowType string `json:"row_type"`
	Count   int    `json:"count"`
	Bytes   int64  `json:"bytes"`
}

// Summarize drains f and returns per-row-type counts, most frequent first
// with ties broken by row type. f is exhausted (and closed) afterwards.
func Summarize(ctx context.Context, f *fecfile.Filing) ([]RowStat, error) {
	byType := make(map[string]*RowStat)
	n := 0

	for {
		row, err := f.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		n++
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				f.Close()
				return nil, err
			}
		}

		st, ok := byType[row.RowType]
		if !ok {
			st = &RowStat{RowType: row.RowType}
			byType[row.RowType] = st
		}
		st.Count++
		st.Bytes += row.Size
	}

	stats := make([]RowStat, 0, len(byType))
	for _, st := range byType {
		stats = append(stats, *st)
	}
	slices.SortFunc(stats, func(a, b RowStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.RowType, b.RowType)
	})
	return stats, nil
}

// Totals sums row counts and bytes across stats.
func Totals(stats []RowStat) (rows int, bytes int64) {
	for _, st := range stats {
		rows += st.Count
		bytes += st.Bytes
	}
	return rows, bytes
}
