// Package templates renders the HTML pages of the web surface. The *.templ
// files are the source; run templ generate after editing them.
package templates

//go:generate templ generate

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/fec/internal/core"
)

type fact struct {
	label string
	value string
}

func reportTitle(rep *core.Report) string {
	return "Filing " + rep.FilingID
}

// reportFacts lists the details shown above the row table. Empty values
// are left out.
func reportFacts(rep *core.Report) []fact {
	var coverage string
	if rep.Cover.CoverageFromDate != "" || rep.Cover.CoverageThroughDate != "" {
		coverage = rep.Cover.CoverageFromDate + " to " + rep.Cover.CoverageThroughDate
	}
	all := []fact{
		{"Filer", rep.Cover.FilerName},
		{"Filer ID", rep.Cover.FilerID},
		{"Form", rep.Cover.FormType},
		{"Report", rep.ReportLabel},
		{"Coverage", coverage},
		{"Format version", rep.Header.FECVersion},
		{"Software", strings.TrimSpace(rep.Header.SoftName + " " + rep.Header.SoftVer)},
		{"Rows", countLabel(rep.TotalRows)},
		{"Size", sizeLabel(rep.TotalBytes)},
		{"Parsed in", rep.Elapsed.Round(time.Millisecond).String()},
	}
	facts := all[:0]
	for _, f := range all {
		if f.value != "" {
			facts = append(facts, f)
		}
	}
	return facts
}

func countLabel(n int) string { return humanize.Comma(int64(n)) }

func sizeLabel(n int64) string { return humanize.Bytes(uint64(max(n, 0))) }
