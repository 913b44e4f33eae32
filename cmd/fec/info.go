package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Bold(true)
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	numStyle   = cellStyle.Align(lipgloss.Right)
)

// filingInfo is the JSON form of one inspected filing.
type filingInfo struct {
	Path        string         `json:"path"`
	FilingID    string         `json:"filing_id"`
	Size        int64          `json:"size"`
	Header      fecfile.Header `json:"header"`
	Cover       fecfile.Cover  `json:"cover"`
	ReportLabel string         `json:"report_label,omitempty"`
	Rows        []core.RowStat `json:"rows,omitempty"`
}

func newInfoCmd(a *app) *cobra.Command {
	var (
		format string
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "info <file.fec>...",
		Short: "Print the header and cover of filings",
		Long: `Print the header and cover record of each filing.

With --full every row is read and counted by row type.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q: want table or json", format)
			}

			infos := make([]filingInfo, 0, len(args))
			for _, path := range args {
				info, err := a.inspect(cmd, path, full)
				if err != nil {
					return err
				}
				if format == "table" {
					renderInfo(cmd.OutOrStdout(), info)
					continue
				}
				infos = append(infos, info)
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	cmd.Flags().BoolVar(&full, "full", false, "read every row and report counts per row type")
	return cmd
}

func (a *app) inspect(cmd *cobra.Command, path string, full bool) (filingInfo, error) {
	f, err := a.parser.OpenFile(path)
	if err != nil {
		return filingInfo{}, err
	}
	defer f.Close()

	info := filingInfo{
		Path:     path,
		FilingID: f.ID,
		Size:     f.DeclaredLength(),
		Header:   f.Header,
		Cover:    f.Cover,
	}
	if f.Cover.ReportCode != "" {
		info.ReportLabel = fecfile.ReportCodeLabel(f.Cover.ReportCode)
	}

	if full {
		info.Rows, err = core.Summarize(cmd.Context(), f)
		if err != nil {
			return filingInfo{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return info, nil
}

func renderInfo(w io.Writer, info filingInfo) {
	fmt.Fprintf(w, "%s (%s)\n", titleStyle.Render(filepath.Base(info.Path)), humanize.Bytes(uint64(info.Size)))

	kv := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s: %s\n", labelStyle.Render(label), value)
		}
	}
	kv("Filing", info.FilingID)
	kv("FEC Version", info.Header.FECVersion)
	kv("Software", fmt.Sprintf("%s (%s)", info.Header.SoftName, info.Header.SoftVer))
	kv("Report ID", info.Header.ReportID)
	kv("Report #", info.Header.ReportNumber)
	kv("Comment", info.Header.Comment)
	kv("Form", info.Cover.FormType)
	kv("Filer", fmt.Sprintf("%s (%s)", info.Cover.FilerName, info.Cover.FilerID))
	if info.ReportLabel != "" {
		kv("Report", fmt.Sprintf("%s (%s)", info.ReportLabel, info.Cover.ReportCode))
	}
	if info.Cover.CoverageFromDate != "" || info.Cover.CoverageThroughDate != "" {
		kv("Coverage", info.Cover.CoverageFromDate+" to "+info.Cover.CoverageThroughDate)
	}

	if len(info.Rows) > 0 {
		fmt.Fprintln(w, rowTable(info.Rows))
	}
	fmt.Fprintln(w)
}

// rowTable renders per-row-type stats with numeric columns right aligned.
func rowTable(stats []core.RowStat) string {
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{
			st.RowType,
			humanize.Comma(int64(st.Count)),
			humanize.Bytes(uint64(st.Bytes)),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Form Type", "# Rows", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headStyle
			case col > 0:
				return numStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}
