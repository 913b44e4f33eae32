package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/store"
)

func newCSVCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "csv <file.fec> <dir>",
		Aliases: []string{"fastfec-compat"},
		Short:   "Write a filing as one CSV file per row type",
		Long: `Write each row type of a filing to <dir>/<ROWTYPE>.csv. The first
line of every file lists the column names; rows are written as they
appear in the filing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, err := store.NewCSVDir(args[1])
			if err != nil {
				return err
			}

			f, err := a.parser.OpenFile(args[0])
			if err != nil {
				return err
			}

			res, err := (&core.Exporter{Sink: sink}).Export(cmd.Context(), f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s rows to %d file(s) in %s\n",
				humanize.Comma(int64(res.Rows)), len(res.Tables), sink.Dir())
			return nil
		},
	}
}
