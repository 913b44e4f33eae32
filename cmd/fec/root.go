package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fec/internal/config"
	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/logging"
	"github.com/JonMunkholm/fec/internal/schema"
)

// app is the state shared by every subcommand, built before any of them
// runs.
type app struct {
	cfg    *config.Config
	parser *fecfile.Parser
	logger *slog.Logger

	mappings  string
	envLoaded bool
}

func newRootCmd(envLoaded bool) *cobra.Command {
	a := &app{envLoaded: envLoaded}

	root := &cobra.Command{
		Use:           "fec",
		Short:         "Read, summarize and export FEC electronic filings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.mappings, "mappings", "",
		"column mappings YAML file (overrides FEC_MAPPINGS_FILE)")

	root.AddCommand(
		newInfoCmd(a),
		newExportCmd(a),
		newCSVCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads configuration, installs the logger and builds the parser.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	if a.envLoaded {
		a.logger.Debug("loaded .env file")
	}

	path := a.mappings
	if path == "" {
		path = cfg.Mappings.File
	}

	var catalog *schema.Catalog
	if path != "" {
		catalog, err = schema.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load mappings: %w", err)
		}
		a.logger.Debug("loaded mappings", "path", path, "layouts", len(catalog.Entries()))
	}

	a.parser, err = fecfile.NewParser(catalog)
	return err
}
