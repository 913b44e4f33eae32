// Command fec reads FEC electronic filings (.fec files): it summarizes
// them, exports their itemizations to SQLite, PostgreSQL or CSV, and serves
// an HTTP inspector.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fec/internal/core"
)

func main() {
	// Overload: values in .env win over the inherited environment.
	envLoaded := godotenv.Overload() == nil

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(envLoaded)
	if err := root.ExecuteContext(ctx); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
