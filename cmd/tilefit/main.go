// Command tilefit builds, inspects, and queries piecewise-linear surface
// models from scattered sample data.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tilefit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "tilefit",
		Short:         "Adaptive tiling and hyperplane fitting for scattered N-D samples",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newBuildCmd(&verbose),
		newEvalCmd(&verbose),
		newLocateCmd(&verbose),
		newInspectCmd(&verbose),
		newSliceCmd(&verbose),
	)
	return cmd
}

func newLoggerOption(verbose bool) tilefit.Option {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return tilefit.WithLogger(tilefit.NewTextLogger(level))
}
