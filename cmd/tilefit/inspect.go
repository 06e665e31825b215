package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tilefit"
)

func newInspectCmd(verbose *bool) *cobra.Command {
	var (
		modelPath string
		asJSON    bool
	)

	c := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a model snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := tilefit.LoadFromFile(cmd.Context(), modelPath, newLoggerOption(*verbose))
			if err != nil {
				return err
			}

			if asJSON {
				data, err := model.ExportJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			cfg := model.Config()
			stats := model.Stats()
			bounds := model.Index().Bounds()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s\n", modelPath)
			fmt.Fprintf(out, "  dimension:   %d\n", model.Dim())
			fmt.Fprintf(out, "  domain:      %s\n", bounds)
			fmt.Fprintf(out, "  samples:     %d (fingerprint %016x)\n", model.SampleCount(), model.Fingerprint())
			fmt.Fprintf(out, "  tiles:       %d (max depth %d)\n", stats.Leaves, stats.MaxDepth)
			fmt.Fprintf(out, "  threshold:   %g\n", cfg.ErrorThreshold)
			fmt.Fprintf(out, "  max depth:   %d\n", cfg.MaxDepth)
			fmt.Fprintf(out, "  min extent:  %g\n", cfg.MinExtent)

			var worst float64
			for _, t := range model.Tiles() {
				if t.RSS > worst {
					worst = t.RSS
				}
			}
			fmt.Fprintf(out, "  worst rss:   %g\n", worst)
			return nil
		},
	}

	c.Flags().StringVarP(&modelPath, "model", "m", "", "Model snapshot file (required)")
	c.Flags().BoolVar(&asJSON, "json", false, "Dump the full model as JSON")
	_ = c.MarkFlagRequired("model")
	return c
}
