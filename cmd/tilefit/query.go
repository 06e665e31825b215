package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tilefit"
)

func newEvalCmd(verbose *bool) *cobra.Command {
	var (
		modelPath string
		point     string
	)

	c := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the model at a point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := parsePoint(point)
			if err != nil {
				return err
			}
			model, err := tilefit.LoadFromFile(cmd.Context(), modelPath, newLoggerOption(*verbose))
			if err != nil {
				return err
			}
			y, err := model.Evaluate(cmd.Context(), x)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", y)
			return nil
		},
	}

	c.Flags().StringVarP(&modelPath, "model", "m", "", "Model snapshot file (required)")
	c.Flags().StringVarP(&point, "point", "p", "", "Comma-separated coordinates (required)")
	_ = c.MarkFlagRequired("model")
	_ = c.MarkFlagRequired("point")
	return c
}

func newLocateCmd(verbose *bool) *cobra.Command {
	var (
		modelPath string
		point     string
	)

	c := &cobra.Command{
		Use:   "locate",
		Short: "Show the tile owning a point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := parsePoint(point)
			if err != nil {
				return err
			}
			model, err := tilefit.LoadFromFile(cmd.Context(), modelPath, newLoggerOption(*verbose))
			if err != nil {
				return err
			}
			t, err := model.Locate(cmd.Context(), x)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tile %d\n  real:    %s\n  virtual: %s\n  members: %d\n  rss:     %g\n  depth:   %d\n",
				t.ID, t.Real, t.Virtual, t.MemberCount, t.RSS, t.Depth)
			return nil
		},
	}

	c.Flags().StringVarP(&modelPath, "model", "m", "", "Model snapshot file (required)")
	c.Flags().StringVarP(&point, "point", "p", "", "Comma-separated coordinates (required)")
	_ = c.MarkFlagRequired("model")
	_ = c.MarkFlagRequired("point")
	return c
}
