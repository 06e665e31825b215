package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tilefit"
)

func newSliceCmd(verbose *bool) *cobra.Command {
	var (
		modelPath string
		axesArg   string
		atArg     string
		res       int
		output    string
	)

	c := &cobra.Command{
		Use:   "slice",
		Short: "Sample a 2-D cross-section of the model onto a CSV grid",
		Long: `Slice evaluates the model on a regular 2-D grid spanning two chosen
axes, holding all remaining axes fixed, and writes the grid as CSV rows
(x_i, x_j, value) for external plotting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := tilefit.LoadFromFile(cmd.Context(), modelPath, newLoggerOption(*verbose))
			if err != nil {
				return err
			}

			ai, aj, err := parseAxes(axesArg, model.Dim())
			if err != nil {
				return err
			}
			fixed, err := parseFixed(atArg, model.Dim())
			if err != nil {
				return err
			}
			for a := 0; a < model.Dim(); a++ {
				if a == ai || a == aj {
					continue
				}
				if _, ok := fixed[a]; !ok {
					return fmt.Errorf("axis %d is neither sliced nor fixed; add it to --at", a)
				}
			}

			bounds := model.Index().Bounds()
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			w := csv.NewWriter(f)
			x := make([]float64, model.Dim())
			for a, v := range fixed {
				x[a] = v
			}

			record := make([]string, 3)
			for i := 0; i < res; i++ {
				x[ai] = gridCoord(bounds.Min[ai], bounds.Max[ai], i, res)
				for j := 0; j < res; j++ {
					x[aj] = gridCoord(bounds.Min[aj], bounds.Max[aj], j, res)

					y, err := model.Evaluate(cmd.Context(), x)
					if err != nil {
						return err
					}
					record[0] = strconv.FormatFloat(x[ai], 'g', -1, 64)
					record[1] = strconv.FormatFloat(x[aj], 'g', -1, 64)
					record[2] = strconv.FormatFloat(y, 'g', -1, 64)
					if err := w.Write(record); err != nil {
						return err
					}
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %dx%d slice to %s\n", res, res, output)
			return nil
		},
	}

	c.Flags().StringVarP(&modelPath, "model", "m", "", "Model snapshot file (required)")
	c.Flags().StringVar(&axesArg, "axes", "0,1", "Two comma-separated axis indices to slice over")
	c.Flags().StringVar(&atArg, "at", "", "Fixed coordinates for remaining axes, e.g. 2=0.5,3=1")
	c.Flags().IntVar(&res, "res", 50, "Grid resolution per axis")
	c.Flags().StringVarP(&output, "output", "o", "slice.csv", "Output CSV file")
	_ = c.MarkFlagRequired("model")
	return c
}

func parseAxes(s string, dim int) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--axes needs exactly two indices, got %q", s)
	}
	ai, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	aj, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	if ai == aj || ai < 0 || aj < 0 || ai >= dim || aj >= dim {
		return 0, 0, fmt.Errorf("invalid axes %d,%d for dimension %d", ai, aj, dim)
	}
	return ai, aj, nil
}

func parseFixed(s string, dim int) (map[int]float64, error) {
	fixed := make(map[int]float64)
	if s == "" {
		return fixed, nil
	}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid --at entry %q, want axis=value", part)
		}
		axis, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, err
		}
		if axis < 0 || axis >= dim {
			return nil, fmt.Errorf("axis %d out of range for dimension %d", axis, dim)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, err
		}
		fixed[axis] = v
	}
	return fixed, nil
}

// gridCoord spaces res points across [min, max] inclusive of both ends.
func gridCoord(min, max float64, i, res int) float64 {
	if res == 1 {
		return min
	}
	return min + (max-min)*float64(i)/float64(res-1)
}
