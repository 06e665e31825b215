package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tilefit"
	"github.com/hupe1980/tilefit/persistence"
	"github.com/hupe1980/tilefit/sample"
)

func newBuildCmd(verbose *bool) *cobra.Command {
	var (
		input       string
		output      string
		configPath  string
		threshold   float64
		maxDepth    int
		minExtent   float64
		growStep    float64
		compression string
		parallelism int
	)

	c := &cobra.Command{
		Use:   "build",
		Short: "Build a model from a CSV sample file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := buildConfig{
				Threshold:   threshold,
				MaxDepth:    maxDepth,
				MinExtent:   minExtent,
				GrowStep:    growStep,
				Compression: compression,
				Parallelism: parallelism,
			}
			if configPath != "" {
				fileCfg, err := loadBuildConfig(configPath)
				if err != nil {
					return err
				}
				// Explicit flags win over the config file.
				if !cmd.Flags().Changed("threshold") {
					cfg.Threshold = fileCfg.Threshold
				}
				if !cmd.Flags().Changed("max-depth") {
					cfg.MaxDepth = fileCfg.MaxDepth
				}
				if !cmd.Flags().Changed("min-extent") {
					cfg.MinExtent = fileCfg.MinExtent
				}
				if !cmd.Flags().Changed("grow-step") {
					cfg.GrowStep = fileCfg.GrowStep
				}
				if !cmd.Flags().Changed("compression") && fileCfg.Compression != "" {
					cfg.Compression = fileCfg.Compression
				}
				if !cmd.Flags().Changed("parallelism") {
					cfg.Parallelism = fileCfg.Parallelism
				}
			}

			comp, err := persistence.ParseCompression(cfg.Compression)
			if err != nil {
				return err
			}

			coords, values, err := readSamples(input)
			if err != nil {
				return err
			}
			store, err := sample.NewStore(coords, values)
			if err != nil {
				return err
			}

			model, err := tilefit.Build(cmd.Context(), store, tilefit.Config{
				ErrorThreshold: cfg.Threshold,
				MaxDepth:       cfg.MaxDepth,
				MinExtent:      cfg.MinExtent,
			},
				newLoggerOption(*verbose),
				tilefit.WithGrowStep(cfg.GrowStep),
				tilefit.WithParallelism(cfg.Parallelism),
			)
			if err != nil {
				return err
			}

			if err := model.SaveToFile(cmd.Context(), output, tilefit.WithCompression(comp)); err != nil {
				return err
			}

			stats := model.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "built %s: dim=%d samples=%d tiles=%d depth=%d fits=%d\n",
				output, model.Dim(), model.SampleCount(), stats.Leaves, stats.MaxDepth, stats.Fits)
			return nil
		},
	}

	c.Flags().StringVarP(&input, "input", "i", "", "CSV sample file (required)")
	c.Flags().StringVarP(&output, "output", "o", "model.bin", "Output snapshot file")
	c.Flags().StringVar(&configPath, "config", "", "YAML build configuration file")
	c.Flags().Float64Var(&threshold, "threshold", 0, "Residual sum of squares accepted without further splitting")
	c.Flags().IntVar(&maxDepth, "max-depth", 16, "Maximum partition depth")
	c.Flags().Float64Var(&minExtent, "min-extent", 1e-6, "Per-axis tile size floor")
	c.Flags().Float64Var(&growStep, "grow-step", 0, "Virtual growth step as a fraction of domain extent (0 = default)")
	c.Flags().StringVar(&compression, "compression", "none", "Snapshot compression: none|zstd|lz4")
	c.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent subtree builds (0 = GOMAXPROCS)")

	_ = c.MarkFlagRequired("input")
	return c
}
