package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// buildConfig is the YAML shape of a build configuration file. Flags given
// on the command line override file values.
type buildConfig struct {
	Threshold   float64 `yaml:"threshold"`
	MaxDepth    int     `yaml:"max_depth"`
	MinExtent   float64 `yaml:"min_extent"`
	GrowStep    float64 `yaml:"grow_step"`
	Compression string  `yaml:"compression"`
	Parallelism int     `yaml:"parallelism"`
}

func loadBuildConfig(path string) (buildConfig, error) {
	var cfg buildConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
