package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	api "operant/pkg/operant"
)

// runConfigFile mirrors api.RunRequest for file-based configuration. Either
// JSON or YAML is accepted, keyed on the file extension.
type runConfigFile struct {
	GenotypeLength     int     `json:"genotype_length" yaml:"genotype_length"`
	PopulationSize     int     `json:"population_size" yaml:"population_size"`
	Generations        int     `json:"generations" yaml:"generations"`
	MutationRate       float64 `json:"mutation_rate" yaml:"mutation_rate"`
	MeanInterval       float64 `json:"mean_interval" yaml:"mean_interval"`
	FitnessDensityMean float64 `json:"fitness_density_mean" yaml:"fitness_density_mean"`
	Target             float64 `json:"target" yaml:"target"`
	TargetPolicy       string  `json:"target_policy" yaml:"target_policy"`
	Selection          string  `json:"selection" yaml:"selection"`
	Crossover          string  `json:"crossover" yaml:"crossover"`
	FitnessShape       string  `json:"fitness_shape" yaml:"fitness_shape"`
	Mapping            string  `json:"mapping" yaml:"mapping"`
	EvolutionType      string  `json:"evolution_type" yaml:"evolution_type"`
	Seed               int64   `json:"seed" yaml:"seed"`
}

func loadRunConfigFile(path string) (runConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfigFile{}, err
	}

	var cfg runConfigFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return runConfigFile{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return runConfigFile{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return runConfigFile{}, fmt.Errorf("unsupported config format: %s", path)
	}
	return cfg, nil
}

// mergeRunConfig overlays file values onto the flag-derived request. Flags
// passed explicitly on the command line win over the file.
func mergeRunConfig(req api.RunRequest, cfg runConfigFile, setFlags map[string]bool) api.RunRequest {
	if cfg.GenotypeLength > 0 && !setFlags["length"] {
		req.GenotypeLength = cfg.GenotypeLength
	}
	if cfg.PopulationSize > 0 && !setFlags["pop"] {
		req.PopulationSize = cfg.PopulationSize
	}
	if cfg.Generations > 0 && !setFlags["gens"] {
		req.Generations = cfg.Generations
	}
	if cfg.MutationRate > 0 && !setFlags["mutation-rate"] {
		req.MutationRate = cfg.MutationRate
	}
	if cfg.MeanInterval > 0 && !setFlags["mean-interval"] {
		req.MeanInterval = cfg.MeanInterval
	}
	if cfg.FitnessDensityMean > 0 && !setFlags["density-mean"] {
		req.FitnessDensityMean = cfg.FitnessDensityMean
	}
	if cfg.Target != 0 && !setFlags["target"] {
		req.Target = cfg.Target
	}
	if cfg.TargetPolicy != "" && !setFlags["target-policy"] {
		req.TargetPolicy = cfg.TargetPolicy
	}
	if cfg.Selection != "" && !setFlags["selection"] {
		req.Selection = cfg.Selection
	}
	if cfg.Crossover != "" && !setFlags["crossover"] {
		req.Crossover = cfg.Crossover
	}
	if cfg.FitnessShape != "" && !setFlags["fitness-shape"] {
		req.FitnessShape = cfg.FitnessShape
	}
	if cfg.Mapping != "" && !setFlags["mapping"] {
		req.Mapping = cfg.Mapping
	}
	if cfg.EvolutionType != "" && !setFlags["evolution"] {
		req.EvolutionType = cfg.EvolutionType
	}
	if cfg.Seed != 0 && !setFlags["seed"] {
		req.Seed = cfg.Seed
	}
	return req
}
