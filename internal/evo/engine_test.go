package evo

import (
	"context"
	"testing"
)

func baseConfig() Config {
	return Config{
		GenotypeLength:     8,
		PopulationSize:     20,
		Generations:        50,
		MutationRate:       0.01,
		MeanInterval:       10,
		FitnessDensityMean: 20,
		Target:             100,
		Seed:               42,
	}
}

func TestNewEngineValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero length", func(c *Config) { c.GenotypeLength = 0 }},
		{"negative length", func(c *Config) { c.GenotypeLength = -1 }},
		{"zero population", func(c *Config) { c.PopulationSize = 0 }},
		{"zero generations", func(c *Config) { c.Generations = 0 }},
		{"negative mutation rate", func(c *Config) { c.MutationRate = -0.1 }},
		{"mutation rate above one", func(c *Config) { c.MutationRate = 1.5 }},
		{"zero mean interval", func(c *Config) { c.MeanInterval = 0 }},
		{"unknown target policy", func(c *Config) { c.TargetPolicy = "oracle" }},
		{"unknown evolution type", func(c *Config) { c.EvolutionType = "island" }},
		{"unknown selection", func(c *Config) { c.Selection = "tournament" }},
		{"unknown crossover", func(c *Config) { c.Crossover = "two_point" }},
		{"unknown fitness shape", func(c *Config) { c.FitnessShape = "parabolic" }},
		{"unknown mapping", func(c *Config) { c.Mapping = "vector" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			if _, err := NewEngine(cfg); err == nil {
				t.Fatalf("expected configuration error")
			}
		})
	}
}

func TestRunProducesOneRecordPerGeneration(t *testing.T) {
	engine, err := NewEngine(baseConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Events) != 50 {
		t.Fatalf("got %d records, want 50", len(result.Events))
	}
	for i, record := range result.Events {
		if record.Generation != i {
			t.Fatalf("record %d has generation %d", i, record.Generation)
		}
	}
	if len(result.BestByGeneration) != 50 {
		t.Fatalf("got %d best entries, want 50", len(result.BestByGeneration))
	}
	if len(result.FinalPopulation) != 20 {
		t.Fatalf("final population size %d, want 20", len(result.FinalPopulation))
	}
	for i, member := range result.FinalPopulation {
		if len(member.Genotype.Bits) != 8 {
			t.Fatalf("final member %d has length %d", i, len(member.Genotype.Bits))
		}
	}
	// With a mean interval of 10 over 50 generations, expect roughly 5
	// reinforcers; allow wide slack for the random draws.
	if result.Reinforcements < 1 || result.Reinforcements > 15 {
		t.Fatalf("reinforcement count %d outside plausible range", result.Reinforcements)
	}
}

func TestRunDeliversReinforcement(t *testing.T) {
	cfg := baseConfig()
	cfg.MeanInterval = 3
	cfg.Generations = 200
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reinforcements == 0 {
		t.Fatal("expected at least one reinforcement over 200 generations")
	}

	cumulative := 0
	for i, record := range result.Events {
		if record.Reinforced {
			cumulative++
			if record.ReinforcedIndex < 0 || record.ReinforcedIndex >= cfg.PopulationSize {
				t.Fatalf("generation %d reinforced index out of range: %d", i, record.ReinforcedIndex)
			}
		} else if record.ReinforcedIndex != -1 {
			t.Fatalf("generation %d not reinforced but index is %d", i, record.ReinforcedIndex)
		}
		if record.CumulativeReinforcers != cumulative {
			t.Fatalf("generation %d cumulative count got=%d want=%d", i, record.CumulativeReinforcers, cumulative)
		}
	}
	if cumulative != result.Reinforcements {
		t.Fatalf("log counted %d reinforcers, result says %d", cumulative, result.Reinforcements)
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	run := func() RunResult {
		engine, err := NewEngine(baseConfig())
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		result, err := engine.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	a := run()
	b := run()
	if len(a.Events) != len(b.Events) {
		t.Fatalf("record counts differ: %d vs %d", len(a.Events), len(b.Events))
	}
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			t.Fatalf("generation %d records differ:\n%+v\n%+v", i, a.Events[i], b.Events[i])
		}
	}
	for i := range a.FinalPopulation {
		for j, bit := range a.FinalPopulation[i].Genotype.Bits {
			if bit != b.FinalPopulation[i].Genotype.Bits[j] {
				t.Fatalf("final member %d bit %d differs", i, j)
			}
		}
	}
}

func TestRunSingleMemberPopulation(t *testing.T) {
	cfg := baseConfig()
	cfg.PopulationSize = 1
	cfg.Generations = 30
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Events) != 30 {
		t.Fatalf("got %d records, want 30", len(result.Events))
	}
	for i, record := range result.Events {
		if record.PhenotypeVariance != 0 {
			t.Fatalf("generation %d variance %v for single member", i, record.PhenotypeVariance)
		}
	}
}

func TestRunSteadyStateKeepsPopulationShape(t *testing.T) {
	cfg := baseConfig()
	cfg.EvolutionType = EvolutionSteadyState
	cfg.MeanInterval = 3
	cfg.Generations = 100
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.FinalPopulation) != cfg.PopulationSize {
		t.Fatalf("final population size %d, want %d", len(result.FinalPopulation), cfg.PopulationSize)
	}
	if result.Reinforcements == 0 {
		t.Fatal("expected reinforcement under a short mean interval")
	}
}

func TestRunEmittedTargetTracksPopulation(t *testing.T) {
	cfg := baseConfig()
	cfg.TargetPolicy = TargetEmitted
	cfg.Generations = 40
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, record := range result.Events {
		if record.Target < record.PhenotypeMin || record.Target > record.PhenotypeMax {
			t.Fatalf("generation %d emitted target %v outside phenotype range [%v, %v]",
				i, record.Target, record.PhenotypeMin, record.PhenotypeMax)
		}
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	engine, err := NewEngine(baseConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRunNormalizedMappingBoundsPhenotypes(t *testing.T) {
	cfg := baseConfig()
	cfg.Mapping = "normalized"
	cfg.Target = 0.5
	cfg.Generations = 20
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, record := range result.Events {
		if record.PhenotypeMin < 0 || record.PhenotypeMax > 1 {
			t.Fatalf("generation %d phenotypes outside [0,1]: min=%v max=%v",
				i, record.PhenotypeMin, record.PhenotypeMax)
		}
	}
}
