package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"operant/internal/model"
)

// RunSummary condenses a run's event log into the headline numbers reported
// by the CLI and persisted next to the raw events.
type RunSummary struct {
	RunID             string  `json:"run_id"`
	Generations       int     `json:"generations"`
	Reinforcements    int     `json:"reinforcements"`
	ReinforcementRate float64 `json:"reinforcement_rate"`
	FinalBestFitness  float64 `json:"final_best_fitness"`
	FinalTarget       float64 `json:"final_target"`
	PhenotypeMean     float64 `json:"phenotype_mean"`
	PhenotypeStd      float64 `json:"phenotype_std"`
	PhenotypeMin      float64 `json:"phenotype_min"`
	PhenotypeMax      float64 `json:"phenotype_max"`
	BestFitnessMean   float64 `json:"best_fitness_mean"`
	BestFitnessMax    float64 `json:"best_fitness_max"`
}

// Summarize aggregates per-generation phenotype means and best fitnesses. An
// empty event log yields a zero summary with only the run id set.
func Summarize(runID string, events []model.EventRecord) RunSummary {
	summary := RunSummary{RunID: runID}
	if len(events) == 0 {
		return summary
	}

	phenotypeMeans := make([]float64, len(events))
	bestFitnesses := make([]float64, len(events))
	for i, event := range events {
		phenotypeMeans[i] = event.PhenotypeMean
		bestFitnesses[i] = event.FitnessBest
	}

	last := events[len(events)-1]
	summary.Generations = len(events)
	summary.Reinforcements = last.CumulativeReinforcers
	summary.ReinforcementRate = float64(last.CumulativeReinforcers) / float64(len(events))
	summary.FinalBestFitness = last.FitnessBest
	summary.FinalTarget = last.Target
	summary.PhenotypeMean = stat.Mean(phenotypeMeans, nil)
	if len(phenotypeMeans) > 1 {
		summary.PhenotypeStd = stat.StdDev(phenotypeMeans, nil)
	}
	summary.PhenotypeMin = floats.Min(phenotypeMeans)
	summary.PhenotypeMax = floats.Max(phenotypeMeans)
	summary.BestFitnessMean = stat.Mean(bestFitnesses, nil)
	summary.BestFitnessMax = floats.Max(bestFitnesses)
	return summary
}
