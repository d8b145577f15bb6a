package storage

import (
	"context"

	"operant/internal/model"
)

// Store defines persistence operations for populations, run event logs, and
// best-fitness histories.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SavePopulation(ctx context.Context, population model.Population) error
	GetPopulation(ctx context.Context, id string) (model.Population, bool, error)
	DeletePopulation(ctx context.Context, id string) error
	SaveEventLog(ctx context.Context, log model.EventLog) error
	GetEventLog(ctx context.Context, runID string) (model.EventLog, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
