package storage

import (
	"context"
	"sync"

	"operant/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	populations map[string]model.Population
	eventLogs   map[string]model.EventLog
	history     map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.populations = make(map[string]model.Population)
	s.eventLogs = make(map[string]model.EventLog)
	s.history = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SavePopulation(_ context.Context, population model.Population) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.populations[population.ID] = population
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, id string) (model.Population, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.populations[id]
	return population, ok, nil
}

func (s *MemoryStore) DeletePopulation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.populations, id)
	return nil
}

func (s *MemoryStore) SaveEventLog(_ context.Context, log model.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := log
	copied.Records = make([]model.EventRecord, len(log.Records))
	copy(copied.Records, log.Records)
	s.eventLogs[log.RunID] = copied
	return nil
}

func (s *MemoryStore) GetEventLog(_ context.Context, runID string) (model.EventLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.eventLogs[runID]
	if !ok {
		return model.EventLog{}, false, nil
	}
	copied := log
	copied.Records = make([]model.EventRecord, len(log.Records))
	copy(copied.Records, log.Records)
	return copied, true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]float64(nil), history...)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]float64(nil), history...)
	return copied, true, nil
}
