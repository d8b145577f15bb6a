package operant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"operant/internal/evo"
	"operant/internal/genotype"
	"operant/internal/model"
	"operant/internal/stats"
	"operant/internal/storage"
)

const (
	defaultResultsDir = "results"
	defaultExportsDir = "exports"
	defaultDBPath     = "operant.db"
)

// Options configures a Client. Zero values select the defaults used by the
// CLI: the build's default store backend and the results/ and exports/
// directories under the working directory.
type Options struct {
	StoreKind  string
	DBPath     string
	ResultsDir string
	ExportsDir string
}

// Client is the embedding API for running experiments and querying their
// persisted results.
type Client struct {
	store storage.Store

	initOnce sync.Once
	initErr  error

	resultsDir string
	exportsDir string
}

// RunRequest describes one experiment. Zero values select the defaults of
// the reference procedure: 10-bit genotypes, 100 organisms, a mean interval
// of 30 generations, mutation rate 0.01, and a fitness density mean of 20.
// A zero Target selects the midpoint of the phenotype range.
type RunRequest struct {
	GenotypeLength     int
	PopulationSize     int
	Generations        int
	MutationRate       float64
	MeanInterval       float64
	FitnessDensityMean float64
	Target             float64
	TargetPolicy       string
	Selection          string
	Crossover          string
	FitnessShape       string
	Mapping            string
	EvolutionType      string
	Seed               int64
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalBestFitness float64
	Reinforcements   int
	Summary          stats.RunSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Seed           int64
	Population     int
	Generations    int
	MeanInterval   float64
	Reinforcements int
	FinalBest      float64
}

type EventsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type SummaryRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		resultsDir: resultsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

func (c *Client) Reset(ctx context.Context) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.GenotypeLength <= 0 {
		req.GenotypeLength = 10
	}
	if req.PopulationSize <= 0 {
		req.PopulationSize = 100
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.MutationRate == 0 {
		req.MutationRate = 0.01
	}
	if req.MeanInterval <= 0 {
		req.MeanInterval = 30
	}
	if req.FitnessDensityMean <= 0 {
		req.FitnessDensityMean = 20
	}
	if req.Target == 0 {
		req.Target = defaultTarget(req.Mapping, req.GenotypeLength)
	}

	engine, err := evo.NewEngine(evo.Config{
		GenotypeLength:     req.GenotypeLength,
		PopulationSize:     req.PopulationSize,
		Generations:        req.Generations,
		MutationRate:       req.MutationRate,
		MeanInterval:       req.MeanInterval,
		FitnessDensityMean: req.FitnessDensityMean,
		Target:             req.Target,
		TargetPolicy:       req.TargetPolicy,
		Selection:          req.Selection,
		Crossover:          req.Crossover,
		FitnessShape:       req.FitnessShape,
		Mapping:            req.Mapping,
		EvolutionType:      req.EvolutionType,
		Seed:               req.Seed,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("ri%g-%d-%d", req.MeanInterval, req.Seed, now.Unix())

	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	members := make([]model.Genotype, 0, len(result.FinalPopulation))
	for _, scored := range result.FinalPopulation {
		members = append(members, scored.Genotype)
	}
	population := model.Population{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:         runID,
		Generation: req.Generations,
		Members:    members,
	}
	if err := c.store.SavePopulation(ctx, population); err != nil {
		return RunSummary{}, err
	}

	eventLog := model.EventLog{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:   runID,
		Records: result.Events,
	}
	if err := c.store.SaveEventLog(ctx, eventLog); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}

	summary := stats.Summarize(runID, result.Events)
	runDir, err := stats.WriteRunArtifacts(c.resultsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:              runID,
			GenotypeLength:     req.GenotypeLength,
			PopulationSize:     req.PopulationSize,
			Generations:        req.Generations,
			MutationRate:       req.MutationRate,
			MeanInterval:       req.MeanInterval,
			FitnessDensityMean: req.FitnessDensityMean,
			Target:             req.Target,
			TargetPolicy:       req.TargetPolicy,
			Selection:          req.Selection,
			Crossover:          req.Crossover,
			FitnessShape:       req.FitnessShape,
			Mapping:            req.Mapping,
			EvolutionType:      req.EvolutionType,
			Seed:               req.Seed,
		},
		Events:           result.Events,
		BestByGeneration: result.BestByGeneration,
		Summary:          summary,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.resultsDir, stats.RunIndexEntry{
		RunID:          runID,
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		MeanInterval:   req.MeanInterval,
		Seed:           req.Seed,
		Reinforcements: result.Reinforcements,
		FinalBest:      summary.FinalBestFitness,
		CreatedAtUTC:   now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: summary.FinalBestFitness,
		Reinforcements:   result.Reinforcements,
		Summary:          summary,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.resultsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:          e.RunID,
			CreatedAtUTC:   e.CreatedAtUTC,
			Seed:           e.Seed,
			Population:     e.PopulationSize,
			Generations:    e.Generations,
			MeanInterval:   e.MeanInterval,
			Reinforcements: e.Reinforcements,
			FinalBest:      e.FinalBest,
		})
	}
	return out, nil
}

func (c *Client) Events(ctx context.Context, req EventsRequest) ([]model.EventRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "events")
	if err != nil {
		return nil, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	log, ok, err := c.store.GetEventLog(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("event log not found for run id: %s", runID)
	}

	records := log.Records
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	out := make([]model.EventRecord, len(records))
	copy(out, records)
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Summary(_ context.Context, req SummaryRequest) (stats.RunSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "summary")
	if err != nil {
		return stats.RunSummary{}, err
	}

	summary, ok, err := stats.ReadRunSummary(c.resultsDir, runID)
	if err != nil {
		return stats.RunSummary{}, err
	}
	if !ok {
		return stats.RunSummary{}, fmt.Errorf("summary not found for run id: %s", runID)
	}
	return summary, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.resultsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

func (c *Client) resolveRunID(runID string, latest bool, operation string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", operation)
	}
	if err := stats.ValidateRunID(runID); err != nil {
		return "", err
	}
	return runID, nil
}

func defaultTarget(mapping string, length int) float64 {
	if mapping == genotype.MappingNormalized {
		return 0.5
	}
	return genotype.MaxPhenotype(length) / 2
}
