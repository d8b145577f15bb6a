package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"operant/internal/genotype"
	"operant/internal/model"
	"operant/internal/schedule"
)

// Evolution types.
const (
	EvolutionGenerational = "generational"
	EvolutionSteadyState  = "steady_state"
)

// Target policies.
const (
	TargetFixed   = "fixed"
	TargetEmitted = "emitted"
)

// scheduleSeedOffset decorrelates the schedule's interval stream from the
// engine's selection/mutation draws while keeping both tied to one seed.
const scheduleSeedOffset = 1000

// ErrInvariantViolation marks population shape drift after reproduction. It
// indicates an engine bug, never a configuration problem.
var ErrInvariantViolation = errors.New("invariant violation")

// Config holds every knob the engine consumes. All fields are validated by
// NewEngine before the first generation runs.
type Config struct {
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

// RunResult is the complete outcome of a run: the per-generation event log
// plus the final scored population.
type RunResult struct {
	Events           []model.EventRecord
	BestByGeneration []float64
	FinalPopulation  []ScoredGenotype
	Reinforcements   int
}

// Engine orchestrates the generation loop: decode, score, advance the
// schedule, select, recombine, mutate, install, log. All randomness flows
// from the configured seed.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	sched     *schedule.RandomInterval
	decoder   genotype.Decoder
	shape     FitnessShape
	selector  Selector
	recombine Recombinator
	mutator   Mutator
}

// NewEngine validates the configuration and wires the components. Any invalid
// parameter is fatal here, before generation zero.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.GenotypeLength <= 0 {
		return nil, fmt.Errorf("genotype length must be > 0")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.MeanInterval <= 0 {
		return nil, fmt.Errorf("mean interval must be > 0")
	}
	switch cfg.TargetPolicy {
	case "", TargetFixed:
		cfg.TargetPolicy = TargetFixed
	case TargetEmitted:
	default:
		return nil, fmt.Errorf("unknown target policy: %s", cfg.TargetPolicy)
	}
	switch cfg.EvolutionType {
	case "", EvolutionGenerational:
		cfg.EvolutionType = EvolutionGenerational
	case EvolutionSteadyState:
	default:
		return nil, fmt.Errorf("unknown evolution type: %s", cfg.EvolutionType)
	}

	mutator, err := NewMutator(cfg.MutationRate)
	if err != nil {
		return nil, err
	}
	decoder, err := genotype.DecoderFromName(cfg.Mapping, cfg.GenotypeLength)
	if err != nil {
		return nil, err
	}
	shape, err := ShapeFromName(cfg.FitnessShape, cfg.FitnessDensityMean, phenotypeRange(cfg, decoder))
	if err != nil {
		return nil, err
	}
	selector, err := SelectorFromName(cfg.Selection)
	if err != nil {
		return nil, err
	}
	recombine, err := RecombinatorFromName(cfg.Crossover)
	if err != nil {
		return nil, err
	}
	sched, err := schedule.NewRandomInterval(cfg.MeanInterval, cfg.Target, uint64(cfg.Seed+scheduleSeedOffset))
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		sched:     sched,
		decoder:   decoder,
		shape:     shape,
		selector:  selector,
		recombine: recombine,
		mutator:   mutator,
	}, nil
}

// Schedule exposes the read-only schedule snapshot, mainly for callers that
// report final schedule state after a run.
func (e *Engine) Schedule() model.ScheduleSnapshot {
	return e.sched.Snapshot()
}

// Run executes all configured generations sequentially and returns the event
// log. A failed generation aborts the whole run; there is no partial
// recovery.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	population, err := genotype.ConstructSeedPopulation(e.rng, e.cfg.PopulationSize, e.cfg.GenotypeLength)
	if err != nil {
		return RunResult{}, err
	}

	events := make([]model.EventRecord, 0, e.cfg.Generations)
	best := make([]float64, 0, e.cfg.Generations)
	var scored []ScoredGenotype

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		e.sched.BeginGeneration()
		if e.cfg.TargetPolicy == TargetEmitted {
			emitted := population[e.rng.Intn(len(population))]
			e.sched.SetTarget(e.decoder.Decode(emitted))
		}

		scored = e.evaluate(population)

		reinforced := false
		reinforcedIndex := -1
		if e.sched.State() == schedule.StateArmed {
			reinforcedIndex = closestIndex(scored)
			if err := e.sched.NotifyReinforced(); err != nil {
				return RunResult{}, err
			}
			reinforced = true
		}

		next, err := e.reproduce(scored, population, reinforced)
		if err != nil {
			return RunResult{}, err
		}
		if err := e.checkInvariants(next); err != nil {
			return RunResult{}, err
		}

		record := e.buildRecord(gen, scored, reinforced, reinforcedIndex)
		events = append(events, record)
		best = append(best, record.FitnessBest)
		population = next
	}

	return RunResult{
		Events:           events,
		BestByGeneration: best,
		FinalPopulation:  scored,
		Reinforcements:   e.sched.Reinforcements(),
	}, nil
}

func (e *Engine) evaluate(population []model.Genotype) []ScoredGenotype {
	target := e.sched.Target()
	scored := make([]ScoredGenotype, len(population))
	for i, member := range population {
		phenotype := e.decoder.Decode(member)
		distance := phenotype - target
		if distance < 0 {
			distance = -distance
		}
		scored[i] = ScoredGenotype{
			Genotype:  member,
			Phenotype: phenotype,
			Distance:  distance,
			Fitness:   e.shape.Score(distance),
		}
	}
	return scored
}

func (e *Engine) reproduce(scored []ScoredGenotype, population []model.Genotype, reinforced bool) ([]model.Genotype, error) {
	if e.cfg.EvolutionType == EvolutionSteadyState {
		return e.reproduceSteadyState(scored, population, reinforced)
	}

	next := make([]model.Genotype, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.PopulationSize; i++ {
		offspring, err := e.spawnOffspring(scored)
		if err != nil {
			return nil, err
		}
		next = append(next, offspring)
	}
	return next, nil
}

// reproduceSteadyState replaces a single uniformly drawn member with one
// offspring, and only on reinforced generations; selection pressure applies
// at reinforcement, not every tick.
func (e *Engine) reproduceSteadyState(scored []ScoredGenotype, population []model.Genotype, reinforced bool) ([]model.Genotype, error) {
	next := make([]model.Genotype, len(population))
	for i, member := range population {
		next[i] = genotype.Clone(member)
	}
	if !reinforced {
		return next, nil
	}

	offspring, err := e.spawnOffspring(scored)
	if err != nil {
		return nil, err
	}
	next[e.rng.Intn(len(next))] = offspring
	return next, nil
}

func (e *Engine) spawnOffspring(scored []ScoredGenotype) (model.Genotype, error) {
	first, err := e.selector.PickParent(e.rng, scored)
	if err != nil {
		return model.Genotype{}, err
	}
	second, err := e.selector.PickParent(e.rng, scored)
	if err != nil {
		return model.Genotype{}, err
	}
	offspring, err := e.recombine.Crossover(e.rng, scored[first].Genotype, scored[second].Genotype)
	if err != nil {
		return model.Genotype{}, err
	}
	return e.mutator.Mutate(e.rng, offspring), nil
}

func (e *Engine) checkInvariants(next []model.Genotype) error {
	if len(next) != e.cfg.PopulationSize {
		return fmt.Errorf("%w: population size drifted: got=%d want=%d", ErrInvariantViolation, len(next), e.cfg.PopulationSize)
	}
	for i, member := range next {
		if len(member.Bits) != e.cfg.GenotypeLength {
			return fmt.Errorf("%w: genotype %d length drifted: got=%d want=%d", ErrInvariantViolation, i, len(member.Bits), e.cfg.GenotypeLength)
		}
	}
	return nil
}

func (e *Engine) buildRecord(gen int, scored []ScoredGenotype, reinforced bool, reinforcedIndex int) model.EventRecord {
	phenotypes := make([]float64, len(scored))
	fitnesses := make([]float64, len(scored))
	bestIdx := 0
	for i, item := range scored {
		phenotypes[i] = item.Phenotype
		fitnesses[i] = item.Fitness
		if item.Fitness > scored[bestIdx].Fitness {
			bestIdx = i
		}
	}

	variance := 0.0
	if len(phenotypes) > 1 {
		variance = stat.Variance(phenotypes, nil)
	}

	return model.EventRecord{
		Generation:            gen,
		PhenotypeMean:         stat.Mean(phenotypes, nil),
		PhenotypeVariance:     variance,
		PhenotypeMin:          floats.Min(phenotypes),
		PhenotypeMax:          floats.Max(phenotypes),
		FitnessMean:           stat.Mean(fitnesses, nil),
		FitnessBest:           floats.Max(fitnesses),
		FitnessWorst:          floats.Min(fitnesses),
		BestPhenotype:         scored[bestIdx].Phenotype,
		Target:                e.sched.Target(),
		Reinforced:            reinforced,
		ReinforcedIndex:       reinforcedIndex,
		CumulativeReinforcers: e.sched.Reinforcements(),
		Schedule:              e.sched.Snapshot(),
	}
}

func closestIndex(scored []ScoredGenotype) int {
	idx := 0
	for i, item := range scored {
		if item.Distance < scored[idx].Distance {
			idx = i
		}
	}
	return idx
}

func phenotypeRange(cfg Config, decoder genotype.Decoder) float64 {
	if decoder.Name() == genotype.MappingNormalized {
		return 1
	}
	return genotype.MaxPhenotype(cfg.GenotypeLength)
}
