package evo

import (
	"fmt"
	"math/rand"

	"operant/internal/genotype"
	"operant/internal/model"
)

// Crossover policy names.
const (
	CrossoverSingle   = "single"
	CrossoverMidpoint = "midpoint"
	CrossoverUniform  = "uniform"
)

// Recombinator produces one offspring from a parent pair. Offspring length
// always equals the parents' length.
type Recombinator interface {
	Name() string
	Crossover(rng *rand.Rand, a, b model.Genotype) (model.Genotype, error)
}

// RecombinatorFromName resolves a configured crossover policy.
func RecombinatorFromName(name string) (Recombinator, error) {
	switch name {
	case "", CrossoverSingle:
		return SinglePointCrossover{}, nil
	case CrossoverMidpoint:
		return MidpointCrossover{}, nil
	case CrossoverUniform:
		return UniformCrossover{}, nil
	default:
		return nil, fmt.Errorf("unknown crossover policy: %s", name)
	}
}

// SinglePointCrossover splits at a uniformly drawn point K and concatenates
// a's bits [0,K) with b's bits [K,L).
type SinglePointCrossover struct{}

func (SinglePointCrossover) Name() string {
	return CrossoverSingle
}

func (SinglePointCrossover) Crossover(rng *rand.Rand, a, b model.Genotype) (model.Genotype, error) {
	if err := checkParents(rng, a, b); err != nil {
		return model.Genotype{}, err
	}
	return splitAt(rng.Intn(len(a.Bits)+1), a, b), nil
}

// MidpointCrossover splits at the fixed point K = L/2.
type MidpointCrossover struct{}

func (MidpointCrossover) Name() string {
	return CrossoverMidpoint
}

func (MidpointCrossover) Crossover(rng *rand.Rand, a, b model.Genotype) (model.Genotype, error) {
	if err := checkParents(rng, a, b); err != nil {
		return model.Genotype{}, err
	}
	return splitAt(len(a.Bits)/2, a, b), nil
}

// UniformCrossover draws a fresh random mask and takes each bit from a where
// the mask is set, from b otherwise.
type UniformCrossover struct{}

func (UniformCrossover) Name() string {
	return CrossoverUniform
}

func (UniformCrossover) Crossover(rng *rand.Rand, a, b model.Genotype) (model.Genotype, error) {
	if err := checkParents(rng, a, b); err != nil {
		return model.Genotype{}, err
	}

	offspring := genotype.Clone(b)
	for i := range offspring.Bits {
		if rng.Intn(2) == 1 {
			offspring.Bits[i] = a.Bits[i]
		}
	}
	return offspring, nil
}

func checkParents(rng *rand.Rand, a, b model.Genotype) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if len(a.Bits) == 0 || len(a.Bits) != len(b.Bits) {
		return fmt.Errorf("parent length mismatch: a=%d b=%d", len(a.Bits), len(b.Bits))
	}
	return nil
}

func splitAt(k int, a, b model.Genotype) model.Genotype {
	bits := make([]uint8, len(a.Bits))
	copy(bits[:k], a.Bits[:k])
	copy(bits[k:], b.Bits[k:])
	return model.Genotype{Bits: bits}
}
