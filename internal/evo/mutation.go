package evo

import (
	"fmt"
	"math/rand"

	"operant/internal/genotype"
	"operant/internal/model"
)

// Mutator flips each bit independently with probability Rate.
type Mutator struct {
	Rate float64
}

// NewMutator validates the rate before any generation runs.
func NewMutator(rate float64) (Mutator, error) {
	if rate < 0 || rate > 1 {
		return Mutator{}, fmt.Errorf("mutation rate must be in [0, 1], got=%v", rate)
	}
	return Mutator{Rate: rate}, nil
}

// Mutate returns a mutated copy; the input genotype is never touched.
func (m Mutator) Mutate(rng *rand.Rand, g model.Genotype) model.Genotype {
	out := genotype.Clone(g)
	if m.Rate == 0 {
		return out
	}
	for i := range out.Bits {
		if rng.Float64() < m.Rate {
			out.Bits[i] ^= 1
		}
	}
	return out
}
