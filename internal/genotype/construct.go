package genotype

import (
	"fmt"
	"math/rand"

	"operant/internal/model"
)

// NewRandom returns a genotype of length bits drawn uniformly from the
// supplied random source.
func NewRandom(rng *rand.Rand, length int) (model.Genotype, error) {
	if rng == nil {
		return model.Genotype{}, fmt.Errorf("random source is required")
	}
	if length <= 0 {
		return model.Genotype{}, fmt.Errorf("genotype length must be > 0")
	}

	bits := make([]uint8, length)
	for i := range bits {
		bits[i] = uint8(rng.Intn(2))
	}
	return model.Genotype{Bits: bits}, nil
}

// ConstructSeedPopulation builds the initial population of size count with
// genotypes of the given length, all drawn from rng in slot order.
func ConstructSeedPopulation(rng *rand.Rand, count, length int) ([]model.Genotype, error) {
	if count <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}

	members := make([]model.Genotype, 0, count)
	for i := 0; i < count; i++ {
		genotype, err := NewRandom(rng, length)
		if err != nil {
			return nil, err
		}
		members = append(members, genotype)
	}
	return members, nil
}

// Clone returns a deep copy of the genotype so that offspring never alias a
// parent's bit slice.
func Clone(g model.Genotype) model.Genotype {
	return model.Genotype{Bits: append([]uint8(nil), g.Bits...)}
}
