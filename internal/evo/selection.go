package evo

import (
	"fmt"
	"math/rand"
	"sort"
)

// Selector names.
const (
	SelectorRoulette = "roulette"
	SelectorRank     = "rank"
)

// minSelectableWeight guards the fitness-proportional wheel: when the whole
// population scores below it, selection degenerates to uniform.
const minSelectableWeight = 1e-12

// Selector chooses a parent slot from scored genotypes. Selection probability
// grows with fitness, i.e. shrinks with distance to the reinforced target.
// Sampling is with replacement; the same slot may parent many offspring.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, scored []ScoredGenotype) (int, error)
}

// SelectorFromName resolves a configured selection strategy.
func SelectorFromName(name string) (Selector, error) {
	switch name {
	case "", SelectorRoulette:
		return RouletteSelector{}, nil
	case SelectorRank:
		return RankSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selection strategy: %s", name)
	}
}

// RouletteSelector samples proportionally to fitness. Equal scores collapse
// to a uniform draw, which also covers the all-zero degenerate case.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return SelectorRoulette
}

func (RouletteSelector) PickParent(rng *rand.Rand, scored []ScoredGenotype) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return 0, fmt.Errorf("cannot select from an empty population")
	}

	total := 0.0
	for _, item := range scored {
		total += item.Fitness
	}
	if total < minSelectableWeight {
		return rng.Intn(len(scored)), nil
	}

	pick := rng.Float64() * total
	acc := 0.0
	for i, item := range scored {
		acc += item.Fitness
		if pick <= acc {
			return i, nil
		}
	}
	return len(scored) - 1, nil
}

// RankSelector weights slots by fitness rank instead of magnitude: the best
// slot gets weight n, the worst weight 1. Ties rank in population order so a
// fixed seed reproduces the same parents.
type RankSelector struct{}

func (RankSelector) Name() string {
	return SelectorRank
}

func (RankSelector) PickParent(rng *rand.Rand, scored []ScoredGenotype) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return 0, fmt.Errorf("cannot select from an empty population")
	}

	n := len(scored)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Fitness > scored[order[b]].Fitness
	})

	// Weight for rank position p (0 = best) is n-p; total is n(n+1)/2.
	total := n * (n + 1) / 2
	pick := rng.Intn(total)
	acc := 0
	for p, idx := range order {
		acc += n - p
		if pick < acc {
			return idx, nil
		}
	}
	return order[n-1], nil
}
