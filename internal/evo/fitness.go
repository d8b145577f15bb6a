package evo

import (
	"fmt"
	"math"

	"operant/internal/model"
)

// Fitness shape names.
const (
	ShapeExponential   = "exponential"
	ShapeLinear        = "linear"
	ShapeInverseSquare = "inverse_square"
)

// ScoredGenotype pairs a genotype with its decoded phenotype and its fitness
// against the current reinforced target.
type ScoredGenotype struct {
	Genotype  model.Genotype
	Phenotype float64
	Distance  float64
	Fitness   float64
}

// FitnessShape converts phenotype-to-target distance into a non-negative
// fitness score. Every shape is non-increasing in distance, so a smaller
// distance never scores worse.
type FitnessShape interface {
	Name() string
	Score(distance float64) float64
}

// ShapeFromName resolves a configured fitness shape. densityMean parametrizes
// the exponential shape; phenotypeRange bounds the linear one.
func ShapeFromName(name string, densityMean, phenotypeRange float64) (FitnessShape, error) {
	switch name {
	case "", ShapeExponential:
		if densityMean <= 0 {
			return nil, fmt.Errorf("fitness density mean must be > 0")
		}
		return ExponentialShape{DensityMean: densityMean}, nil
	case ShapeLinear:
		if phenotypeRange <= 0 {
			return nil, fmt.Errorf("phenotype range must be > 0 for linear fitness")
		}
		return LinearShape{Range: phenotypeRange}, nil
	case ShapeInverseSquare:
		return InverseSquareShape{}, nil
	default:
		return nil, fmt.Errorf("unknown fitness shape: %s", name)
	}
}

// ExponentialShape scores e^(-d/mean). The density mean controls selection
// pressure: the smaller it is, the steeper the advantage of responses close
// to the target.
type ExponentialShape struct {
	DensityMean float64
}

func (ExponentialShape) Name() string {
	return ShapeExponential
}

func (s ExponentialShape) Score(distance float64) float64 {
	return math.Exp(-distance / s.DensityMean)
}

// LinearShape scores 1 - d/range, clamped at zero.
type LinearShape struct {
	Range float64
}

func (LinearShape) Name() string {
	return ShapeLinear
}

func (s LinearShape) Score(distance float64) float64 {
	score := 1 - distance/s.Range
	if score < 0 {
		return 0
	}
	return score
}

// InverseSquareShape scores 1/(1+d^2).
type InverseSquareShape struct{}

func (InverseSquareShape) Name() string {
	return ShapeInverseSquare
}

func (InverseSquareShape) Score(distance float64) float64 {
	return 1 / (1 + distance*distance)
}
