package evo

import (
	"math/rand"
	"testing"

	"operant/internal/model"
)

func TestRecombinatorFromName(t *testing.T) {
	for _, name := range []string{"", CrossoverSingle, CrossoverMidpoint, CrossoverUniform} {
		if _, err := RecombinatorFromName(name); err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
	}
	if _, err := RecombinatorFromName("threeway"); err == nil {
		t.Fatal("expected error for unknown crossover policy")
	}
}

func TestCrossoverPreservesLength(t *testing.T) {
	a := model.Genotype{Bits: []uint8{1, 1, 1, 1, 1, 1, 1, 1}}
	b := model.Genotype{Bits: []uint8{0, 0, 0, 0, 0, 0, 0, 0}}
	recombinators := []Recombinator{SinglePointCrossover{}, MidpointCrossover{}, UniformCrossover{}}
	rng := rand.New(rand.NewSource(42))

	for _, r := range recombinators {
		for i := 0; i < 50; i++ {
			offspring, err := r.Crossover(rng, a, b)
			if err != nil {
				t.Fatalf("%s: crossover: %v", r.Name(), err)
			}
			if len(offspring.Bits) != len(a.Bits) {
				t.Fatalf("%s: offspring length %d, want %d", r.Name(), len(offspring.Bits), len(a.Bits))
			}
			for j, bit := range offspring.Bits {
				if bit != a.Bits[j] && bit != b.Bits[j] {
					t.Fatalf("%s: offspring bit %d came from neither parent", r.Name(), j)
				}
			}
		}
	}
}

func TestMidpointCrossoverSplitsAtHalf(t *testing.T) {
	a := model.Genotype{Bits: []uint8{1, 1, 1, 1}}
	b := model.Genotype{Bits: []uint8{0, 0, 0, 0}}
	offspring, err := MidpointCrossover{}.Crossover(rand.New(rand.NewSource(1)), a, b)
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}
	want := []uint8{1, 1, 0, 0}
	for i, bit := range offspring.Bits {
		if bit != want[i] {
			t.Fatalf("bit %d: got=%d want=%d (offspring=%v)", i, bit, want[i], offspring.Bits)
		}
	}
}

func TestCrossoverOfIndividualWithItselfYieldsItself(t *testing.T) {
	g := model.Genotype{Bits: []uint8{1, 0, 1, 1, 0, 0, 1, 0}}
	recombinators := []Recombinator{SinglePointCrossover{}, MidpointCrossover{}, UniformCrossover{}}
	rng := rand.New(rand.NewSource(9))

	for _, r := range recombinators {
		offspring, err := r.Crossover(rng, g, g)
		if err != nil {
			t.Fatalf("%s: crossover: %v", r.Name(), err)
		}
		for i, bit := range offspring.Bits {
			if bit != g.Bits[i] {
				t.Fatalf("%s: self-crossover changed bit %d", r.Name(), i)
			}
		}
	}
}

func TestCrossoverRejectsLengthMismatch(t *testing.T) {
	a := model.Genotype{Bits: []uint8{1, 0}}
	b := model.Genotype{Bits: []uint8{1, 0, 1}}
	if _, err := (SinglePointCrossover{}).Crossover(rand.New(rand.NewSource(1)), a, b); err == nil {
		t.Fatal("expected error for mismatched parent lengths")
	}
}

func TestCrossoverDoesNotMutateParents(t *testing.T) {
	a := model.Genotype{Bits: []uint8{1, 1, 1, 1}}
	b := model.Genotype{Bits: []uint8{0, 0, 0, 0}}
	rng := rand.New(rand.NewSource(2))
	if _, err := (UniformCrossover{}).Crossover(rng, a, b); err != nil {
		t.Fatalf("crossover: %v", err)
	}
	for i := range a.Bits {
		if a.Bits[i] != 1 || b.Bits[i] != 0 {
			t.Fatal("crossover mutated a parent")
		}
	}
}
