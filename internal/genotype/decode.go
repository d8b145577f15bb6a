package genotype

import (
	"fmt"
	"math"

	"operant/internal/model"
)

// Decode mapping names.
const (
	MappingIdentity   = "identity"
	MappingNormalized = "normalized"
)

// Decoder maps a genotype to its scalar phenotype value. Implementations are
// pure: the same genotype always decodes to the same value, and every bit
// pattern of the configured length is defined.
type Decoder interface {
	Name() string
	Decode(g model.Genotype) float64
}

// DecoderFromName resolves a configured mapping policy.
func DecoderFromName(name string, length int) (Decoder, error) {
	switch name {
	case "", MappingIdentity:
		return IdentityDecoder{}, nil
	case MappingNormalized:
		if length <= 0 {
			return nil, fmt.Errorf("genotype length must be > 0 for normalized mapping")
		}
		return NormalizedDecoder{Length: length}, nil
	default:
		return nil, fmt.Errorf("unknown mapping policy: %s", name)
	}
}

// IdentityDecoder reads the bit sequence as a big-endian binary integer.
type IdentityDecoder struct{}

func (IdentityDecoder) Name() string {
	return MappingIdentity
}

func (IdentityDecoder) Decode(g model.Genotype) float64 {
	value := 0.0
	for _, bit := range g.Bits {
		value = value*2 + float64(bit)
	}
	return value
}

// NormalizedDecoder scales the integer reading into [0, 1].
type NormalizedDecoder struct {
	Length int
}

func (NormalizedDecoder) Name() string {
	return MappingNormalized
}

func (d NormalizedDecoder) Decode(g model.Genotype) float64 {
	maxValue := math.Pow(2, float64(d.Length)) - 1
	if maxValue <= 0 {
		return 0
	}
	return IdentityDecoder{}.Decode(g) / maxValue
}

// MaxPhenotype returns the largest value the identity mapping can produce for
// genotypes of the given length.
func MaxPhenotype(length int) float64 {
	return math.Pow(2, float64(length)) - 1
}
