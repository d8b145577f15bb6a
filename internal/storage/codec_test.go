package storage

import (
	"errors"
	"reflect"
	"testing"

	"operant/internal/model"
)

func TestPopulationCodecRoundTrip(t *testing.T) {
	input := model.Population{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "pop-1",
		Generation:      7,
		Members: []model.Genotype{
			{Bits: []uint8{1, 0, 1, 1, 0, 0, 1, 0}},
			{Bits: []uint8{0, 0, 0, 1, 1, 1, 0, 1}},
		},
	}

	encoded, err := EncodePopulation(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodePopulation(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, decoded) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", input, decoded)
	}
}

func TestEventLogCodecRoundTrip(t *testing.T) {
	input := model.EventLog{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "ri10-42-1700000000",
		Records: []model.EventRecord{
			{
				Generation:            0,
				PhenotypeMean:         120.5,
				PhenotypeMin:          14,
				PhenotypeMax:          243,
				FitnessMean:           0.25,
				FitnessBest:           0.9,
				FitnessWorst:          0.01,
				BestPhenotype:         98,
				Target:                100,
				Reinforced:            true,
				ReinforcedIndex:       11,
				CumulativeReinforcers: 1,
				Schedule: model.ScheduleSnapshot{
					Kind:           "random_interval",
					State:          "just_reinforced",
					MeanInterval:   10,
					Target:         100,
					Reinforcements: 1,
				},
			},
		},
	}

	encoded, err := EncodeEventLog(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEventLog(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, decoded) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", input, decoded)
	}
}

func TestDecodePopulationRejectsVersionMismatch(t *testing.T) {
	input := model.Population{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "pop-1",
	}

	encoded, err := EncodePopulation(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodePopulation(encoded); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeEventLogRejectsVersionMismatch(t *testing.T) {
	input := model.EventLog{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion + 1},
		RunID:           "run-1",
	}

	encoded, err := EncodeEventLog(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeEventLog(encoded); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestFitnessHistoryCodecRoundTrip(t *testing.T) {
	input := []float64{0.2, 0.4, 0.4, 0.85}

	encoded, err := EncodeFitnessHistory(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeFitnessHistory(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, decoded) {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}
