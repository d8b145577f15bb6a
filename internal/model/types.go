package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genotype is a fixed-length binary chromosome. Bits hold 0/1 values and the
// length stays constant for the lifetime of a run.
type Genotype struct {
	Bits []uint8 `json:"bits"`
}

// Population is an ordered collection of genotypes. The engine replaces the
// member slice wholesale at each generation boundary.
type Population struct {
	VersionedRecord
	ID         string     `json:"id"`
	Generation int        `json:"generation"`
	Members    []Genotype `json:"members"`
}

// ScheduleSnapshot is a read-only view of the reinforcement schedule taken at
// a generation boundary.
type ScheduleSnapshot struct {
	Kind           string  `json:"kind"`
	State          string  `json:"state"`
	TimeToArm      float64 `json:"time_to_arm"`
	MeanInterval   float64 `json:"mean_interval"`
	Target         float64 `json:"target"`
	Reinforcements int     `json:"reinforcements"`
}

// EventRecord summarizes one generation of the simulation. Records are
// append-only and the sequence of them is the sole artifact handed to
// analysis collaborators.
type EventRecord struct {
	Generation            int              `json:"generation"`
	PhenotypeMean         float64          `json:"phenotype_mean"`
	PhenotypeVariance     float64          `json:"phenotype_variance"`
	PhenotypeMin          float64          `json:"phenotype_min"`
	PhenotypeMax          float64          `json:"phenotype_max"`
	FitnessMean           float64          `json:"fitness_mean"`
	FitnessBest           float64          `json:"fitness_best"`
	FitnessWorst          float64          `json:"fitness_worst"`
	BestPhenotype         float64          `json:"best_phenotype"`
	Target                float64          `json:"target"`
	Reinforced            bool             `json:"reinforced"`
	ReinforcedIndex       int              `json:"reinforced_index"`
	CumulativeReinforcers int              `json:"cumulative_reinforcers"`
	Schedule              ScheduleSnapshot `json:"schedule"`
}

// EventLog is the persistent wrapper around a run's event records.
type EventLog struct {
	VersionedRecord
	RunID   string        `json:"run_id"`
	Records []EventRecord `json:"records"`
}
