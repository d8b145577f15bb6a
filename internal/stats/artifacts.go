package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"operant/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the persisted form of a run's parameters, written alongside
// the artifacts so a run can be reproduced from its directory alone.
type RunConfig struct {
	RunID              string  `json:"run_id"`
	GenotypeLength     int     `json:"genotype_length"`
	PopulationSize     int     `json:"population_size"`
	Generations        int     `json:"generations"`
	MutationRate       float64 `json:"mutation_rate"`
	MeanInterval       float64 `json:"mean_interval"`
	FitnessDensityMean float64 `json:"fitness_density_mean"`
	Target             float64 `json:"target"`
	TargetPolicy       string  `json:"target_policy"`
	Selection          string  `json:"selection"`
	Crossover          string  `json:"crossover"`
	FitnessShape       string  `json:"fitness_shape"`
	Mapping            string  `json:"mapping"`
	EvolutionType      string  `json:"evolution_type"`
	Seed               int64   `json:"seed"`
}

// RunArtifacts bundles everything WriteRunArtifacts persists for one run.
type RunArtifacts struct {
	Config           RunConfig           `json:"config"`
	Events           []model.EventRecord `json:"events"`
	BestByGeneration []float64           `json:"best_by_generation"`
	Summary          RunSummary          `json:"summary"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MeanInterval   float64 `json:"mean_interval"`
	Seed           int64   `json:"seed"`
	Reinforcements int     `json:"reinforcements"`
	FinalBest      float64 `json:"final_best_fitness"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "events.json"), artifacts.Events); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), map[string]any{"best_by_generation": artifacts.BestByGeneration, "final_best_fitness": artifacts.Summary.FinalBestFitness}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := WriteEventsCSV(runDir, artifacts.Events); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"config.json", "events.json", "events.csv", "fitness_history.json", "summary.json"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	path := filepath.Join(baseDir, runID, "summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunSummary{}, false, nil
		}
		return RunSummary{}, false, err
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return RunSummary{}, false, err
	}
	return summary, true, nil
}

func ReadRunEvents(baseDir, runID string) ([]model.EventRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "events.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var events []model.EventRecord
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false, err
	}
	return events, true, nil
}

func WriteEventsCSV(runDir string, events []model.EventRecord) error {
	path := filepath.Join(runDir, "events.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{
		"generation", "phenotype_mean", "phenotype_variance", "phenotype_min", "phenotype_max",
		"fitness_mean", "fitness_best", "fitness_worst", "best_phenotype",
		"target", "reinforced", "reinforced_index", "cumulative_reinforcers", "schedule_state",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, event := range events {
		row := []string{
			strconv.Itoa(event.Generation),
			formatFloat(event.PhenotypeMean),
			formatFloat(event.PhenotypeVariance),
			formatFloat(event.PhenotypeMin),
			formatFloat(event.PhenotypeMax),
			formatFloat(event.FitnessMean),
			formatFloat(event.FitnessBest),
			formatFloat(event.FitnessWorst),
			formatFloat(event.BestPhenotype),
			formatFloat(event.Target),
			strconv.FormatBool(event.Reinforced),
			strconv.Itoa(event.ReinforcedIndex),
			strconv.Itoa(event.CumulativeReinforcers),
			event.Schedule.State,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadEventsCSV(baseDir, runID string) ([][]string, bool, error) {
	path := filepath.Join(baseDir, runID, "events.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// ValidateRunID rejects identifiers that would escape the artifacts
// directory when joined into a path.
func ValidateRunID(runID string) error {
	trimmed := strings.TrimSpace(runID)
	if trimmed == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.ContainsAny(trimmed, "/\\") || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("invalid run id: %s", runID)
	}
	return nil
}
