package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"operant/internal/storage"
	api "operant/pkg/operant"
)

const (
	resultsDir = "results"
	exportsDir = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "events":
		return runEvents(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "operant.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath, ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "operant.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath, ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "operant.db", "sqlite database path")
	configPath := fs.String("config", "", "run config file (json or yaml)")
	length := fs.Int("length", 10, "genotype length in bits")
	population := fs.Int("pop", 100, "population size")
	generations := fs.Int("gens", 100, "number of generations")
	mutationRate := fs.Float64("mutation-rate", 0.01, "per-bit mutation probability")
	meanInterval := fs.Float64("mean-interval", 30, "mean reinforcement interval in generations")
	densityMean := fs.Float64("density-mean", 20, "fitness density mean")
	target := fs.Float64("target", 0, "target phenotype; 0 selects the midpoint of the range")
	targetPolicy := fs.String("target-policy", "fixed", "target policy: fixed|emitted")
	selection := fs.String("selection", "roulette", "parent selection: roulette|rank")
	crossover := fs.String("crossover", "single", "crossover policy: single|midpoint|uniform")
	fitnessShape := fs.String("fitness-shape", "exponential", "fitness shape: exponential|linear|inverse_square")
	mapping := fs.String("mapping", "identity", "phenotype mapping: identity|normalized")
	evolutionType := fs.String("evolution", "generational", "evolution type: generational|steady_state")
	seed := fs.Int64("seed", 0, "random seed")
	quiet := fs.Bool("quiet", false, "suppress per-generation output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := api.RunRequest{
		GenotypeLength:     *length,
		PopulationSize:     *population,
		Generations:        *generations,
		MutationRate:       *mutationRate,
		MeanInterval:       *meanInterval,
		FitnessDensityMean: *densityMean,
		Target:             *target,
		TargetPolicy:       *targetPolicy,
		Selection:          *selection,
		Crossover:          *crossover,
		FitnessShape:       *fitnessShape,
		Mapping:            *mapping,
		EvolutionType:      *evolutionType,
		Seed:               *seed,
	}
	if *configPath != "" {
		loaded, err := loadRunConfigFile(*configPath)
		if err != nil {
			return err
		}
		setFlags := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
		req = mergeRunConfig(req, loaded, setFlags)
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath, ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runSummary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s pop=%d gens=%d mean_interval=%g seed=%d\n",
		runSummary.RunID, req.PopulationSize, req.Generations, req.MeanInterval, req.Seed)
	if !*quiet {
		for i, best := range runSummary.BestByGeneration {
			fmt.Printf("generation=%d best_fitness=%.6f\n", i, best)
		}
	}
	fmt.Printf("reinforcements=%d rate=%.4f\n", runSummary.Reinforcements, runSummary.Summary.ReinforcementRate)
	fmt.Printf("final_best_fitness=%.6f\n", runSummary.FinalBestFitness)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(runSummary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := api.New(api.Options{StoreKind: "memory", ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.Runs(ctx, api.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		return printJSON(entries)
	}
	for _, e := range entries {
		age := e.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, e.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("run_id=%s created=%s pop=%s gens=%s mean_interval=%g seed=%d reinforcers=%s final_best=%.6f\n",
			e.RunID, age,
			humanize.Comma(int64(e.Population)),
			humanize.Comma(int64(e.Generations)),
			e.MeanInterval, e.Seed,
			humanize.Comma(int64(e.Reinforcements)),
			e.FinalBest)
	}
	return nil
}

func runEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "operant.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max events to print; 0 prints all")
	jsonOut := fs.Bool("json", false, "emit events as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath, ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	events, err := client.Events(ctx, api.EventsRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(events)
	}
	for _, event := range events {
		fmt.Printf("generation=%d target=%.4f best_phenotype=%.4f best_fitness=%.6f mean_fitness=%.6f reinforced=%t cumulative=%d state=%s\n",
			event.Generation, event.Target, event.BestPhenotype, event.FitnessBest, event.FitnessMean,
			event.Reinforced, event.CumulativeReinforcers, event.Schedule.State)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "operant.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max generations to print; 0 prints all")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath, ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, api.FitnessHistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(history)
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i, best)
	}
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "use the most recent run")
	jsonOut := fs.Bool("json", false, "emit summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: "memory", ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Summary(ctx, api.SummaryRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(summary)
	}
	fmt.Printf("run_id=%s generations=%d reinforcements=%d rate=%.4f\n",
		summary.RunID, summary.Generations, summary.Reinforcements, summary.ReinforcementRate)
	fmt.Printf("phenotype mean=%.4f std=%.4f min=%.4f max=%.4f\n",
		summary.PhenotypeMean, summary.PhenotypeStd, summary.PhenotypeMin, summary.PhenotypeMax)
	fmt.Printf("fitness final_best=%.6f best_mean=%.6f best_max=%.6f target=%.4f\n",
		summary.FinalBestFitness, summary.BestFitnessMean, summary.BestFitnessMax, summary.FinalTarget)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "destination directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: "memory", ResultsDir: resultsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	export, err := client.Export(ctx, api.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", export.RunID, filepath.Clean(export.Directory))
	return nil
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: operantctl <init|reset|run|runs|events|fitness|summary|export> [flags]", msg)
}
