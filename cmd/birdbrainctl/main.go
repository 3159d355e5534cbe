package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"birdbrain/internal/storage"
	"birdbrain/pkg/birdbrain"
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
	case "train":
		return runTrain(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: birdbrainctl <train|replay|runs|fitness|top> [flags]", msg)
}

func addStoreFlags(fs *flag.FlagSet) (storeKind, dbPath, outputDir *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "birdbrain.db", "sqlite database path")
	outputDir = fs.String("output-dir", "runs", "root directory for run artifacts")
	return storeKind, dbPath, outputDir
}

func newClient(storeKind, dbPath, outputDir string, verbose bool) (*birdbrain.Client, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return birdbrain.New(birdbrain.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		OutputDir: outputDir,
		Logger:    logger,
	})
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML training config path (flags override it)")
	scapeName := fs.String("scape", "", "scape name: spikes|open-sky")
	courseSeed := fs.Int64("course-seed", 0, "obstacle course seed")
	approaches := fs.Int("approaches", 0, "wall approaches before the gap sequence repeats (0 uses default)")
	population := fs.Int("pop", 0, "population size")
	generations := fs.Int("gens", 0, "generation count")
	elites := fs.Int("elites", 0, "genomes carried over unchanged each generation (0 uses default)")
	noElites := fs.Bool("no-elites", false, "disable elite carryover entirely")
	selection := fs.String("selection", "", "selection strategy: roulette|tournament")
	crossover := fs.String("crossover", "", "crossover strategy: uniform|single-point")
	mutationRate := fs.Float64("mutation-rate", 0, "per-gene mutation probability")
	mutationMagnitude := fs.Float64("mutation-magnitude", 0, "maximum per-gene mutation delta")
	maxTicks := fs.Int("max-ticks", 0, "episode tick cap (0 uses default)")
	workers := fs.Int("workers", 0, "concurrent evaluation workers")
	seed := fs.Int64("seed", 0, "rng seed for the evolutionary loop")
	fitnessGoal := fs.Float64("fitness-goal", 0, "early-stop best fitness goal (0 disables)")
	plateauWindow := fs.Int("plateau-window", 0, "early-stop after N generations without improvement (0 disables)")
	verbose := fs.Bool("verbose", false, "log each generation")
	storeKind, dbPath, outputDir := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := birdbrain.TrainRequest{}
	if *configPath != "" {
		cfg, err := LoadTrainConfig(*configPath)
		if err != nil {
			return err
		}
		req = cfg.ToRequest()
	}
	if *scapeName != "" {
		req.Scape = *scapeName
	}
	if *courseSeed != 0 {
		req.CourseSeed = *courseSeed
	}
	if *approaches != 0 {
		req.CourseApproaches = *approaches
	}
	if *population != 0 {
		req.Population = *population
	}
	if *generations != 0 {
		req.Generations = *generations
	}
	if *elites != 0 {
		req.EliteCount = *elites
	}
	if *noElites {
		req.NoElites = true
	}
	if *selection != "" {
		req.Selection = *selection
	}
	if *crossover != "" {
		req.Crossover = *crossover
	}
	if *mutationRate != 0 {
		req.MutationRate = *mutationRate
	}
	if *mutationMagnitude != 0 {
		req.MutationMagnitude = *mutationMagnitude
	}
	if *maxTicks != 0 {
		req.MaxTicks = *maxTicks
	}
	if *workers != 0 {
		req.Workers = *workers
	}
	if *seed != 0 {
		req.Seed = *seed
	}
	if *fitnessGoal != 0 {
		req.FitnessGoal = *fitnessGoal
	}
	if *plateauWindow != 0 {
		req.PlateauWindow = *plateauWindow
	}

	client, err := newClient(*storeKind, *dbPath, *outputDir, *verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Train(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to replay")
	latest := fs.Bool("latest", false, "replay the most recent run")
	rank := fs.Int("rank", 1, "leaderboard rank to replay, 1 is best")
	storeKind, dbPath, outputDir := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *outputDir, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Replay(ctx, birdbrain.ReplayRequest{RunID: *runID, Latest: *latest, Rank: *rank})
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs listed, newest first")
	storeKind, dbPath, outputDir := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *outputDir, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	records, err := client.Runs(ctx, birdbrain.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	return printJSON(records)
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to inspect")
	latest := fs.Bool("latest", false, "inspect the most recent run")
	limit := fs.Int("limit", 0, "maximum generations listed (0 lists all)")
	storeKind, dbPath, outputDir := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *outputDir, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, birdbrain.FitnessHistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	return printJSON(history)
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to inspect")
	latest := fs.Bool("latest", false, "inspect the most recent run")
	limit := fs.Int("limit", 0, "maximum genomes listed (0 lists all)")
	storeKind, dbPath, outputDir := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *outputDir, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopGenomes(ctx, birdbrain.TopGenomesRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	return printJSON(top)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
