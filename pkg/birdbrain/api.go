// Package birdbrain is the public facade over training, replay, and run
// inspection. It owns persistence and artifact wiring so callers and the CLI
// share one code path.
package birdbrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"birdbrain/internal/evo"
	"birdbrain/internal/model"
	"birdbrain/internal/policy"
	"birdbrain/internal/scape"
	"birdbrain/internal/sim"
	"birdbrain/internal/storage"
	"birdbrain/internal/telemetry"
)

const (
	defaultDBPath     = "birdbrain.db"
	defaultOutputDir  = "runs"
	defaultTopGenomes = 5
)

type Options struct {
	StoreKind string
	DBPath    string
	// OutputDir is the root for per-run artifact directories.
	OutputDir string
	Logger    *slog.Logger
}

type Client struct {
	store       storage.Store
	initialized bool
	outputDir   string
	logger      *slog.Logger
}

type TrainRequest struct {
	Scape             string
	CourseSeed        int64
	CourseApproaches  int
	Population        int
	Generations       int
	// EliteCount 0 selects the default carryover; NoElites disables
	// elitism entirely.
	EliteCount        int
	NoElites          bool
	Selection         string
	Crossover         string
	MutationRate      float64
	MutationMagnitude float64
	MaxTicks          int
	Workers           int
	Seed              int64
	FitnessGoal       float64
	PlateauWindow     int
}

type TrainSummary struct {
	RunID            string
	Generations      int
	BestFitness      float64
	BestGenomeID     string
	StopReason       string
	ArtifactsDir     string
	BestByGeneration []float64
}

type ReplayRequest struct {
	RunID  string
	Latest bool
	// Rank selects which leaderboard genome to replay, 1 being the best.
	Rank int
}

type ReplaySummary struct {
	RunID         string
	GenomeID      string
	Fitness       float64
	SurvivalTicks int
	WallBounces   int
	Truncated     bool
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopGenomesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type RunsRequest struct {
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:     store,
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// ensureStore initializes the store once per client. MemoryStore.Init resets
// its maps, so repeated calls would drop persisted runs.
func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if req.Scape == "" {
		req.Scape = "spikes"
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.NoElites && req.EliteCount > 0 {
		return TrainSummary{}, errors.New("no-elites and an elite count are mutually exclusive")
	}
	if req.NoElites {
		req.EliteCount = 0
	} else if req.EliteCount <= 0 {
		req.EliteCount = req.Population / 5
		if req.EliteCount < 1 {
			req.EliteCount = 1
		}
	}
	if req.MutationRate == 0 && req.MutationMagnitude == 0 {
		req.MutationRate = 0.1
		req.MutationMagnitude = 0.5
	}

	env, err := scapeFromName(req.Scape, req.CourseSeed, req.CourseApproaches, req.MaxTicks)
	if err != nil {
		return TrainSummary{}, err
	}
	selector, err := evo.SelectorByName(req.Selection)
	if err != nil {
		return TrainSummary{}, err
	}
	crossover, err := evo.CrossoverByName(req.Crossover)
	if err != nil {
		return TrainSummary{}, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return TrainSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", req.Scape, req.Seed, now.Unix())

	recorder, err := telemetry.NewRecorder(c.outputDir, runID)
	if err != nil {
		return TrainSummary{}, err
	}
	defer recorder.Close()

	logger := c.logger.With("run_id", runID, "scape", req.Scape)
	logger.Info("training started",
		"population", req.Population,
		"generations", req.Generations,
		"elites", req.EliteCount,
		"seed", req.Seed,
	)

	trainer, err := evo.NewTrainer(evo.Config{
		Scape:             env,
		PopulationSize:    req.Population,
		Generations:       req.Generations,
		EliteCount:        req.EliteCount,
		Selector:          selector,
		Crossover:         crossover,
		MutationRate:      req.MutationRate,
		MutationMagnitude: req.MutationMagnitude,
		WeightCount:       policy.WeightCount(),
		Workers:           req.Workers,
		Seed:              req.Seed,
		FitnessGoal:       req.FitnessGoal,
		PlateauWindow:     req.PlateauWindow,
		OnGeneration: func(s telemetry.GenerationStats) {
			telemetry.LogGeneration(logger, s)
			if err := recorder.RecordGeneration(s); err != nil {
				logger.Warn("record generation", "error", err)
			}
		},
	})
	if err != nil {
		return TrainSummary{}, err
	}

	result, err := trainer.Run(ctx, nil)
	if err != nil {
		return TrainSummary{}, err
	}

	if err := c.persistRun(ctx, runID, req, now, result); err != nil {
		return TrainSummary{}, err
	}
	if err := writeArtifacts(recorder, runID, result); err != nil {
		return TrainSummary{}, err
	}

	best, _ := result.Best()
	logger.Info("training finished",
		"generations", result.Generations,
		"best_fitness", best.Fitness,
		"best_genome", best.Genome.ID,
		"stop_reason", result.StopReason,
	)

	history := make([]float64, len(result.BestByGeneration))
	for i, s := range result.BestByGeneration {
		history[i] = s.Fitness
	}
	return TrainSummary{
		RunID:            runID,
		Generations:      result.Generations,
		BestFitness:      best.Fitness,
		BestGenomeID:     best.Genome.ID,
		StopReason:       result.StopReason,
		ArtifactsDir:     recorder.Dir(),
		BestByGeneration: history,
	}, nil
}

// Replay reruns a stored genome on the run's exact course and reports what
// happened. The episode is deterministic, so the outcome matches training.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) (ReplaySummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return ReplaySummary{}, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ReplaySummary{}, err
	}
	record, ok, err := c.store.GetRunRecord(ctx, runID)
	if err != nil {
		return ReplaySummary{}, err
	}
	if !ok {
		return ReplaySummary{}, fmt.Errorf("run not found: %s", runID)
	}

	rank := req.Rank
	if rank <= 0 {
		rank = 1
	}
	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return ReplaySummary{}, err
	}
	if !ok || len(top) == 0 {
		return ReplaySummary{}, fmt.Errorf("no genomes stored for run: %s", runID)
	}
	if rank > len(top) {
		return ReplaySummary{}, fmt.Errorf("rank %d exceeds stored leaderboard of %d", rank, len(top))
	}
	genome := top[rank-1].Genome

	env, err := scapeFromName(record.Scape, record.CourseSeed, record.CourseApproaches, record.MaxTicks)
	if err != nil {
		return ReplaySummary{}, err
	}
	course, maxTicks := env.Course(), env.MaxTicks()
	final, err := scape.Replay(ctx, course, maxTicks, genome.Weights)
	if err != nil {
		return ReplaySummary{}, err
	}

	return ReplaySummary{
		RunID:         runID,
		GenomeID:      genome.ID,
		Fitness:       top[rank-1].Fitness,
		SurvivalTicks: final.Ticks,
		WallBounces:   final.Bounces,
		Truncated:     final.Alive,
	}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) TopGenomes(ctx context.Context, req TopGenomesRequest) ([]model.TopGenomeRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top genomes not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	return top, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	// Newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if len(records) > req.Limit {
		records = records[:req.Limit]
	}
	return records, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", errors.New("no runs available")
	}
	return records[len(records)-1].RunID, nil
}

func (c *Client) persistRun(ctx context.Context, runID string, req TrainRequest, now time.Time, result evo.RunResult) error {
	history := make([]float64, len(result.BestByGeneration))
	for i, s := range result.BestByGeneration {
		history[i] = s.Fitness
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return err
	}
	if err := c.store.SaveGenerationStats(ctx, runID, result.Diagnostics); err != nil {
		return err
	}

	topCount := defaultTopGenomes
	if topCount > len(result.FinalPopulation) {
		topCount = len(result.FinalPopulation)
	}
	top := make([]model.TopGenomeRecord, 0, topCount)
	for i := 0; i < topCount; i++ {
		scored := result.FinalPopulation[i]
		genome := scored.Genome.Clone()
		genome.VersionedRecord = storage.Stamp()
		top = append(top, model.TopGenomeRecord{Rank: i + 1, Fitness: scored.Fitness, Genome: genome})
		if err := c.store.SaveGenome(ctx, genome); err != nil {
			return err
		}
	}
	if err := c.store.SaveTopGenomes(ctx, runID, top); err != nil {
		return err
	}

	final := model.Population{
		VersionedRecord: storage.Stamp(),
		ID:              runID + "-final",
		Generation:      result.Generations - 1,
		Genomes:         make([]model.Genome, len(result.FinalPopulation)),
	}
	for i, scored := range result.FinalPopulation {
		g := scored.Genome.Clone()
		g.VersionedRecord = storage.Stamp()
		final.Genomes[i] = g
	}
	if err := c.store.SavePopulation(ctx, final); err != nil {
		return err
	}

	best, _ := result.Best()
	return c.store.SaveRunRecord(ctx, model.RunRecord{
		VersionedRecord:  storage.Stamp(),
		RunID:            runID,
		CreatedAtUTC:     model.FormatCreatedAt(now),
		Scape:            req.Scape,
		Seed:             req.Seed,
		CourseSeed:       req.CourseSeed,
		CourseApproaches: req.CourseApproaches,
		MaxTicks:         req.MaxTicks,
		Population:       req.Population,
		Generations:      result.Generations,
		BestFitness:      best.Fitness,
		StopReason:       result.StopReason,
	})
}

func writeArtifacts(recorder *telemetry.Recorder, runID string, result evo.RunResult) error {
	best, ok := result.Best()
	if !ok {
		return nil
	}
	genome := best.Genome.Clone()
	genome.VersionedRecord = storage.Stamp()
	if err := recorder.WriteJSON("best_genome.json", genome); err != nil {
		return err
	}
	return recorder.WriteJSON("run.json", map[string]any{
		"run_id":       runID,
		"generations":  result.Generations,
		"best_fitness": best.Fitness,
		"best_genome":  best.Genome.ID,
		"stop_reason":  result.StopReason,
	})
}

// replayableScape is the view of a scape the replay path needs: the exact
// course and episode cap training evaluated under.
type replayableScape interface {
	scape.Scape
	Course() sim.Course
	MaxTicks() int
}

func scapeFromName(name string, courseSeed int64, approaches, maxTicks int) (replayableScape, error) {
	switch name {
	case "", "spikes":
		return scape.NewSpikesScape(courseSeed, approaches, maxTicks), nil
	case "open-sky":
		return scape.NewOpenSkyScape(maxTicks), nil
	default:
		return nil, fmt.Errorf("unsupported scape: %s", name)
	}
}
