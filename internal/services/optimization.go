package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/export"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/optimizer"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/types"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/logger"
)

var ErrInvalidRequest = errors.New("invalid optimization request")

// ResultCache stores finished results by run id and request hash
type ResultCache interface {
	SetOptimizationResult(ctx context.Context, result *models.OptimizationResult, expiration time.Duration) error
	GetOptimizationResult(ctx context.Context, runID string) (*models.OptimizationResult, error)
	SetRequestRun(ctx context.Context, hash, runID string, expiration time.Duration) error
	GetRequestResult(ctx context.Context, hash string) (*models.OptimizationResult, error)
}

// ProgressNotifier receives progress events for a run
type ProgressNotifier interface {
	BroadcastToRun(runID string, message interface{})
}

// Request is one generation run
type Request struct {
	RunID      string
	Site       models.Site
	NumLineups int
	NumUniques int
	Rules      *rules.RuleSet
	Pool       *pool.PlayerPool
}

// OptimizationService runs the compile, generate, filter and assign pipeline
type OptimizationService struct {
	solver   solver.Solver
	config   *config.Config
	logger   *logrus.Logger
	cache    ResultCache
	history  *RunHistory
	notifier ProgressNotifier
}

type Option func(*OptimizationService)

func WithCache(cache ResultCache) Option {
	return func(s *OptimizationService) { s.cache = cache }
}

func WithHistory(history *RunHistory) Option {
	return func(s *OptimizationService) { s.history = history }
}

func WithNotifier(notifier ProgressNotifier) Option {
	return func(s *OptimizationService) { s.notifier = notifier }
}

func NewOptimizationService(s solver.Solver, cfg *config.Config, logger *logrus.Logger, opts ...Option) *OptimizationService {
	svc := &OptimizationService{
		solver: s,
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *OptimizationService) validate(req Request) error {
	if req.Pool == nil || req.Pool.Len() == 0 {
		return fmt.Errorf("%w: player pool is empty", ErrInvalidRequest)
	}
	if req.Rules == nil {
		return fmt.Errorf("%w: rules are required", ErrInvalidRequest)
	}
	if req.NumLineups < 1 {
		return fmt.Errorf("%w: num_lineups must be positive", ErrInvalidRequest)
	}
	if s.config.MaxLineups > 0 && req.NumLineups > s.config.MaxLineups {
		return fmt.Errorf("%w: num_lineups exceeds limit of %d", ErrInvalidRequest, s.config.MaxLineups)
	}
	if req.NumUniques < 1 || req.NumUniques > req.Site.RosterSize() {
		return fmt.Errorf("%w: num_uniques must be between 1 and %d", ErrInvalidRequest, req.Site.RosterSize())
	}
	return nil
}

// Run generates up to NumLineups diverse lineups. Running out of feasible
// lineups is reported as a shortfall, not an error.
func (s *OptimizationService) Run(ctx context.Context, req Request) (*models.OptimizationResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	log := s.logger.WithFields(logger.RunFields(runID, req.Site.Key, req.NumLineups))

	if s.config.OptimizationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.OptimizationTimeout)
		defer cancel()
	}

	seed := req.Rules.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	compiled, err := optimizer.Compile(req.Pool, req.Rules, req.Site, log)
	if err != nil {
		s.fail(runID, err)
		return nil, err
	}

	objective := optimizer.NewObjective(req.Pool, req.Rules.Randomness, seed)
	gen := optimizer.NewGenerator(compiled, s.solver, objective, req.NumUniques, log)

	s.notify(runID, types.ProgressUpdate{
		Type:        types.ProgressTypeUpdate,
		Message:     "Starting optimization",
		CurrentStep: "generating",
		Requested:   req.NumLineups,
	})

	generated, err := gen.Generate(ctx, req.NumLineups, func(produced, requested int) {
		s.notify(runID, types.ProgressUpdate{
			Type:        types.ProgressTypeUpdate,
			Progress:    float64(produced) / float64(requested),
			Message:     fmt.Sprintf("Generated lineup %d of %d", produced, requested),
			CurrentStep: "generating",
			Produced:    produced,
			Requested:   requested,
		})
	})
	warnings := compiled.Warnings
	stopReason := ""
	if err != nil {
		if generated == nil || len(generated.Lineups) == 0 {
			log.WithError(err).Error("Lineup generation failed")
			s.fail(runID, err)
			return nil, fmt.Errorf("lineup generation failed: %w", err)
		}
		// keep what was produced; the rest is reported as shortfall
		stopReason = err.Error()
		warnings = append(append([]string(nil), warnings...),
			fmt.Sprintf("generation stopped after %d of %d lineups: %v", len(generated.Lineups), req.NumLineups, err))
		log.WithError(err).WithField("produced", len(generated.Lineups)).Warn("Lineup generation stopped early")

		// the run context may already be done
		ctx = context.WithoutCancel(ctx)
	}

	lineups, duplicates := optimizer.CollapseDuplicates(generated.Lineups)
	lineups, similar := optimizer.FilterUnique(lineups, req.Site.RosterSize(), req.NumUniques)
	if duplicates > 0 || similar > 0 {
		log.WithFields(logrus.Fields{
			"duplicates": duplicates,
			"similar":    similar,
		}).Info("Removed repeated lineups")
	}

	s.notify(runID, types.ProgressUpdate{
		Type:        types.ProgressTypeUpdate,
		Progress:    1,
		Message:     "Assigning roster slots",
		CurrentStep: "assigning",
		Produced:    len(lineups),
		Requested:   req.NumLineups,
	})

	assigned, dropped, err := optimizer.AssignLineups(ctx, lineups, req.Site, s.config.SlotWorkers, seed, log)
	if err != nil {
		s.fail(runID, err)
		return nil, fmt.Errorf("slot assignment failed: %w", err)
	}
	for i := range assigned {
		assigned[i].Stats = export.Aggregate(assigned[i])
	}

	exposure := optimizer.GenerateExposureReport(assigned)

	result := &models.OptimizationResult{
		RunID:            runID,
		Site:             req.Site.Key,
		Requested:        req.NumLineups,
		Generated:        len(generated.Lineups),
		Delivered:        len(assigned),
		Shortfall:        req.NumLineups - len(assigned),
		DroppedOnAssign:  dropped,
		RemovedAsSimilar: duplicates + similar,
		Lineups:          assigned,
		Exposures:        exposure.PlayerExposures,
		Warnings:         warnings,
		StopReason:       stopReason,
		ElapsedMillis:    time.Since(start).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	log.WithFields(logrus.Fields{
		"generated":  result.Generated,
		"delivered":  result.Delivered,
		"shortfall":  result.Shortfall,
		"elapsed_ms": result.ElapsedMillis,
	}).Info("Optimization completed")

	s.store(ctx, result, req, seed, log)

	s.notify(runID, types.ProgressUpdate{
		Type:        types.ProgressTypeComplete,
		Progress:    1,
		Message:     fmt.Sprintf("Optimization completed! Delivered %d of %d lineups", result.Delivered, result.Requested),
		CurrentStep: "completed",
		Produced:    result.Delivered,
		Requested:   result.Requested,
	})

	return result, nil
}

// store writes the result to the cache and the run history. Failures are
// logged and never fail the run.
func (s *OptimizationService) store(ctx context.Context, result *models.OptimizationResult, req Request, seed uint64, log *logrus.Entry) {
	if s.cache != nil {
		if err := s.cache.SetOptimizationResult(ctx, result, s.config.CacheTTL); err != nil {
			log.WithError(err).Warn("Failed to cache optimization result")
		}
	}

	if s.history == nil {
		return
	}
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		log.WithError(err).Warn("Run id is not a uuid, skipping history")
		return
	}
	run := &models.OptimizationRun{
		ID:         id,
		Site:       result.Site,
		Requested:  result.Requested,
		Delivered:  result.Delivered,
		Shortfall:  result.Shortfall,
		NumUniques: req.NumUniques,
		Seed:       seed,
		ElapsedMs:  result.ElapsedMillis,
		Lineups:    datatypes.NewJSONType(result.Lineups),
		CreatedAt:  result.CreatedAt,
	}
	if err := s.history.Save(ctx, run); err != nil {
		log.WithError(err).Warn("Failed to save optimization run")
	}
}

// CachedRequest returns the result of an earlier identical request, if cached
func (s *OptimizationService) CachedRequest(ctx context.Context, hash string) (*models.OptimizationResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	result, err := s.cache.GetRequestResult(ctx, hash)
	if err != nil {
		return nil, false
	}
	return result, true
}

// RememberRequest maps a request hash to the run that answered it
func (s *OptimizationService) RememberRequest(ctx context.Context, hash, runID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetRequestRun(ctx, hash, runID, s.config.CacheTTL); err != nil {
		s.logger.WithError(err).WithField("run_id", runID).Warn("Failed to cache request hash")
	}
}

// GetResult looks a run up in the cache, then in the run history
func (s *OptimizationService) GetResult(ctx context.Context, runID string) (*models.OptimizationResult, error) {
	if s.cache != nil {
		if result, err := s.cache.GetOptimizationResult(ctx, runID); err == nil {
			return result, nil
		}
	}

	if s.history == nil {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	run, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	lineups := run.Lineups.Data()
	return &models.OptimizationResult{
		RunID:         run.ID.String(),
		Site:          run.Site,
		Requested:     run.Requested,
		Generated:     run.Delivered,
		Delivered:     run.Delivered,
		Shortfall:     run.Shortfall,
		Lineups:       lineups,
		Exposures:     optimizer.GenerateExposureReport(lineups).PlayerExposures,
		ElapsedMillis: run.ElapsedMs,
		CreatedAt:     run.CreatedAt,
	}, nil
}

// RecentRuns lists stored runs, or nothing when history is disabled
func (s *OptimizationService) RecentRuns(ctx context.Context, limit int) ([]models.OptimizationRun, error) {
	if s.history == nil {
		return []models.OptimizationRun{}, nil
	}
	return s.history.Recent(ctx, limit)
}

func (s *OptimizationService) notify(runID string, update types.ProgressUpdate) {
	if s.notifier == nil {
		return
	}
	update.RunID = runID
	update.Timestamp = time.Now()
	s.notifier.BroadcastToRun(runID, update)
}

func (s *OptimizationService) fail(runID string, err error) {
	s.notify(runID, types.ProgressUpdate{
		Type:        types.ProgressTypeFailed,
		Message:     err.Error(),
		CurrentStep: "failed",
	})
}
