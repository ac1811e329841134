package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/solver"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type scheduleSolver interface {
	Solve(ctx context.Context, input dto.SchedulingInput) (*dto.SchedulingOutput, solver.SolveStats, error)
}

// SolveServiceConfig governs solve execution.
type SolveServiceConfig struct {
	MaxConcurrent int
}

// SolveService validates scheduling requests and runs them through the
// optimizer under a concurrency cap. Every solve is request-scoped; the only
// shared state is the semaphore and the optional response cache.
type SolveService struct {
	solver    scheduleSolver
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	slots     chan struct{}
}

// NewSolveService wires solve dependencies.
func NewSolveService(sol scheduleSolver, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SolveServiceConfig) *SolveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &SolveService{
		solver:    sol,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		slots:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Solve produces a schedule for the input, or a typed error explaining why
// none exists. Identical inputs return identical responses, served from
// cache when enabled.
func (s *SolveService) Solve(ctx context.Context, input dto.SchedulingInput) (*dto.SchedulingOutput, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}

	key, keyErr := solveCacheKey(input)
	if keyErr == nil && s.cache.Enabled() {
		var cached dto.SchedulingOutput
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			s.logger.Debug("solve served from cache", zap.String("key", key))
			return &cached, nil
		}
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solve canceled while waiting for a worker slot")
	}
	defer func() { <-s.slots }()

	start := time.Now()
	output, stats, err := s.solver.Solve(ctx, input)
	took := time.Since(start)
	if err != nil {
		outcome, appErr := mapSolveError(err)
		if s.metrics != nil {
			s.metrics.RecordSolve(outcome, took, stats)
		}
		s.logger.Warn("solve failed",
			zap.String("outcome", outcome),
			zap.Duration("took", took),
			zap.Error(err),
		)
		return nil, appErr
	}
	if s.metrics != nil {
		s.metrics.RecordSolve(SolveOutcomeSuccess, took, stats)
	}

	if keyErr == nil && s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, output, 0)
	}
	return output, nil
}

// solveCacheKey digests the canonical JSON encoding of the input. Struct
// field order fixes the key order, so equal inputs digest equally.
func solveCacheKey(input dto.SchedulingInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "solve:" + hex.EncodeToString(sum[:]), nil
}

// mapSolveError narrows solver failures onto the response taxonomy. An empty
// candidate set and an unsatisfiable model are different answers: the former
// never reached the engine, the latter carries the engine's explanation.
func mapSolveError(err error) (string, error) {
	if errors.Is(err, solver.ErrNoCandidates) {
		return SolveOutcomeNoCandidates, appErrors.ErrNoCandidates
	}
	return SolveOutcomeSolverFailure, appErrors.Clone(appErrors.ErrSolverFailure,
		fmt.Sprintf("%s: %v", appErrors.ErrSolverFailure.Message, err))
}
