package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/ilp"
)

// ErrNoCandidates means pre-filtering eliminated every placement before the
// engine was ever invoked.
var ErrNoCandidates = errors.New("no possible assignments found after pre-filtering")

// SolveStats summarizes one model build for observability. Stats are valid
// even when the solve fails.
type SolveStats struct {
	Candidates  int
	Variables   int
	Constraints int
}

// Solver builds and solves one scheduling model per call. All model state is
// request-scoped; the only thing calls share is the engine and its fixed
// configuration, which keeps equal inputs producing byte-equal outputs.
type Solver struct {
	engine        ilp.Engine
	linkPenalties bool
	logger        *zap.Logger
}

// Option customizes a Solver.
type Option func(*Solver)

// WithPenaltyLinking couples the adjacency penalty variables to the
// start/end indicator sums. Off by default; see SolverConfig.
func WithPenaltyLinking(enabled bool) Option {
	return func(s *Solver) { s.linkPenalties = enabled }
}

// WithLogger attaches a logger for model-build and solve tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Solver around an engine.
func New(engine ilp.Engine, opts ...Option) *Solver {
	s := &Solver{engine: engine, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs the whole pipeline: filter, model build, optimization, decode,
// score. A nil output always comes with a non-nil error; errors are
// terminal, there is no partial schedule.
func (s *Solver) Solve(ctx context.Context, input dto.SchedulingInput) (*dto.SchedulingOutput, SolveStats, error) {
	start := time.Now()
	idx := indexProblem(input)

	s.logger.Info("building scheduling model",
		zap.Int("courses", len(input.Courses)),
		zap.Int("rooms", len(input.Rooms)),
		zap.Uint32("timeslots", input.TotalTimeslots),
	)

	model := ilp.NewModel()
	reg := NewVariableRegistry(model, input, idx)
	s.logger.Debug("candidate variables generated",
		zap.Int("candidates", reg.Len()),
		zap.Int("theoretical_max", len(input.Courses)*len(input.Rooms)*int(input.TotalTimeslots)),
	)

	stats := SolveStats{Candidates: reg.Len()}
	if reg.Empty() {
		return nil, stats, ErrNoCandidates
	}

	penalties := penaltyVariables(model, reg, input, idx, s.linkPenalties)
	buildHardConstraints(model, reg, input)
	buildObjective(model, reg, input, penalties)
	stats.Variables = model.NumVars()
	stats.Constraints = len(model.Constraints())

	vals, err := s.engine.Solve(ctx, model)
	if err != nil {
		return nil, stats, fmt.Errorf("optimization failed: %w", err)
	}

	assignments := decodeAssignments(reg, vals)
	score, unmet := scoreWithIndex(assignments, input, idx)

	s.logger.Info("schedule solved",
		zap.Int("assignments", len(assignments)),
		zap.Int("score", score),
		zap.Int("unmet_soft_constraints", len(unmet)),
		zap.Duration("took", time.Since(start)),
	)

	return &dto.SchedulingOutput{
		Assignments:          assignments,
		Score:                score,
		UnmetSoftConstraints: unmet,
	}, stats, nil
}
