package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/solver"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

func TestSolveServiceSolveSuccess(t *testing.T) {
	core := &solverCoreStub{output: solvedScheduleFixture()}
	svc := NewSolveService(core, nil, nil, nil, zap.NewNop(), SolveServiceConfig{})

	out, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	assert.Equal(t, solvedScheduleFixture(), out)
	assert.Equal(t, 1, core.calls)
}

func TestSolveServiceSolveRejectsInvalidPayload(t *testing.T) {
	core := &solverCoreStub{output: solvedScheduleFixture()}
	svc := NewSolveService(core, nil, nil, nil, zap.NewNop(), SolveServiceConfig{})

	input := schedulingInputFixture()
	input.Courses[0].DurationSlots = 0

	_, err := svc.Solve(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, core.calls, "invalid payloads must never reach the optimizer")
}

func TestSolveServiceSolveMapsEmptyCandidateSet(t *testing.T) {
	core := &solverCoreStub{err: solver.ErrNoCandidates}
	svc := NewSolveService(core, nil, nil, nil, zap.NewNop(), SolveServiceConfig{})

	_, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoCandidates))
	assert.Equal(t, 422, appErrors.FromError(err).Status)
}

func TestSolveServiceSolveMapsEngineFailure(t *testing.T) {
	core := &solverCoreStub{err: errors.New("optimization failed: model is unsatisfiable")}
	svc := NewSolveService(core, nil, nil, nil, zap.NewNop(), SolveServiceConfig{})

	_, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSolverFailure.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Contains(t, appErr.Message, "no solution found")
	assert.Contains(t, appErr.Message, "model is unsatisfiable")
}

func TestSolveServiceSolveCacheRoundTrip(t *testing.T) {
	core := &solverCoreStub{output: solvedScheduleFixture()}
	repo := newSolveCacheRepoStub()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewSolveService(core, cache, nil, nil, zap.NewNop(), SolveServiceConfig{})

	first, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	require.Equal(t, 1, core.calls)

	second, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, core.calls, "second solve must be served from cache")
}

func TestSolveServiceSolveWithoutCacheSolvesEveryTime(t *testing.T) {
	core := &solverCoreStub{output: solvedScheduleFixture()}
	svc := NewSolveService(core, nil, nil, nil, zap.NewNop(), SolveServiceConfig{})

	_, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	_, err = svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	assert.Equal(t, 2, core.calls)
}

func TestSolveServiceSolveCacheFailureFallsThroughToSolver(t *testing.T) {
	core := &solverCoreStub{output: solvedScheduleFixture()}
	repo := newSolveCacheRepoStub()
	repo.getErr = errors.New("redis down")
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewSolveService(core, cache, nil, nil, zap.NewNop(), SolveServiceConfig{})

	out, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	assert.Equal(t, solvedScheduleFixture(), out)
	assert.Equal(t, 1, core.calls)
}

func TestSolveServiceSolveRecordsMetrics(t *testing.T) {
	metrics := NewMetricsService()
	core := &solverCoreStub{output: solvedScheduleFixture(), stats: solver.SolveStats{Candidates: 4, Variables: 7, Constraints: 1}}
	svc := NewSolveService(core, nil, metrics, nil, zap.NewNop(), SolveServiceConfig{})

	_, err := svc.Solve(context.Background(), schedulingInputFixture())
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.solveTotal.WithLabelValues(SolveOutcomeSuccess)))

	core.err = solver.ErrNoCandidates
	_, err = svc.Solve(context.Background(), schedulingInputFixture())
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.solveTotal.WithLabelValues(SolveOutcomeNoCandidates)))
}

func TestSolveCacheKeyIsStableAndInputSensitive(t *testing.T) {
	first, err := solveCacheKey(schedulingInputFixture())
	require.NoError(t, err)
	again, err := solveCacheKey(schedulingInputFixture())
	require.NoError(t, err)
	assert.Equal(t, first, again)

	changed := schedulingInputFixture()
	changed.TotalTimeslots++
	other, err := solveCacheKey(changed)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

// --- Fixtures ---

func schedulingInputFixture() dto.SchedulingInput {
	return dto.SchedulingInput{
		Rooms:          []dto.Room{{ID: 1, Capacity: 30}},
		Courses:        []dto.Course{{ID: 101, InstructorID: 7, DurationSlots: 1, RequiredCapacity: 20}},
		Instructors:    []dto.Instructor{{ID: 7}},
		TotalTimeslots: 4,
	}
}

func solvedScheduleFixture() *dto.SchedulingOutput {
	return &dto.SchedulingOutput{
		Assignments:          []dto.Assignment{{CourseID: 101, RoomID: 1, StartSlot: 0}},
		Score:                1,
		UnmetSoftConstraints: []dto.UnmetSoftConstraint{},
	}
}

type solverCoreStub struct {
	output *dto.SchedulingOutput
	stats  solver.SolveStats
	err    error
	calls  int
}

func (s *solverCoreStub) Solve(_ context.Context, _ dto.SchedulingInput) (*dto.SchedulingOutput, solver.SolveStats, error) {
	s.calls++
	if s.err != nil {
		return nil, s.stats, s.err
	}
	return s.output, s.stats, nil
}

type solveCacheRepoStub struct {
	items   map[string][]byte
	getErr  error
	lastTTL time.Duration
}

func newSolveCacheRepoStub() *solveCacheRepoStub {
	return &solveCacheRepoStub{items: map[string][]byte{}}
}

func (r *solveCacheRepoStub) Get(_ context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *solveCacheRepoStub) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.items[key] = payload
	r.lastTTL = ttl
	return nil
}
