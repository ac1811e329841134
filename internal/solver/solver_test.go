package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/ilp"
)

func TestSolveSingleCourseLandsInMorning(t *testing.T) {
	s := New(ilp.NewGophersatEngine(nil))

	out, stats, err := s.Solve(context.Background(), singleCourseInput())
	require.NoError(t, err)
	require.Len(t, out.Assignments, 1)

	got := out.Assignments[0]
	assert.Equal(t, dto.CourseID(101), got.CourseID)
	assert.Equal(t, dto.RoomID(1), got.RoomID)
	assert.Less(t, uint32(got.StartSlot), uint32(2), "must land before the morning cutoff")
	assert.Equal(t, 1, out.Score)
	assert.Empty(t, out.UnmetSoftConstraints)
	assert.Equal(t, 4, stats.Candidates)
}

func TestSolveCapacityStarvationFailsBeforeEngine(t *testing.T) {
	stub := &engineStub{}
	s := New(stub)

	input := singleCourseInput()
	input.Rooms = []dto.Room{{ID: 1, Capacity: 5}}

	_, stats, err := s.Solve(context.Background(), input)
	require.ErrorIs(t, err, ErrNoCandidates)
	assert.Zero(t, stub.calls, "engine must not run without candidates")
	assert.Zero(t, stats.Candidates)
}

func TestSolveOversizedDurationFailsBeforeEngine(t *testing.T) {
	stub := &engineStub{}
	s := New(stub)

	input := singleCourseInput()
	input.Courses[0].DurationSlots = 5

	_, _, err := s.Solve(context.Background(), input)
	require.ErrorIs(t, err, ErrNoCandidates)
	assert.Zero(t, stub.calls)
}

func TestSolveSharedInstructorPacksMorningsAndReportsAdjacency(t *testing.T) {
	s := New(ilp.NewGophersatEngine(nil))

	out, _, err := s.Solve(context.Background(), sharedInstructorInput())
	require.NoError(t, err)
	require.Len(t, out.Assignments, 2)

	slots := map[dto.Timeslot]bool{}
	for _, a := range out.Assignments {
		assert.Less(t, uint32(a.StartSlot), uint32(2), "morning term dominates the objective")
		slots[a.StartSlot] = true
	}
	assert.Len(t, slots, 2, "shared instructor cannot teach two courses at once")

	// Both courses sit in the morning, so the optimizer's objective never saw
	// a penalty; the independent score pass still charges the adjacency.
	assert.Equal(t, 1, out.Score)
	require.Len(t, out.UnmetSoftConstraints, 1)
	assert.Equal(t, "Avoid Back-to-Back Classes", out.UnmetSoftConstraints[0].ConstraintType)
	assert.Contains(t, out.UnmetSoftConstraints[0].Description, "has back-to-back classes")
}

func TestSolvePenaltyLinkingKeepsScheduleInThisInstance(t *testing.T) {
	base := New(ilp.NewGophersatEngine(nil))
	linked := New(ilp.NewGophersatEngine(nil), WithPenaltyLinking(true))

	plain, _, err := base.Solve(context.Background(), sharedInstructorInput())
	require.NoError(t, err)
	coupled, _, err := linked.Solve(context.Background(), sharedInstructorInput())
	require.NoError(t, err)

	// Two morning slots beat one morning plus a gap even when the adjacency
	// is actually charged, so the schedule and its score agree.
	assert.Equal(t, plain.Score, coupled.Score)
	assert.Len(t, coupled.Assignments, 2)
	for _, a := range coupled.Assignments {
		assert.Less(t, uint32(a.StartSlot), uint32(2))
	}
}

func TestSolveUnplaceableCourseIsSolverFailureNotEmptySet(t *testing.T) {
	s := New(ilp.NewGophersatEngine(nil))

	input := sharedInstructorInput()
	input.Courses[1].RequiredCapacity = 500

	_, stats, err := s.Solve(context.Background(), input)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCandidates), "one placeable course keeps the candidate set non-empty")
	assert.Contains(t, err.Error(), fmt.Sprintf("course %d", input.Courses[1].ID))
	assert.Greater(t, stats.Candidates, 0)
}

func TestSolveEngineErrorIsWrapped(t *testing.T) {
	boom := errors.New("search exploded")
	s := New(&engineStub{err: boom})

	_, _, err := s.Solve(context.Background(), singleCourseInput())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "optimization failed")
}

func TestSolveOutputIsByteReproducible(t *testing.T) {
	s := New(ilp.NewGophersatEngine(nil))

	first, _, err := s.Solve(context.Background(), reproducibilityInput())
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		again, _, err := s.Solve(context.Background(), reproducibilityInput())
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON))
	}
}

func TestSolveScriptedValuationDecodesSortedSelection(t *testing.T) {
	// Candidates for the single-course input enumerate slots 0..3 in order,
	// so selecting variable 0 pins the course to slot 0.
	stub := &engineStub{prepare: func(m *ilp.Model) ilp.Valuation {
		vals := make(ilp.Valuation, m.NumVars())
		vals[0] = 1
		return vals
	}}
	s := New(stub)

	out, _, err := s.Solve(context.Background(), singleCourseInput())
	require.NoError(t, err)
	require.Len(t, out.Assignments, 1)
	assert.Equal(t, dto.Timeslot(0), out.Assignments[0].StartSlot)
	assert.Equal(t, 1, out.Score)
	assert.NotNil(t, out.UnmetSoftConstraints)
	assert.Empty(t, out.UnmetSoftConstraints)
}

func TestSolveModelShapeForSingleCourse(t *testing.T) {
	stub := &engineStub{}
	s := New(stub)

	_, stats, err := s.Solve(context.Background(), singleCourseInput())
	require.NoError(t, err)

	// 4 candidate slots plus 3 free adjacency variables. The only row is the
	// exactly-once constraint: no room or instructor ever has two candidates
	// in one slot, and single-term overlap rows are trivially true and
	// skipped.
	assert.Equal(t, 4, stats.Candidates)
	assert.Equal(t, 7, stats.Variables)
	assert.Equal(t, 1, stats.Constraints)
}

// --- Fixtures ---

func singleCourseInput() dto.SchedulingInput {
	return dto.SchedulingInput{
		Rooms:          []dto.Room{{ID: 1, Capacity: 30}},
		Courses:        []dto.Course{{ID: 101, InstructorID: 7, DurationSlots: 1, RequiredCapacity: 20}},
		Instructors:    []dto.Instructor{{ID: 7}},
		TotalTimeslots: 4,
	}
}

func sharedInstructorInput() dto.SchedulingInput {
	return dto.SchedulingInput{
		Rooms: []dto.Room{
			{ID: 1, Capacity: 40},
			{ID: 2, Capacity: 40},
		},
		Courses: []dto.Course{
			{ID: 201, InstructorID: 9, DurationSlots: 1, RequiredCapacity: 25},
			{ID: 202, InstructorID: 9, DurationSlots: 1, RequiredCapacity: 25},
		},
		Instructors:    []dto.Instructor{{ID: 9}},
		TotalTimeslots: 4,
	}
}

func reproducibilityInput() dto.SchedulingInput {
	return dto.SchedulingInput{
		Rooms: []dto.Room{
			{ID: 1, Capacity: 60},
			{ID: 2, Capacity: 30},
		},
		Courses: []dto.Course{
			{ID: 301, InstructorID: 1, DurationSlots: 2, RequiredCapacity: 45},
			{ID: 302, InstructorID: 2, DurationSlots: 1, RequiredCapacity: 20},
			{ID: 303, InstructorID: 1, DurationSlots: 1, RequiredCapacity: 20},
		},
		Instructors: []dto.Instructor{
			{ID: 1, UnavailableSlots: []dto.Timeslot{5}},
			{ID: 2, UnavailableSlots: []dto.Timeslot{0, 1}},
		},
		TotalTimeslots: 6,
	}
}

type engineStub struct {
	prepare func(*ilp.Model) ilp.Valuation
	err     error
	calls   int
}

func (e *engineStub) Solve(_ context.Context, m *ilp.Model) (ilp.Valuation, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.prepare != nil {
		return e.prepare(m), nil
	}
	return make(ilp.Valuation, m.NumVars()), nil
}
