package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

func TestExportServiceExportCSV(t *testing.T) {
	runner := &solveRunnerStub{output: exportScheduleFixture()}
	svc := NewExportService(runner, nil, nil, zap.NewNop())

	result, err := svc.Export(context.Background(), exportInputFixture(), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "schedule_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "courseId,instructorId,roomId,startSlot,endSlot,morning", lines[0])
	assert.Equal(t, "101,7,1,0,1,yes", lines[1])
	assert.Equal(t, "202,9,1,3,5,no", lines[2])
}

func TestExportServiceExportPDF(t *testing.T) {
	runner := &solveRunnerStub{output: exportScheduleFixture()}
	svc := NewExportService(runner, nil, nil, zap.NewNop())

	result, err := svc.Export(context.Background(), exportInputFixture(), ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	require.NotEmpty(t, result.Payload)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportServiceExportFormatCaseInsensitive(t *testing.T) {
	runner := &solveRunnerStub{output: exportScheduleFixture()}
	svc := NewExportService(runner, nil, nil, zap.NewNop())

	result, err := svc.Export(context.Background(), exportInputFixture(), ExportFormat(" CSV "))
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
}

func TestExportServiceExportUnsupportedFormat(t *testing.T) {
	runner := &solveRunnerStub{output: exportScheduleFixture()}
	svc := NewExportService(runner, nil, nil, zap.NewNop())

	_, err := svc.Export(context.Background(), exportInputFixture(), ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, runner.calls, "format is checked before solving")
}

func TestExportServiceExportSolveFailurePassesThrough(t *testing.T) {
	runner := &solveRunnerStub{err: appErrors.ErrNoCandidates}
	svc := NewExportService(runner, nil, nil, zap.NewNop())

	_, err := svc.Export(context.Background(), exportInputFixture(), ExportFormatCSV)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoCandidates))
}

func TestExportServiceDatasetToleratesUnknownCourse(t *testing.T) {
	runner := &solveRunnerStub{output: &dto.SchedulingOutput{
		Assignments:          []dto.Assignment{{CourseID: 999, RoomID: 1, StartSlot: 0}},
		Score:                1,
		UnmetSoftConstraints: []dto.UnmetSoftConstraint{},
	}}
	svc := NewExportService(runner, nil, nil, zap.NewNop())

	result, err := svc.Export(context.Background(), exportInputFixture(), ExportFormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 2)
	// Instructor and end slot stay blank when the course is not in the input.
	assert.Equal(t, "999,,1,0,,yes", lines[1])
}

// --- Fixtures ---

func exportInputFixture() dto.SchedulingInput {
	return dto.SchedulingInput{
		Rooms: []dto.Room{{ID: 1, Capacity: 40}},
		Courses: []dto.Course{
			{ID: 101, InstructorID: 7, DurationSlots: 1, RequiredCapacity: 20},
			{ID: 202, InstructorID: 9, DurationSlots: 2, RequiredCapacity: 20},
		},
		Instructors:    []dto.Instructor{{ID: 7}, {ID: 9}},
		TotalTimeslots: 6,
	}
}

func exportScheduleFixture() *dto.SchedulingOutput {
	return &dto.SchedulingOutput{
		Assignments: []dto.Assignment{
			{CourseID: 101, RoomID: 1, StartSlot: 0},
			{CourseID: 202, RoomID: 1, StartSlot: 3},
		},
		Score: 0,
		UnmetSoftConstraints: []dto.UnmetSoftConstraint{
			{ConstraintType: "Prefer Mornings", Description: "Course 202 is scheduled at slot 3, which is not in the morning. Morning starts at 6 am (slot 0) and ends at 12 pm (slot 6)"},
		},
	}
}
