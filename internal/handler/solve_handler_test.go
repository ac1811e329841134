package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

type solveServiceMock struct {
	captured dto.SchedulingInput
	output   *dto.SchedulingOutput
	err      error
}

func (m *solveServiceMock) Solve(ctx context.Context, input dto.SchedulingInput) (*dto.SchedulingOutput, error) {
	m.captured = input
	return m.output, m.err
}

type jobManagerMock struct {
	submitResp *dto.SolveJobResponse
	submitErr  error
	statusResp *dto.SolveJobStatusResponse
	statusErr  error
}

func (m *jobManagerMock) Submit(ctx context.Context, input dto.SchedulingInput) (*dto.SolveJobResponse, error) {
	return m.submitResp, m.submitErr
}

func (m *jobManagerMock) Status(ctx context.Context, jobID string) (*dto.SolveJobStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestSolveHandlerSolveSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &solveServiceMock{output: &dto.SchedulingOutput{
		Assignments:          []dto.Assignment{{CourseID: 101, RoomID: 1, StartSlot: 0}},
		Score:                1,
		UnmetSoftConstraints: []dto.UnmetSoftConstraint{},
	}}
	handler := &SolveHandler{solver: mockSvc}

	c, w := newGinContext(http.MethodPost, "/schedule/solve", validSchedulingPayload())
	handler.Solve(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, uint32(4), mockSvc.captured.TotalTimeslots)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
	require.Contains(t, w.Body.String(), `"courseId":101`)
}

func TestSolveHandlerSolveMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SolveHandler{solver: &solveServiceMock{}}

	c, w := newGinContext(http.MethodPost, "/schedule/solve", []byte(`{"rooms":`))
	handler.Solve(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrValidation.Code)
}

func TestSolveHandlerSolveInfeasibleProblem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SolveHandler{solver: &solveServiceMock{err: appErrors.ErrNoCandidates}}

	c, w := newGinContext(http.MethodPost, "/schedule/solve", validSchedulingPayload())
	handler.Solve(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "EMPTY_CANDIDATE_SET")
}

func TestSolveHandlerSolveAsyncAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &jobManagerMock{submitResp: &dto.SolveJobResponse{JobID: "job-1", Status: models.SolveJobQueued}}
	handler := &SolveHandler{solver: &solveServiceMock{}, jobs: jobs}

	c, w := newGinContext(http.MethodPost, "/schedule/solve/async", validSchedulingPayload())
	handler.SolveAsync(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Contains(t, w.Body.String(), `"jobId":"job-1"`)
	require.Contains(t, w.Body.String(), `"QUEUED"`)
}

func TestSolveHandlerSolveAsyncQueueFull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &jobManagerMock{submitErr: appErrors.New("QUEUE_FULL", http.StatusServiceUnavailable, "solve queue is full, retry later")}
	handler := &SolveHandler{solver: &solveServiceMock{}, jobs: jobs}

	c, w := newGinContext(http.MethodPost, "/schedule/solve/async", validSchedulingPayload())
	handler.SolveAsync(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "QUEUE_FULL")
}

func TestSolveHandlerSolveAsyncDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SolveHandler{solver: &solveServiceMock{}}

	c, w := newGinContext(http.MethodPost, "/schedule/solve/async", validSchedulingPayload())
	handler.SolveAsync(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "JOBS_DISABLED")
}

func TestSolveHandlerJobStatusFinished(t *testing.T) {
	gin.SetMode(gin.TestMode)
	finished := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	jobs := &jobManagerMock{statusResp: &dto.SolveJobStatusResponse{
		JobID:       "job-1",
		Status:      models.SolveJobFinished,
		SubmittedAt: finished.Add(-time.Second),
		FinishedAt:  &finished,
		Result: &dto.SchedulingOutput{
			Assignments:          []dto.Assignment{{CourseID: 101, RoomID: 1, StartSlot: 0}},
			Score:                1,
			UnmetSoftConstraints: []dto.UnmetSoftConstraint{},
		},
	}}
	handler := &SolveHandler{solver: &solveServiceMock{}, jobs: jobs}

	c, w := newGinContext(http.MethodGet, "/schedule/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	handler.JobStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"FINISHED"`)
	require.Contains(t, w.Body.String(), `"courseId":101`)
}

func TestSolveHandlerJobStatusUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &jobManagerMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "solve job not found or expired")}
	handler := &SolveHandler{solver: &solveServiceMock{}, jobs: jobs}

	c, w := newGinContext(http.MethodGet, "/schedule/jobs/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.JobStatus(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrNotFound.Code)
}

func validSchedulingPayload() []byte {
	return []byte(`{"rooms":[{"id":1,"capacity":30}],"courses":[{"id":101,"instructorId":7,"durationSlots":1,"requiredCapacity":20}],"instructors":[{"id":7,"unavailableSlots":[]}],"totalTimeslots":4}`)
}
