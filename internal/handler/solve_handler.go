package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/service"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

type scheduleSolver interface {
	Solve(ctx context.Context, input dto.SchedulingInput) (*dto.SchedulingOutput, error)
}

type solveJobManager interface {
	Submit(ctx context.Context, input dto.SchedulingInput) (*dto.SolveJobResponse, error)
	Status(ctx context.Context, jobID string) (*dto.SolveJobStatusResponse, error)
}

// SolveHandler exposes synchronous and asynchronous scheduling endpoints.
type SolveHandler struct {
	solver scheduleSolver
	jobs   solveJobManager
}

// NewSolveHandler constructs the handler. The jobs service may be nil when
// asynchronous solving is disabled.
func NewSolveHandler(solver *service.SolveService, jobs *service.JobService) *SolveHandler {
	h := &SolveHandler{solver: solver}
	if jobs != nil {
		h.jobs = jobs
	}
	return h
}

// Solve godoc
// @Summary Solve a course scheduling problem
// @Description Places every course into a room and start slot, honoring capacity, availability and overlap constraints, and maximizing morning placements.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.SchedulingInput true "Scheduling problem"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule/solve [post]
func (h *SolveHandler) Solve(c *gin.Context) {
	var input dto.SchedulingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling payload"))
		return
	}
	output, err := h.solver.Solve(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, output, nil)
}

// SolveAsync godoc
// @Summary Queue a scheduling problem for background solving
// @Description Validates the payload, enqueues a solve job and returns its ID. Poll /schedule/jobs/{id} for the outcome.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.SchedulingInput true "Scheduling problem"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedule/solve/async [post]
func (h *SolveHandler) SolveAsync(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, asyncDisabledError())
		return
	}
	var input dto.SchedulingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling payload"))
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// JobStatus godoc
// @Summary Inspect a queued solve job
// @Tags Scheduling
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/jobs/{id} [get]
func (h *SolveHandler) JobStatus(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, asyncDisabledError())
		return
	}
	id := c.Param("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "job id required"))
		return
	}
	status, err := h.jobs.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

func asyncDisabledError() error {
	return appErrors.New("JOBS_DISABLED", http.StatusServiceUnavailable, "asynchronous solving is disabled")
}
