package dto

import (
	"time"

	"github.com/campusplan/timetable-api/internal/models"
)

// SolveJobResponse is returned after enqueueing an asynchronous solve.
type SolveJobResponse struct {
	JobID  string                `json:"jobId"`
	Status models.SolveJobStatus `json:"status"`
}

// SolveJobStatusResponse exposes job lifecycle and, once terminal, the
// outcome. Result and Error are mutually exclusive.
type SolveJobStatusResponse struct {
	JobID       string                `json:"jobId"`
	Status      models.SolveJobStatus `json:"status"`
	SubmittedAt time.Time             `json:"submittedAt"`
	FinishedAt  *time.Time            `json:"finishedAt,omitempty"`
	Result      *SchedulingOutput     `json:"result,omitempty"`
	Error       *string               `json:"error,omitempty"`
}
