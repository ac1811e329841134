package models

// SolveJobStatus captures background solve lifecycle states.
type SolveJobStatus string

const (
	SolveJobQueued     SolveJobStatus = "QUEUED"
	SolveJobProcessing SolveJobStatus = "PROCESSING"
	SolveJobFinished   SolveJobStatus = "FINISHED"
	SolveJobFailed     SolveJobStatus = "FAILED"
)

// Terminal reports whether the status can no longer change. Failed jobs are
// never retried; a failed solve is a final answer about the input.
func (s SolveJobStatus) Terminal() bool {
	return s == SolveJobFinished || s == SolveJobFailed
}
