package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/jobs"
)

const solveJobType = "schedule_solve"

type solveRunner interface {
	Solve(ctx context.Context, input dto.SchedulingInput) (*dto.SchedulingOutput, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// JobServiceConfig governs result retention.
type JobServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// JobService runs solves asynchronously: Submit enqueues, Status polls.
// Results are held in memory until ResultTTL after completion, then
// forgotten; a restart forgets everything, which callers handle by
// resubmitting.
type JobService struct {
	runner    solveRunner
	queue     jobDispatcher
	store     *solveJobStore
	validator *validator.Validate
	logger    *zap.Logger
	cfg       JobServiceConfig
}

// NewJobService wires the async solve facade.
func NewJobService(runner solveRunner, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger, cfg JobServiceConfig) *JobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	return &JobService{
		runner:    runner,
		queue:     queue,
		store:     newSolveJobStore(cfg.ResultTTL),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// AttachQueue binds the dispatcher after construction. The queue's handler
// is this service's Handle, so the two cannot be built in one step.
func (s *JobService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// Submit validates the input and enqueues a background solve. Validation
// runs here so a malformed request fails with 400 before anything is queued.
func (s *JobService) Submit(ctx context.Context, input dto.SchedulingInput) (*dto.SolveJobResponse, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "solve queue is not attached")
	}

	record := solveJobRecord{
		ID:          uuid.NewString(),
		Status:      models.SolveJobQueued,
		SubmittedAt: time.Now().UTC(),
	}
	s.store.Save(record)

	if err := s.queue.Enqueue(jobs.Job{ID: record.ID, Type: solveJobType, Payload: input}); err != nil {
		s.store.Fail(record.ID, "solve was never started")
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.New("QUEUE_FULL", http.StatusServiceUnavailable, "solve queue is full, retry later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve job")
	}

	s.logger.Info("solve job queued", zap.String("job_id", record.ID))
	return &dto.SolveJobResponse{JobID: record.ID, Status: record.Status}, nil
}

// Status reports job lifecycle and, once terminal, the outcome.
func (s *JobService) Status(_ context.Context, jobID string) (*dto.SolveJobStatusResponse, error) {
	record, ok := s.store.Get(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "solve job not found or expired")
	}

	resp := &dto.SolveJobStatusResponse{
		JobID:       record.ID,
		Status:      record.Status,
		SubmittedAt: record.SubmittedAt,
		FinishedAt:  record.FinishedAt,
		Result:      record.Result,
	}
	if record.Err != "" {
		msg := record.Err
		resp.Error = &msg
	}
	return resp, nil
}

// Handle processes one queued solve. It always returns nil: a failed solve
// is a recorded outcome for the submitter, not a queue-level error, and the
// queue never retries.
func (s *JobService) Handle(ctx context.Context, job jobs.Job) error {
	// Payload rides the queue as interface{}; mapstructure handles both the
	// concrete struct and a decoded map form.
	var input dto.SchedulingInput
	if err := mapstructure.Decode(job.Payload, &input); err != nil {
		s.logger.Error("solve job carried an unexpected payload", zap.String("job_id", job.ID), zap.Error(err))
		s.store.Fail(job.ID, "internal error: malformed job payload")
		return nil
	}
	if !s.store.MarkProcessing(job.ID) {
		s.logger.Warn("solve job expired before processing", zap.String("job_id", job.ID))
		return nil
	}

	output, err := s.runner.Solve(ctx, input)
	if err != nil {
		s.store.Fail(job.ID, appErrors.FromError(err).Message)
		s.logger.Info("solve job failed", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	s.store.Finish(job.ID, output)
	s.logger.Info("solve job finished",
		zap.String("job_id", job.ID),
		zap.Int("assignments", len(output.Assignments)),
		zap.Int("score", output.Score),
	)
	return nil
}

// StartCleanup boots a goroutine that purges expired results periodically.
func (s *JobService) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if purged := s.store.purgeExpired(); purged > 0 {
					s.logger.Debug("purged expired solve jobs", zap.Int("count", purged))
				}
			}
		}
	}()
}

// --- Job store ---

type solveJobRecord struct {
	ID          string
	Status      models.SolveJobStatus
	SubmittedAt time.Time
	FinishedAt  *time.Time
	Result      *dto.SchedulingOutput
	Err         string
}

// solveJobStore keeps job records in memory. Only terminal records expire;
// a queued or running job stays visible however long the queue takes.
type solveJobStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]solveJobRecord
}

func newSolveJobStore(ttl time.Duration) *solveJobStore {
	return &solveJobStore{
		ttl:   ttl,
		items: make(map[string]solveJobRecord),
	}
}

func (s *solveJobStore) Save(record solveJobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[record.ID] = record
}

func (s *solveJobStore) Get(id string) (solveJobRecord, bool) {
	s.mu.RLock()
	record, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return solveJobRecord{}, false
	}
	if s.expired(record, time.Now()) {
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
		return solveJobRecord{}, false
	}
	return record, true
}

// MarkProcessing flips a queued record to processing. It reports false when
// the record no longer exists.
func (s *solveJobStore) MarkProcessing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.items[id]
	if !ok {
		return false
	}
	record.Status = models.SolveJobProcessing
	s.items[id] = record
	return true
}

func (s *solveJobStore) Finish(id string, result *dto.SchedulingOutput) {
	s.complete(id, models.SolveJobFinished, result, "")
}

func (s *solveJobStore) Fail(id string, message string) {
	s.complete(id, models.SolveJobFailed, nil, message)
}

func (s *solveJobStore) complete(id string, status models.SolveJobStatus, result *dto.SchedulingOutput, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.items[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	record.Status = status
	record.FinishedAt = &now
	record.Result = result
	record.Err = message
	s.items[id] = record
}

func (s *solveJobStore) purgeExpired() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, record := range s.items {
		if s.expired(record, now) {
			delete(s.items, id)
			purged++
		}
	}
	return purged
}

func (s *solveJobStore) expired(record solveJobRecord, now time.Time) bool {
	return record.Status.Terminal() && record.FinishedAt != nil && now.Sub(*record.FinishedAt) > s.ttl
}
