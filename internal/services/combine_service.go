package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

const JobTypeCombine = "combine"

type CombineService interface {
	StartCombine(dbc dbctx.Context, firstJobID, secondJobID uuid.UUID) (*types.CombinedPreprocessingJob, error)
	GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.CombinedPreprocessingJob, error)
	ListJobs(dbc dbctx.Context, limit int) ([]*types.CombinedPreprocessingJob, error)
	CancelJob(dbc dbctx.Context, jobID uuid.UUID) (*types.CombinedPreprocessingJob, error)
}

type combineService struct {
	db       *gorm.DB
	log      *logger.Logger
	preJobs  repos.PreprocessingJobRepo
	combined repos.CombinedJobRepo
	jobs     JobService
}

func NewCombineService(
	db *gorm.DB,
	baseLog *logger.Logger,
	preJobs repos.PreprocessingJobRepo,
	combined repos.CombinedJobRepo,
	jobs JobService,
) CombineService {
	return &combineService{
		db:       db,
		log:      baseLog.With("service", "CombineService"),
		preJobs:  preJobs,
		combined: combined,
		jobs:     jobs,
	}
}

// StartCombine is order-sensitive: the first job is treated as the
// chronologically older era when the artifacts are merged.
func (s *combineService) StartCombine(dbc dbctx.Context, firstJobID, secondJobID uuid.UUID) (*types.CombinedPreprocessingJob, error) {
	if firstJobID == uuid.Nil || secondJobID == uuid.Nil {
		return nil, fmt.Errorf("invalid preprocessing jobs")
	}
	if firstJobID == secondJobID {
		return nil, fmt.Errorf("invalid preprocessing jobs")
	}

	repoCtx := s.repoCtx(dbc)
	first, err := s.preJobs.GetByID(repoCtx, firstJobID)
	if err != nil {
		return nil, err
	}
	second, err := s.preJobs.GetByID(repoCtx, secondJobID)
	if err != nil {
		return nil, err
	}
	if first == nil || second == nil {
		return nil, fmt.Errorf("invalid preprocessing jobs")
	}
	if first.Status != types.JobStatusCompleted || second.Status != types.JobStatusCompleted {
		return nil, fmt.Errorf("invalid preprocessing jobs")
	}

	job := &types.CombinedPreprocessingJob{
		ID:          uuid.New(),
		FirstJobID:  first.ID,
		SecondJobID: second.ID,
		Status:      types.JobStatusPending,
	}
	if _, err := s.combined.Create(repoCtx, job); err != nil {
		return nil, fmt.Errorf("create combined job: %w", err)
	}

	entityID := job.ID
	run, err := s.jobs.Enqueue(dbc, JobTypeCombine, "combined_job", &entityID, map[string]any{
		"combined_job_id": job.ID.String(),
		"first_job_id":    first.ID.String(),
		"second_job_id":   second.ID.String(),
	})
	if err != nil {
		_ = s.combined.UpdateFields(repoCtx, job.ID, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error_message": err.Error(),
		})
		return nil, err
	}

	runID := run.ID
	job.JobRunID = &runID
	if err := s.combined.UpdateFields(repoCtx, job.ID, map[string]interface{}{"job_run_id": runID}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *combineService) GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.CombinedPreprocessingJob, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("missing job id")
	}
	job, err := s.combined.GetByID(s.repoCtx(dbc), jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("combined job not found")
	}
	return job, nil
}

func (s *combineService) ListJobs(dbc dbctx.Context, limit int) ([]*types.CombinedPreprocessingJob, error) {
	return s.combined.List(s.repoCtx(dbc), limit)
}

func (s *combineService) CancelJob(dbc dbctx.Context, jobID uuid.UUID) (*types.CombinedPreprocessingJob, error) {
	job, err := s.GetJob(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if types.IsTerminalStatus(job.Status) {
		return job, nil
	}
	if job.JobRunID != nil {
		if _, err := s.jobs.Cancel(dbc, *job.JobRunID); err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	if err := s.combined.UpdateFields(s.repoCtx(dbc), job.ID, map[string]interface{}{
		"status":        types.JobStatusCancelled,
		"error_message": "cancelled by caller",
		"completed_at":  now,
	}); err != nil {
		return nil, err
	}
	job.Status = types.JobStatusCancelled
	job.ErrorMessage = "cancelled by caller"
	job.CompletedAt = &now
	return job, nil
}

func (s *combineService) repoCtx(dbc dbctx.Context) dbctx.Context {
	if dbc.Tx != nil {
		return dbc
	}
	return dbctx.Context{Ctx: dbc.Ctx, Tx: s.db}
}
