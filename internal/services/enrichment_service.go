package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

const JobTypeEnrich = "enrich"

type EnrichmentService interface {
	StartEnrichment(dbc dbctx.Context, preprocessingJobID uuid.UUID) (*types.PlaylistEnrichmentJob, error)
	GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PlaylistEnrichmentJob, error)
}

type enrichmentService struct {
	db         *gorm.DB
	log        *logger.Logger
	preJobs    repos.PreprocessingJobRepo
	enrichJobs repos.EnrichmentJobRepo
	jobs       JobService
}

func NewEnrichmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	preJobs repos.PreprocessingJobRepo,
	enrichJobs repos.EnrichmentJobRepo,
	jobs JobService,
) EnrichmentService {
	return &enrichmentService{
		db:         db,
		log:        baseLog.With("service", "EnrichmentService"),
		preJobs:    preJobs,
		enrichJobs: enrichJobs,
		jobs:       jobs,
	}
}

func (s *enrichmentService) StartEnrichment(dbc dbctx.Context, preprocessingJobID uuid.UUID) (*types.PlaylistEnrichmentJob, error) {
	if preprocessingJobID == uuid.Nil {
		return nil, fmt.Errorf("missing preprocessing job id")
	}

	repoCtx := s.repoCtx(dbc)
	source, err := s.preJobs.GetByID(repoCtx, preprocessingJobID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("preprocessing job not found")
	}
	if source.Status != types.JobStatusCompleted || source.NodesFile == "" {
		return nil, fmt.Errorf("preprocessing job %s has no node artifact to enrich", source.ID)
	}

	active, err := s.enrichJobs.HasActiveForJob(repoCtx, source.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("enrichment already in progress for preprocessing job %s", source.ID)
	}

	job := &types.PlaylistEnrichmentJob{
		ID:                 uuid.New(),
		PreprocessingJobID: source.ID,
		Status:             types.JobStatusPending,
	}
	if _, err := s.enrichJobs.Create(repoCtx, job); err != nil {
		return nil, fmt.Errorf("create enrichment job: %w", err)
	}

	entityID := job.ID
	run, err := s.jobs.Enqueue(dbc, JobTypeEnrich, "enrichment_job", &entityID, map[string]any{
		"enrichment_job_id":    job.ID.String(),
		"preprocessing_job_id": source.ID.String(),
	})
	if err != nil {
		_ = s.enrichJobs.UpdateFields(repoCtx, job.ID, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error_message": err.Error(),
		})
		return nil, err
	}

	runID := run.ID
	job.JobRunID = &runID
	if err := s.enrichJobs.UpdateFields(repoCtx, job.ID, map[string]interface{}{"job_run_id": runID}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *enrichmentService) GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PlaylistEnrichmentJob, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("missing job id")
	}
	job, err := s.enrichJobs.GetByID(s.repoCtx(dbc), jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("enrichment job not found")
	}
	return job, nil
}

func (s *enrichmentService) repoCtx(dbc dbctx.Context) dbctx.Context {
	if dbc.Tx != nil {
		return dbc
	}
	return dbctx.Context{Ctx: dbc.Ctx, Tx: s.db}
}
