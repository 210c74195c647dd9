package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/dataset"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/types"
)

const JobTypePreprocess = "preprocess"

type PreprocessService interface {
	UploadDataset(dbc dbctx.Context, filename string, r io.Reader) (*types.UploadedDataset, error)
	ListDatasets(dbc dbctx.Context, limit int) ([]*types.UploadedDataset, error)
	GetDataset(dbc dbctx.Context, datasetID uuid.UUID) (*types.UploadedDataset, error)
	StartPreprocessing(dbc dbctx.Context, datasetID uuid.UUID) (*types.PreprocessingJob, error)
	GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PreprocessingJob, error)
	ListJobs(dbc dbctx.Context, limit int) ([]*types.PreprocessingJob, error)
	CancelJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PreprocessingJob, error)
}

type preprocessService struct {
	db       *gorm.DB
	log      *logger.Logger
	datasets repos.DatasetRepo
	preJobs  repos.PreprocessingJobRepo
	store    storage.Store
	jobs     JobService
}

func NewPreprocessService(
	db *gorm.DB,
	baseLog *logger.Logger,
	datasets repos.DatasetRepo,
	preJobs repos.PreprocessingJobRepo,
	store storage.Store,
	jobs JobService,
) PreprocessService {
	return &preprocessService{
		db:       db,
		log:      baseLog.With("service", "PreprocessService"),
		datasets: datasets,
		preJobs:  preJobs,
		store:    store,
		jobs:     jobs,
	}
}

// UploadDataset validates the CSV before anything is persisted. A file that
// fails column or date validation never produces a dataset row or a stored
// object.
func (s *preprocessService) UploadDataset(dbc dbctx.Context, filename string, r io.Reader) (*types.UploadedDataset, error) {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("missing filename")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("unsupported file type %q (expected .csv)", filepath.Ext(filename))
	}
	if r == nil {
		return nil, fmt.Errorf("missing file body")
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	records, err := dataset.ReadRecords(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("invalid dataset: no rows")
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("datasets/%s_%s", now.Format("20060102_150405"), filename)
	if err := s.store.Write(ctxOf(dbc), key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	ds := &types.UploadedDataset{
		ID:         uuid.New(),
		Filename:   filename,
		StorageKey: key,
		SizeBytes:  int64(len(raw)),
		RowCount:   len(records),
	}
	if min, max, ok := dataset.DateRange(records); ok {
		ds.StartDate = &min
		ds.EndDate = &max
	}
	if _, err := s.datasets.Create(s.repoCtx(dbc), ds); err != nil {
		// The stored object is orphaned at this point; remove it so retries
		// don't accumulate unreferenced uploads.
		_ = s.store.Delete(ctxOf(dbc), key)
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	s.log.Info("Dataset uploaded", "dataset_id", ds.ID, "filename", filename, "rows", ds.RowCount)
	return ds, nil
}

func (s *preprocessService) ListDatasets(dbc dbctx.Context, limit int) ([]*types.UploadedDataset, error) {
	return s.datasets.List(s.repoCtx(dbc), limit)
}

func (s *preprocessService) GetDataset(dbc dbctx.Context, datasetID uuid.UUID) (*types.UploadedDataset, error) {
	if datasetID == uuid.Nil {
		return nil, fmt.Errorf("missing dataset id")
	}
	ds, err := s.datasets.GetByID(s.repoCtx(dbc), datasetID)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("dataset not found")
	}
	return ds, nil
}

func (s *preprocessService) StartPreprocessing(dbc dbctx.Context, datasetID uuid.UUID) (*types.PreprocessingJob, error) {
	ds, err := s.GetDataset(dbc, datasetID)
	if err != nil {
		return nil, err
	}

	repoCtx := s.repoCtx(dbc)
	active, err := s.preJobs.HasActiveForDataset(repoCtx, ds.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("preprocessing already in progress for dataset %s", ds.ID)
	}

	job := &types.PreprocessingJob{
		ID:        uuid.New(),
		DatasetID: ds.ID,
		Status:    types.JobStatusPending,
	}
	if _, err := s.preJobs.Create(repoCtx, job); err != nil {
		return nil, fmt.Errorf("create preprocessing job: %w", err)
	}

	entityID := job.ID
	run, err := s.jobs.Enqueue(dbc, JobTypePreprocess, "preprocessing_job", &entityID, map[string]any{
		"preprocessing_job_id": job.ID.String(),
		"dataset_id":           ds.ID.String(),
	})
	if err != nil {
		_ = s.preJobs.UpdateFields(repoCtx, job.ID, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error_message": err.Error(),
		})
		return nil, err
	}

	runID := run.ID
	job.JobRunID = &runID
	if err := s.preJobs.UpdateFields(repoCtx, job.ID, map[string]interface{}{"job_run_id": runID}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *preprocessService) GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PreprocessingJob, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("missing job id")
	}
	job, err := s.preJobs.GetByID(s.repoCtx(dbc), jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("preprocessing job not found")
	}
	return job, nil
}

func (s *preprocessService) ListJobs(dbc dbctx.Context, limit int) ([]*types.PreprocessingJob, error) {
	return s.preJobs.List(s.repoCtx(dbc), limit)
}

func (s *preprocessService) CancelJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PreprocessingJob, error) {
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
	if err := s.preJobs.UpdateFields(s.repoCtx(dbc), job.ID, map[string]interface{}{
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

func (s *preprocessService) repoCtx(dbc dbctx.Context) dbctx.Context {
	if dbc.Tx != nil {
		return dbc
	}
	return dbctx.Context{Ctx: dbc.Ctx, Tx: s.db}
}

func ctxOf(dbc dbctx.Context) context.Context {
	if dbc.Ctx != nil {
		return dbc.Ctx
	}
	return context.Background()
}
