package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type PreprocessingJobRepo interface {
	Create(dbc dbctx.Context, job *types.PreprocessingJob) (*types.PreprocessingJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PreprocessingJob, error)
	List(dbc dbctx.Context, limit int) ([]*types.PreprocessingJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	HasActiveForDataset(dbc dbctx.Context, datasetID uuid.UUID) (bool, error)
}

type preprocessingJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreprocessingJobRepo(db *gorm.DB, baseLog *logger.Logger) PreprocessingJobRepo {
	return &preprocessingJobRepo{db: db, log: baseLog.With("repo", "PreprocessingJobRepo")}
}

func (r *preprocessingJobRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *preprocessingJobRepo) Create(dbc dbctx.Context, job *types.PreprocessingJob) (*types.PreprocessingJob, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	if job.Status == "" {
		job.Status = types.JobStatusPending
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = now
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if err := r.conn(dbc).WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *preprocessingJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PreprocessingJob, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.PreprocessingJob
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *preprocessingJobRepo) List(dbc dbctx.Context, limit int) ([]*types.PreprocessingJob, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.PreprocessingJob
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *preprocessingJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.conn(dbc).WithContext(dbc.Ctx).
		Model(&types.PreprocessingJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *preprocessingJobRepo) HasActiveForDataset(dbc dbctx.Context, datasetID uuid.UUID) (bool, error) {
	if datasetID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Model(&types.PreprocessingJob{}).
		Where("dataset_id = ? AND status IN ?", datasetID, []string{types.JobStatusPending, types.JobStatusProcessing}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
