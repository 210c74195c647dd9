package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type EnrichmentJobRepo interface {
	Create(dbc dbctx.Context, job *types.PlaylistEnrichmentJob) (*types.PlaylistEnrichmentJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PlaylistEnrichmentJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	HasActiveForJob(dbc dbctx.Context, preprocessingJobID uuid.UUID) (bool, error)
}

type enrichmentJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrichmentJobRepo(db *gorm.DB, baseLog *logger.Logger) EnrichmentJobRepo {
	return &enrichmentJobRepo{db: db, log: baseLog.With("repo", "EnrichmentJobRepo")}
}

func (r *enrichmentJobRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *enrichmentJobRepo) Create(dbc dbctx.Context, job *types.PlaylistEnrichmentJob) (*types.PlaylistEnrichmentJob, error) {
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

func (r *enrichmentJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PlaylistEnrichmentJob, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.PlaylistEnrichmentJob
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

func (r *enrichmentJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.PlaylistEnrichmentJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *enrichmentJobRepo) HasActiveForJob(dbc dbctx.Context, preprocessingJobID uuid.UUID) (bool, error) {
	if preprocessingJobID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Model(&types.PlaylistEnrichmentJob{}).
		Where("preprocessing_job_id = ? AND status IN ?", preprocessingJobID, []string{types.JobStatusPending, types.JobStatusProcessing}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
