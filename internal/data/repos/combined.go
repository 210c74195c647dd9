package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type CombinedJobRepo interface {
	Create(dbc dbctx.Context, job *types.CombinedPreprocessingJob) (*types.CombinedPreprocessingJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CombinedPreprocessingJob, error)
	List(dbc dbctx.Context, limit int) ([]*types.CombinedPreprocessingJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type combinedJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCombinedJobRepo(db *gorm.DB, baseLog *logger.Logger) CombinedJobRepo {
	return &combinedJobRepo{db: db, log: baseLog.With("repo", "CombinedJobRepo")}
}

func (r *combinedJobRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *combinedJobRepo) Create(dbc dbctx.Context, job *types.CombinedPreprocessingJob) (*types.CombinedPreprocessingJob, error) {
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

func (r *combinedJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CombinedPreprocessingJob, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.CombinedPreprocessingJob
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

func (r *combinedJobRepo) List(dbc dbctx.Context, limit int) ([]*types.CombinedPreprocessingJob, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.CombinedPreprocessingJob
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *combinedJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CombinedPreprocessingJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}
