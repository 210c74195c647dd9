package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type DatasetRepo interface {
	Create(dbc dbctx.Context, ds *types.UploadedDataset) (*types.UploadedDataset, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UploadedDataset, error)
	List(dbc dbctx.Context, limit int) ([]*types.UploadedDataset, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type datasetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDatasetRepo(db *gorm.DB, baseLog *logger.Logger) DatasetRepo {
	return &datasetRepo{db: db, log: baseLog.With("repo", "DatasetRepo")}
}

func (r *datasetRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *datasetRepo) Create(dbc dbctx.Context, ds *types.UploadedDataset) (*types.UploadedDataset, error) {
	if ds.ID == uuid.Nil {
		ds.ID = uuid.New()
	}
	now := time.Now()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now
	if err := r.conn(dbc).WithContext(dbc.Ctx).Create(ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *datasetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UploadedDataset, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var ds types.UploadedDataset
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&ds).Error
	if err != nil {
		return nil, err
	}
	if ds.ID == uuid.Nil {
		return nil, nil
	}
	return &ds, nil
}

func (r *datasetRepo) List(dbc dbctx.Context, limit int) ([]*types.UploadedDataset, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.UploadedDataset
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *datasetRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.UploadedDataset{}).
		Where("id = ?", id).
		Updates(updates).Error
}
