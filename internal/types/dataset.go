package types

import (
	"time"

	"github.com/google/uuid"
)

// UploadedDataset records one ingested snapshot file: CSV rows of
// track_id, playlist_id, snapshot_date.
type UploadedDataset struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Filename   string     `gorm:"column:filename;not null" json:"filename"`
	StorageKey string     `gorm:"column:storage_key;not null" json:"storage_key"`
	SizeBytes  int64      `gorm:"column:size_bytes" json:"size_bytes"`
	RowCount   int        `gorm:"column:row_count;not null;default:0" json:"row_count"`
	StartDate  *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate    *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (UploadedDataset) TableName() string { return "uploaded_dataset" }
