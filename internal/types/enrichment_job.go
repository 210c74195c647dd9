package types

import (
	"time"

	"github.com/google/uuid"
)

// PlaylistEnrichmentJob annotates a built graph's node artifact with
// metadata fetched from the lookup service.
type PlaylistEnrichmentJob struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PreprocessingJobID uuid.UUID  `gorm:"type:uuid;not null;index" json:"preprocessing_job_id"`
	JobRunID           *uuid.UUID `gorm:"type:uuid;column:job_run_id;index" json:"job_run_id,omitempty"`
	Status             string     `gorm:"column:status;not null;index" json:"status"`
	StartedAt          time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	OutputFile         string     `gorm:"column:output_file" json:"output_file,omitempty"`
	TotalPlaylists     int        `gorm:"column:total_playlists;not null;default:0" json:"total_playlists"`
	FoundCount         int        `gorm:"column:found_count;not null;default:0" json:"found_count"`
	NotFoundCount      int        `gorm:"column:not_found_count;not null;default:0" json:"not_found_count"`
	ErrorMessage       string     `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

func (PlaylistEnrichmentJob) TableName() string { return "playlist_enrichment_job" }
