package types

import (
	"time"

	"github.com/google/uuid"
)

// CombinedPreprocessingJob merges two completed preprocessing graphs.
// The pairing is ordered: the first job is the chronologically earlier
// dataset and its exclusive nodes are tagged era "old".
type CombinedPreprocessingJob struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirstJobID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"first_job_id"`
	SecondJobID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"second_job_id"`
	JobRunID        *uuid.UUID `gorm:"type:uuid;column:job_run_id;index" json:"job_run_id,omitempty"`
	Status          string     `gorm:"column:status;not null;index" json:"status"`
	StartedAt       time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	NodesFile       string     `gorm:"column:nodes_file" json:"nodes_file,omitempty"`
	EdgesFile       string     `gorm:"column:edges_file" json:"edges_file,omitempty"`
	TotalNodes      int        `gorm:"column:total_nodes;not null;default:0" json:"total_nodes"`
	TotalEdges      int        `gorm:"column:total_edges;not null;default:0" json:"total_edges"`
	NodesOnlyFirst  int        `gorm:"column:nodes_only_first;not null;default:0" json:"nodes_only_first"`
	NodesOnlySecond int        `gorm:"column:nodes_only_second;not null;default:0" json:"nodes_only_second"`
	SharedNodes     int        `gorm:"column:shared_nodes;not null;default:0" json:"shared_nodes"`
	FirstStartDate  *time.Time `gorm:"column:first_start_date" json:"first_start_date,omitempty"`
	FirstEndDate    *time.Time `gorm:"column:first_end_date" json:"first_end_date,omitempty"`
	SecondStartDate *time.Time `gorm:"column:second_start_date" json:"second_start_date,omitempty"`
	SecondEndDate   *time.Time `gorm:"column:second_end_date" json:"second_end_date,omitempty"`
	ErrorMessage    string     `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (CombinedPreprocessingJob) TableName() string { return "combined_preprocessing_job" }
