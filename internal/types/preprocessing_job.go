package types

import (
	"time"

	"github.com/google/uuid"
)

// PreprocessingJob tracks one dataset-to-graph build and its artifacts.
type PreprocessingJob struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"dataset_id"`
	JobRunID     *uuid.UUID `gorm:"type:uuid;column:job_run_id;index" json:"job_run_id,omitempty"`
	Status       string     `gorm:"column:status;not null;index" json:"status"`
	StartedAt    time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	EdgesFile    string     `gorm:"column:edges_file" json:"edges_file,omitempty"`
	NodesFile    string     `gorm:"column:nodes_file" json:"nodes_file,omitempty"`
	InitialNodes int        `gorm:"column:initial_nodes;not null;default:0" json:"initial_nodes"`
	InitialEdges int        `gorm:"column:initial_edges;not null;default:0" json:"initial_edges"`
	FinalNodes   int        `gorm:"column:final_nodes;not null;default:0" json:"final_nodes"`
	FinalEdges   int        `gorm:"column:final_edges;not null;default:0" json:"final_edges"`
	WindowCount  int        `gorm:"column:window_count;not null;default:0" json:"window_count"`
	ErrorMessage string     `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (PreprocessingJob) TableName() string { return "preprocessing_job" }
