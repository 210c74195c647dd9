package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/platform/logger"
)

type Repos struct {
	JobRuns       JobRunRepo
	Datasets      DatasetRepo
	Preprocessing PreprocessingJobRepo
	Combined      CombinedJobRepo
	Enrichment    EnrichmentJobRepo
}

func New(db *gorm.DB, baseLog *logger.Logger) *Repos {
	return &Repos{
		JobRuns:       NewJobRunRepo(db, baseLog),
		Datasets:      NewDatasetRepo(db, baseLog),
		Preprocessing: NewPreprocessingJobRepo(db, baseLog),
		Combined:      NewCombinedJobRepo(db, baseLog),
		Enrichment:    NewEnrichmentJobRepo(db, baseLog),
	}
}
