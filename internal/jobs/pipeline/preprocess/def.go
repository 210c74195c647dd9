package preprocess

import (
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/storage"
)

type Pipeline struct {
	db  *gorm.DB
	log *logger.Logger

	datasets repos.DatasetRepo
	preJobs  repos.PreprocessingJobRepo
	store    storage.Store
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	datasets repos.DatasetRepo,
	preJobs repos.PreprocessingJobRepo,
	store storage.Store,
) *Pipeline {
	return &Pipeline{
		db:       db,
		log:      baseLog.With("job", "preprocess"),
		datasets: datasets,
		preJobs:  preJobs,
		store:    store,
	}
}

func (p *Pipeline) Type() string { return "preprocess" }
