package combine

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
	combined repos.CombinedJobRepo
	store    storage.Store
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	datasets repos.DatasetRepo,
	preJobs repos.PreprocessingJobRepo,
	combined repos.CombinedJobRepo,
	store storage.Store,
) *Pipeline {
	return &Pipeline{
		db:       db,
		log:      baseLog.With("job", "combine"),
		datasets: datasets,
		preJobs:  preJobs,
		combined: combined,
		store:    store,
	}
}

func (p *Pipeline) Type() string { return "combine" }
