package enrich

import (
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/spotify"
	"github.com/yungbote/trackflow-backend/internal/storage"
)

type Pipeline struct {
	db  *gorm.DB
	log *logger.Logger

	preJobs    repos.PreprocessingJobRepo
	enrichJobs repos.EnrichmentJobRepo
	store      storage.Store

	// nil when SPOTIFY_CLIENT_ID/SECRET are absent; runs then fail at
	// validate instead of blocking startup.
	lookup spotify.Client
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	preJobs repos.PreprocessingJobRepo,
	enrichJobs repos.EnrichmentJobRepo,
	store storage.Store,
	lookup spotify.Client,
) *Pipeline {
	return &Pipeline{
		db:         db,
		log:        baseLog.With("job", "enrich"),
		preJobs:    preJobs,
		enrichJobs: enrichJobs,
		store:      store,
		lookup:     lookup,
	}
}

func (p *Pipeline) Type() string { return "enrich" }
