package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/jobs/pipeline/combine"
	"github.com/yungbote/trackflow-backend/internal/jobs/pipeline/enrich"
	"github.com/yungbote/trackflow-backend/internal/jobs/pipeline/preprocess"
	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/services"
	"github.com/yungbote/trackflow-backend/internal/sse"
	"github.com/yungbote/trackflow-backend/internal/storage"
)

type Services struct {
	Jobs       services.JobService
	Status     services.StatusService
	Preprocess services.PreprocessService
	Combine    services.CombineService
	Enrichment services.EnrichmentService

	Notifier jobrt.Notifier
	Registry *jobrt.Registry
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	rp *repos.Repos,
	hub *sse.Hub,
	clients Clients,
	store storage.Store,
) (Services, error) {
	notifier := services.NewJobNotifier(log, hub, clients.SSEBus)

	jobs := services.NewJobService(db, log, rp.JobRuns, notifier, clients.Temporal, cfg.Temporal.TaskQueue)
	status := services.NewStatusService(log)
	preprocessSvc := services.NewPreprocessService(db, log, rp.Datasets, rp.Preprocessing, store, jobs)
	combineSvc := services.NewCombineService(db, log, rp.Preprocessing, rp.Combined, jobs)
	enrichmentSvc := services.NewEnrichmentService(db, log, rp.Preprocessing, rp.Enrichment, jobs)

	registry := jobrt.NewRegistry()
	pipelines := []jobrt.Handler{
		preprocess.New(db, log, rp.Datasets, rp.Preprocessing, store),
		combine.New(db, log, rp.Datasets, rp.Preprocessing, rp.Combined, store),
		enrich.New(db, log, rp.Preprocessing, rp.Enrichment, store, clients.Spotify),
	}
	for _, p := range pipelines {
		if err := registry.Register(p); err != nil {
			return Services{}, err
		}
	}

	return Services{
		Jobs:       jobs,
		Status:     status,
		Preprocess: preprocessSvc,
		Combine:    combineSvc,
		Enrichment: enrichmentSvc,
		Notifier:   notifier,
		Registry:   registry,
	}, nil
}
