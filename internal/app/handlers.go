package app

import (
	httpx "github.com/yungbote/trackflow-backend/internal/http"
	"github.com/yungbote/trackflow-backend/internal/http/handlers"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/sse"
	"github.com/yungbote/trackflow-backend/internal/storage"
)

func wireRouter(log *logger.Logger, svc Services, hub *sse.Hub, store storage.Store) httpx.RouterConfig {
	return httpx.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler(),
		RealtimeHandler:   handlers.NewRealtimeHandler(log, hub),
		DatasetHandler:    handlers.NewDatasetHandler(log, svc.Preprocess),
		PreprocessHandler: handlers.NewPreprocessHandler(log, svc.Preprocess, svc.Jobs, svc.Status, store),
		CombineHandler:    handlers.NewCombineHandler(log, svc.Combine, svc.Jobs, svc.Status, store),
		EnrichmentHandler: handlers.NewEnrichmentHandler(log, svc.Enrichment, svc.Jobs, svc.Status),
		JobHandler:        handlers.NewJobHandler(svc.Jobs, svc.Status),
	}
}
