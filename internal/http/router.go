package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/trackflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trackflow-backend/internal/http/middleware"
)

type RouterConfig struct {
	HealthHandler     *httpH.HealthHandler
	RealtimeHandler   *httpH.RealtimeHandler
	DatasetHandler    *httpH.DatasetHandler
	PreprocessHandler *httpH.PreprocessHandler
	CombineHandler    *httpH.CombineHandler
	EnrichmentHandler *httpH.EnrichmentHandler
	JobHandler        *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/sse/stream", cfg.RealtimeHandler.Stream)
		}

		// Datasets
		if cfg.DatasetHandler != nil {
			api.POST("/datasets/upload", cfg.DatasetHandler.Upload)
			api.GET("/datasets", cfg.DatasetHandler.List)
			api.GET("/datasets/:id", cfg.DatasetHandler.Get)
		}

		// Preprocessing
		if cfg.PreprocessHandler != nil {
			api.POST("/datasets/:id/preprocess", cfg.PreprocessHandler.Start)
			api.GET("/preprocessing-jobs", cfg.PreprocessHandler.List)
			api.GET("/preprocessing-jobs/:id", cfg.PreprocessHandler.Get)
			api.GET("/preprocessing-jobs/:id/status", cfg.PreprocessHandler.Status)
			api.POST("/preprocessing-jobs/:id/cancel", cfg.PreprocessHandler.Cancel)
			api.GET("/preprocessing-jobs/:id/nodes", cfg.PreprocessHandler.DownloadNodes)
			api.GET("/preprocessing-jobs/:id/edges", cfg.PreprocessHandler.DownloadEdges)
		}

		// Combining two preprocessing runs
		if cfg.CombineHandler != nil {
			api.POST("/combined-jobs", cfg.CombineHandler.Start)
			api.GET("/combined-jobs", cfg.CombineHandler.List)
			api.GET("/combined-jobs/:id", cfg.CombineHandler.Get)
			api.GET("/combined-jobs/:id/status", cfg.CombineHandler.Status)
			api.POST("/combined-jobs/:id/cancel", cfg.CombineHandler.Cancel)
			api.GET("/combined-jobs/:id/nodes", cfg.CombineHandler.DownloadNodes)
			api.GET("/combined-jobs/:id/edges", cfg.CombineHandler.DownloadEdges)
		}

		// Playlist enrichment
		if cfg.EnrichmentHandler != nil {
			api.POST("/preprocessing-jobs/:id/enrich", cfg.EnrichmentHandler.Start)
			api.GET("/enrichment-jobs/:id", cfg.EnrichmentHandler.Get)
			api.GET("/enrichment-jobs/:id/status", cfg.EnrichmentHandler.Status)
		}

		// Job runs
		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
			api.GET("/jobs/:id/status", cfg.JobHandler.GetJobStatus)
			api.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
		}
	}

	return r
}
