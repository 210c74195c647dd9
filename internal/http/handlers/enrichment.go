package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/http/response"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/services"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type EnrichmentHandler struct {
	log    *logger.Logger
	enrich services.EnrichmentService
	jobs   services.JobService
	status services.StatusService
}

func NewEnrichmentHandler(
	log *logger.Logger,
	enrich services.EnrichmentService,
	jobs services.JobService,
	status services.StatusService,
) *EnrichmentHandler {
	return &EnrichmentHandler{
		log:    log.With("handler", "EnrichmentHandler"),
		enrich: enrich,
		jobs:   jobs,
		status: status,
	}
}

// POST /api/preprocessing-jobs/:id/enrich
func (h *EnrichmentHandler) Start(c *gin.Context) {
	preprocessingJobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.enrich.StartEnrichment(dbc, preprocessingJobID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "start_enrichment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/enrichment-jobs/:id
func (h *EnrichmentHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.enrich.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/enrichment-jobs/:id/status
func (h *EnrichmentHandler) Status(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.enrich.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	var run *types.JobRun
	if job.JobRunID != nil {
		run, _ = h.jobs.Get(dbc, *job.JobRunID)
	}
	response.RespondOK(c, h.status.Status(run))
}
