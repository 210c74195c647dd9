package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/http/response"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/services"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type CombineHandler struct {
	log     *logger.Logger
	combine services.CombineService
	jobs    services.JobService
	status  services.StatusService
	store   storage.Store
}

func NewCombineHandler(
	log *logger.Logger,
	combine services.CombineService,
	jobs services.JobService,
	status services.StatusService,
	store storage.Store,
) *CombineHandler {
	return &CombineHandler{
		log:     log.With("handler", "CombineHandler"),
		combine: combine,
		jobs:    jobs,
		status:  status,
		store:   store,
	}
}

type startCombineRequest struct {
	FirstJobID  uuid.UUID `json:"first_job_id" binding:"required"`
	SecondJobID uuid.UUID `json:"second_job_id" binding:"required"`
}

// POST /api/combined-jobs
//
// The pair is ordered: the first job is treated as the older era of the
// merged graph and the second as the newer one.
func (h *CombineHandler) Start(c *gin.Context) {
	var req startCombineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.combine.StartCombine(dbc, req.FirstJobID, req.SecondJobID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "start_combine_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/combined-jobs
func (h *CombineHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	list, err := h.combine.ListJobs(dbc, parseLimit(c, 50))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_jobs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": list})
}

// GET /api/combined-jobs/:id
func (h *CombineHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.combine.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/combined-jobs/:id/status
func (h *CombineHandler) Status(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.combine.GetJob(dbc, jobID)
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

// POST /api/combined-jobs/:id/cancel
func (h *CombineHandler) Cancel(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.combine.CancelJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "cancel_job_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/combined-jobs/:id/nodes
func (h *CombineHandler) DownloadNodes(c *gin.Context) {
	h.downloadArtifact(c, func(job *types.CombinedPreprocessingJob) string { return job.NodesFile })
}

// GET /api/combined-jobs/:id/edges
func (h *CombineHandler) DownloadEdges(c *gin.Context) {
	h.downloadArtifact(c, func(job *types.CombinedPreprocessingJob) string { return job.EdgesFile })
}

func (h *CombineHandler) downloadArtifact(c *gin.Context, pick func(*types.CombinedPreprocessingJob) string) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.combine.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	streamArtifact(c, h.store, pick(job))
}
