package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/http/response"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/services"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type PreprocessHandler struct {
	log        *logger.Logger
	preprocess services.PreprocessService
	jobs       services.JobService
	status     services.StatusService
	store      storage.Store
}

func NewPreprocessHandler(
	log *logger.Logger,
	preprocess services.PreprocessService,
	jobs services.JobService,
	status services.StatusService,
	store storage.Store,
) *PreprocessHandler {
	return &PreprocessHandler{
		log:        log.With("handler", "PreprocessHandler"),
		preprocess: preprocess,
		jobs:       jobs,
		status:     status,
		store:      store,
	}
}

// POST /api/datasets/:id/preprocess
func (h *PreprocessHandler) Start(c *gin.Context) {
	datasetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dataset_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.preprocess.StartPreprocessing(dbc, datasetID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "start_preprocessing_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/preprocessing-jobs
func (h *PreprocessHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	list, err := h.preprocess.ListJobs(dbc, parseLimit(c, 50))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_jobs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": list})
}

// GET /api/preprocessing-jobs/:id
func (h *PreprocessHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.preprocess.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/preprocessing-jobs/:id/status
func (h *PreprocessHandler) Status(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.preprocess.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	response.RespondOK(c, h.statusOf(dbc, job.JobRunID))
}

// POST /api/preprocessing-jobs/:id/cancel
func (h *PreprocessHandler) Cancel(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.preprocess.CancelJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "cancel_job_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/preprocessing-jobs/:id/nodes
func (h *PreprocessHandler) DownloadNodes(c *gin.Context) {
	h.downloadArtifact(c, func(job *types.PreprocessingJob) string { return job.NodesFile })
}

// GET /api/preprocessing-jobs/:id/edges
func (h *PreprocessHandler) DownloadEdges(c *gin.Context) {
	h.downloadArtifact(c, func(job *types.PreprocessingJob) string { return job.EdgesFile })
}

func (h *PreprocessHandler) downloadArtifact(c *gin.Context, pick func(*types.PreprocessingJob) string) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.preprocess.GetJob(dbc, jobID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	streamArtifact(c, h.store, pick(job))
}

func (h *PreprocessHandler) statusOf(dbc dbctx.Context, jobRunID *uuid.UUID) types.JobStatusResponse {
	var run *types.JobRun
	if jobRunID != nil {
		run, _ = h.jobs.Get(dbc, *jobRunID)
	}
	return h.status.Status(run)
}

func streamArtifact(c *gin.Context, store storage.Store, key string) {
	if key == "" {
		response.RespondError(c, http.StatusNotFound, "artifact_not_ready", errors.New("artifact not available yet"))
		return
	}
	rc, err := store.Read(c.Request.Context(), key)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "artifact_read_failed", err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
