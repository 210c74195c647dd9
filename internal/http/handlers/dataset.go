package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/http/response"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/services"
)

type DatasetHandler struct {
	log        *logger.Logger
	preprocess services.PreprocessService
}

func NewDatasetHandler(log *logger.Logger, preprocess services.PreprocessService) *DatasetHandler {
	return &DatasetHandler{
		log:        log.With("handler", "DatasetHandler"),
		preprocess: preprocess,
	}
}

// POST /api/datasets/upload
func (h *DatasetHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(64 << 20); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "could_not_read_file", err)
		return
	}
	defer f.Close()

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	ds, err := h.preprocess.UploadDataset(dbc, fh.Filename, f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "upload_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"dataset": ds})
}

// GET /api/datasets
func (h *DatasetHandler) List(c *gin.Context) {
	limit := parseLimit(c, 50)
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	list, err := h.preprocess.ListDatasets(dbc, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_datasets_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"datasets": list})
}

// GET /api/datasets/:id
func (h *DatasetHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dataset_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	ds, err := h.preprocess.GetDataset(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "dataset_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"dataset": ds})
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
