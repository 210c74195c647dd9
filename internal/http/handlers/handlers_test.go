package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/data/repos/testutil"
	httpx "github.com/yungbote/trackflow-backend/internal/http"
	"github.com/yungbote/trackflow-backend/internal/http/handlers"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/services"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type env struct {
	engine *gin.Engine
	repos  *repos.Repos
	store  storage.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testutil.Logger(t)
	db := testutil.DB(t)
	rp := repos.New(db, log)

	store, err := storage.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	jobs := services.NewJobService(db, log, rp.JobRuns, nil, nil, "")
	status := services.NewStatusService(log)
	preprocess := services.NewPreprocessService(db, log, rp.Datasets, rp.Preprocessing, store, jobs)

	engine := httpx.NewRouter(httpx.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler(),
		DatasetHandler:    handlers.NewDatasetHandler(log, preprocess),
		PreprocessHandler: handlers.NewPreprocessHandler(log, preprocess, jobs, status, store),
		JobHandler:        handlers.NewJobHandler(jobs, status),
	})

	return &env{engine: engine, repos: rp, store: store}
}

func (e *env) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthcheck", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthcheck response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestUploadAndListDatasets(t *testing.T) {
	e := newEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "snapshots.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("playlist_id,track_id,snapshot_date\np1,t1,2024-01-04\np1,t2,2024-01-04\n")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	rec := e.do(t, http.MethodPost, "/api/datasets/upload", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	ds, ok := body["dataset"].(map[string]any)
	if !ok {
		t.Fatalf("missing dataset in response: %v", body)
	}
	if ds["row_count"].(float64) != 2 {
		t.Fatalf("unexpected row_count: %v", ds["row_count"])
	}

	rec = e.do(t, http.MethodGet, "/api/datasets", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
	}
	list := decodeBody(t, rec)["datasets"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(list))
	}
}

func TestUploadRejectsNonCSV(t *testing.T) {
	e := newEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "snapshots.parquet")
	fw.Write([]byte("not a csv"))
	mw.Close()

	rec := e.do(t, http.MethodPost, "/api/datasets/upload", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	if errBody["code"] != "upload_failed" {
		t.Fatalf("unexpected error code: %v", errBody["code"])
	}
}

func TestJobStatusRoute(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/jobs/not-a-uuid/status", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	if errBody["code"] != "invalid_job_id" {
		t.Fatalf("unexpected error code: %v", errBody["code"])
	}

	run := &types.JobRun{
		ID:      uuid.New(),
		JobType: "preprocess",
		Status:  types.JobStatusPending,
		Stage:   "pending",
		Total:   100,
		Message: "Task pending...",
	}
	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := e.repos.JobRuns.Create(dbc, []*types.JobRun{run}); err != nil {
		t.Fatalf("create job run: %v", err)
	}

	rec = e.do(t, http.MethodGet, "/api/jobs/"+run.ID.String()+"/status", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status failed: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["state"] != types.JobStatusPending || body["percent"].(float64) != 0 {
		t.Fatalf("unexpected status body: %v", body)
	}

	// Unknown but well formed ids map onto a failed status payload.
	rec = e.do(t, http.MethodGet, "/api/jobs/"+uuid.NewString()+"/status", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status for unknown id: %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["state"] != types.JobStatusFailed {
		t.Fatalf("unexpected state for unknown job: %v", body["state"])
	}
}

func TestPreprocessingArtifactDownload(t *testing.T) {
	e := newEnv(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	nodesKey := "jobs/x/graph_nodes.csv"
	if err := e.store.Write(context.Background(), nodesKey, strings.NewReader("playlist_id\np1\n")); err != nil {
		t.Fatalf("store.Write: %v", err)
	}
	job := &types.PreprocessingJob{
		ID:        uuid.New(),
		DatasetID: uuid.New(),
		Status:    types.JobStatusCompleted,
		NodesFile: nodesKey,
	}
	if _, err := e.repos.Preprocessing.Create(dbc, job); err != nil {
		t.Fatalf("create preprocessing job: %v", err)
	}

	rec := e.do(t, http.MethodGet, "/api/preprocessing-jobs/"+job.ID.String()+"/nodes", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download failed: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if rec.Body.String() != "playlist_id\np1\n" {
		t.Fatalf("unexpected artifact body: %q", rec.Body.String())
	}

	// Edges were never written for this job.
	rec = e.do(t, http.MethodGet, "/api/preprocessing-jobs/"+job.ID.String()+"/edges", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing artifact, got %d", rec.Code)
	}
}
