package runtime_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/trackflow-backend/internal/jobs/runtime"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/types"
)

func newRunningJob(t *testing.T, repo repos.JobRunRepo, dbc dbctx.Context) *types.JobRun {
	t.Helper()
	created, err := repo.Create(dbc, []*types.JobRun{{
		JobType: "preprocess_dataset",
		Status:  types.JobStatusProcessing,
		Stage:   "claimed",
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created[0]
}

func TestContextProgressAndSucceed(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewJobRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	job := newRunningJob(t, repo, dbc)

	jc := runtime.NewContext(context.Background(), db, job, repo, nil)

	jc.Progress("building", 45, 100, "Processing window 5 of 10")
	row, err := repo.GetByID(dbc, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Progress != 45 || row.Current != 45 || row.Total != 100 {
		t.Fatalf("progress row = %d/%d/%d", row.Progress, row.Current, row.Total)
	}
	if row.Message != "Processing window 5 of 10" || row.Stage != "building" {
		t.Fatalf("row = %+v", row)
	}

	jc.Succeed("done", map[string]any{"final_nodes": 12})
	row, _ = repo.GetByID(dbc, job.ID)
	if row.Status != types.JobStatusCompleted || row.Progress != 100 {
		t.Fatalf("after succeed: %+v", row)
	}
	if len(row.Result) == 0 {
		t.Fatalf("result not persisted")
	}
}

func TestContextFail(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewJobRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	job := newRunningJob(t, repo, dbc)

	jc := runtime.NewContext(context.Background(), db, job, repo, nil)
	jc.Fail("read_dataset", contextErr("dataset missing"))

	row, _ := repo.GetByID(dbc, job.ID)
	if row.Status != types.JobStatusFailed || row.Error != "dataset missing" {
		t.Fatalf("after fail: %+v", row)
	}
}

type contextErr string

func (e contextErr) Error() string { return string(e) }

func TestContextCancelledRowBlocksWrites(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewJobRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	job := newRunningJob(t, repo, dbc)

	if err := repo.UpdateFields(dbc, job.ID, map[string]interface{}{
		"status":  types.JobStatusCancelled,
		"message": "cancelled by caller",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	jc := runtime.NewContext(context.Background(), db, job, repo, nil)
	if !jc.Cancelled() {
		t.Fatalf("Cancelled() = false for a cancelled row")
	}

	jc.Progress("building", 50, 100, "should not land")
	jc.Succeed("done", nil)
	jc.Fail("late", contextErr("too late"))

	row, _ := repo.GetByID(dbc, job.ID)
	if row.Status != types.JobStatusCancelled {
		t.Fatalf("status = %q, want cancelled", row.Status)
	}
	if row.Message != "cancelled by caller" {
		t.Fatalf("message = %q", row.Message)
	}
}

func TestContextCancelDoesNotDowngradeCompleted(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewJobRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	job := newRunningJob(t, repo, dbc)

	jc := runtime.NewContext(context.Background(), db, job, repo, nil)
	jc.Succeed("done", nil)
	jc.Cancel("late", "cancelled by caller")

	row, _ := repo.GetByID(dbc, job.ID)
	if row.Status != types.JobStatusCompleted {
		t.Fatalf("status = %q, want completed", row.Status)
	}
}

func TestContextPayloadUUID(t *testing.T) {
	id := uuid.New()
	job := &types.JobRun{Payload: []byte(`{"preprocessing_job_id":"` + id.String() + `","bad":"nope"}`)}
	jc := runtime.NewContext(context.Background(), nil, job, nil, nil)

	got, ok := jc.PayloadUUID("preprocessing_job_id")
	if !ok || got != id {
		t.Fatalf("uuid = %v ok=%v", got, ok)
	}
	if _, ok := jc.PayloadUUID("bad"); ok {
		t.Fatalf("parsed a non-uuid value")
	}
	if _, ok := jc.PayloadUUID("missing"); ok {
		t.Fatalf("parsed a missing key")
	}
}
