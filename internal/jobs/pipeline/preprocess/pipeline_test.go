package preprocess_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/trackflow-backend/internal/graph"
	"github.com/yungbote/trackflow-backend/internal/jobs/pipeline/preprocess"
	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type env struct {
	db    *gorm.DB
	repos *repos.Repos
	store storage.Store
	pipe  *preprocess.Pipeline
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	r := repos.New(db, log)
	store, err := storage.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return &env{
		db:    db,
		repos: r,
		store: store,
		pipe:  preprocess.New(db, log, r.Datasets, r.Preprocessing, store),
	}
}

// threeWeekCSV moves 45 tracks from p1 to p2 across the first window
// boundary and keeps them on p2 through a third week.
func threeWeekCSV() string {
	w1 := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	w2 := w1.AddDate(0, 0, 7)
	w3 := w1.AddDate(0, 0, 14)

	var sb strings.Builder
	sb.WriteString("track_id,playlist_id,snapshot_date\n")
	for i := 0; i < 45; i++ {
		track := fmt.Sprintf("t%03d", i)
		fmt.Fprintf(&sb, "%s,p1,%s\n", track, w1.Format("2006-01-02"))
		fmt.Fprintf(&sb, "%s,p1,%s\n", track, w2.Format("2006-01-02"))
		fmt.Fprintf(&sb, "%s,p2,%s\n", track, w2.Format("2006-01-02"))
		fmt.Fprintf(&sb, "%s,p2,%s\n", track, w3.Format("2006-01-02"))
	}
	return sb.String()
}

func (e *env) seed(t *testing.T, csv string) (*types.PreprocessingJob, *types.JobRun) {
	t.Helper()
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: e.db}

	ds := &types.UploadedDataset{
		ID:         uuid.New(),
		Filename:   "snapshots.csv",
		StorageKey: "datasets/snapshots.csv",
	}
	if csv != "" {
		if err := e.store.Write(ctx, ds.StorageKey, strings.NewReader(csv)); err != nil {
			t.Fatalf("write dataset: %v", err)
		}
	}
	if _, err := e.repos.Datasets.Create(dbc, ds); err != nil {
		t.Fatalf("create dataset: %v", err)
	}

	pj := &types.PreprocessingJob{ID: uuid.New(), DatasetID: ds.ID}
	if _, err := e.repos.Preprocessing.Create(dbc, pj); err != nil {
		t.Fatalf("create preprocessing job: %v", err)
	}

	run := &types.JobRun{
		ID:      uuid.New(),
		JobType: "preprocess",
		Status:  types.JobStatusProcessing,
		Payload: datatypes.JSON([]byte(fmt.Sprintf(`{"preprocessing_job_id":%q}`, pj.ID))),
	}
	if _, err := e.repos.JobRuns.Create(dbc, []*types.JobRun{run}); err != nil {
		t.Fatalf("create job run: %v", err)
	}
	return pj, run
}

func TestPreprocessEndToEnd(t *testing.T) {
	e := newEnv(t)
	pj, run := e.seed(t, threeWeekCSV())

	jc := jobrt.NewContext(context.Background(), e.db, run, e.repos.JobRuns, nil)
	if err := e.pipe.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: e.db}
	row, err := e.repos.Preprocessing.GetByID(dbc, pj.ID)
	if err != nil || row == nil {
		t.Fatalf("reload row: %v", err)
	}
	if row.Status != types.JobStatusCompleted {
		t.Fatalf("status = %q (error %q)", row.Status, row.ErrorMessage)
	}
	if row.WindowCount != 3 {
		t.Fatalf("window_count = %d", row.WindowCount)
	}
	// One p1->p2 edge with 45 movers before pruning; the 2-node component
	// is then removed entirely.
	if row.InitialNodes != 2 || row.InitialEdges != 1 {
		t.Fatalf("initial stats = %d nodes / %d edges", row.InitialNodes, row.InitialEdges)
	}
	if row.FinalNodes != 0 || row.FinalEdges != 0 {
		t.Fatalf("final stats = %d nodes / %d edges", row.FinalNodes, row.FinalEdges)
	}

	rc, err := e.store.Read(context.Background(), row.EdgesFile)
	if err != nil {
		t.Fatalf("read edges artifact: %v", err)
	}
	edges, err := graph.DecodeEdges(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("decode edges artifact: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("pruned artifact has %d edges", len(edges))
	}

	runRow, err := e.repos.JobRuns.GetByID(dbc, run.ID)
	if err != nil || runRow == nil {
		t.Fatalf("reload run: %v", err)
	}
	if runRow.Status != types.JobStatusCompleted || runRow.Progress != 100 {
		t.Fatalf("run status = %q progress = %d", runRow.Status, runRow.Progress)
	}
}

func TestPreprocessMissingDatasetFails(t *testing.T) {
	e := newEnv(t)
	pj, run := e.seed(t, "")

	jc := jobrt.NewContext(context.Background(), e.db, run, e.repos.JobRuns, nil)
	if err := e.pipe.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: e.db}
	row, _ := e.repos.Preprocessing.GetByID(dbc, pj.ID)
	if row.Status != types.JobStatusFailed || row.ErrorMessage == "" {
		t.Fatalf("status = %q error = %q", row.Status, row.ErrorMessage)
	}
	runRow, _ := e.repos.JobRuns.GetByID(dbc, run.ID)
	if runRow.Status != types.JobStatusFailed {
		t.Fatalf("run status = %q", runRow.Status)
	}
	e.assertNoArtifacts(t, pj.ID)
}

func TestPreprocessCancellationWritesNoArtifacts(t *testing.T) {
	e := newEnv(t)
	pj, run := e.seed(t, threeWeekCSV())

	dbc := dbctx.Context{Ctx: context.Background(), Tx: e.db}
	if err := e.repos.JobRuns.UpdateFields(dbc, run.ID, map[string]interface{}{
		"status":  types.JobStatusCancelled,
		"message": "cancelled by caller",
	}); err != nil {
		t.Fatalf("cancel run: %v", err)
	}

	jc := jobrt.NewContext(context.Background(), e.db, run, e.repos.JobRuns, nil)
	if err := e.pipe.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}

	row, _ := e.repos.Preprocessing.GetByID(dbc, pj.ID)
	if row.Status != types.JobStatusCancelled {
		t.Fatalf("status = %q", row.Status)
	}
	if row.ErrorMessage != "cancelled by caller" {
		t.Fatalf("error_message = %q", row.ErrorMessage)
	}
	e.assertNoArtifacts(t, pj.ID)
}

func (e *env) assertNoArtifacts(t *testing.T, jobID uuid.UUID) {
	t.Helper()
	keys, err := e.store.List(context.Background(), "jobs/"+jobID.String())
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("unexpected artifacts: %v", keys)
	}
}
