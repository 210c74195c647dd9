package enrich_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/trackflow-backend/internal/jobs/pipeline/enrich"
	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/spotify"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/types"
)

type fakeLookup struct {
	missing map[string]bool
	calls   int
}

func (f *fakeLookup) GetPlaylist(_ context.Context, playlistID string) (*spotify.Playlist, error) {
	f.calls++
	if f.missing[playlistID] {
		return nil, spotify.ErrNotFound
	}
	return &spotify.Playlist{
		ID:            playlistID,
		Name:          "Name of " + playlistID,
		Description:   "desc",
		OwnerName:     "owner",
		FollowerCount: 7,
	}, nil
}

type env struct {
	db    *gorm.DB
	repos *repos.Repos
	store storage.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	store, err := storage.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return &env{db: db, repos: repos.New(db, log), store: store}
}

const nodesKey = "jobs/src/graph_nodes.csv"
const nodesCSV = "playlist_id\na\nb\nc\n"

func (e *env) seed(t *testing.T) (*types.PlaylistEnrichmentJob, *types.JobRun) {
	t.Helper()
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: e.db}

	if err := e.store.Write(ctx, nodesKey, strings.NewReader(nodesCSV)); err != nil {
		t.Fatalf("write nodes artifact: %v", err)
	}

	src := &types.PreprocessingJob{
		ID:        uuid.New(),
		DatasetID: uuid.New(),
		Status:    types.JobStatusCompleted,
		NodesFile: nodesKey,
		EdgesFile: "jobs/src/graph_edges.csv",
	}
	if _, err := e.repos.Preprocessing.Create(dbc, src); err != nil {
		t.Fatalf("create source job: %v", err)
	}

	ej := &types.PlaylistEnrichmentJob{ID: uuid.New(), PreprocessingJobID: src.ID}
	if _, err := e.repos.Enrichment.Create(dbc, ej); err != nil {
		t.Fatalf("create enrichment job: %v", err)
	}

	run := &types.JobRun{
		ID:      uuid.New(),
		JobType: "enrich",
		Status:  types.JobStatusProcessing,
		Payload: datatypes.JSON([]byte(fmt.Sprintf(`{"enrichment_job_id":%q}`, ej.ID))),
	}
	if _, err := e.repos.JobRuns.Create(dbc, []*types.JobRun{run}); err != nil {
		t.Fatalf("create job run: %v", err)
	}
	return ej, run
}

func (e *env) readKey(t *testing.T, key string) string {
	t.Helper()
	rc, err := e.store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(b)
}

func TestEnrichPartialFailure(t *testing.T) {
	e := newEnv(t)
	ej, run := e.seed(t)
	lookup := &fakeLookup{missing: map[string]bool{"b": true}}

	pipe := enrich.New(e.db, testutil.Logger(t), e.repos.Preprocessing, e.repos.Enrichment, e.store, lookup)
	jc := jobrt.NewContext(context.Background(), e.db, run, e.repos.JobRuns, nil)
	if err := pipe.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: e.db}
	row, _ := e.repos.Enrichment.GetByID(dbc, ej.ID)
	if row.Status != types.JobStatusCompleted {
		t.Fatalf("status = %q error = %q", row.Status, row.ErrorMessage)
	}
	if row.TotalPlaylists != 3 || row.FoundCount != 2 || row.NotFoundCount != 1 {
		t.Fatalf("counts = %d/%d/%d", row.TotalPlaylists, row.FoundCount, row.NotFoundCount)
	}
	if row.OutputFile != nodesKey {
		t.Fatalf("output_file = %q", row.OutputFile)
	}

	out := e.readKey(t, nodesKey)
	if !strings.Contains(out, "playlist_id,name,description,owner_name,follower_count") {
		t.Fatalf("enriched header missing: %q", out)
	}
	if !strings.Contains(out, "a,Name of a,desc,owner,7") {
		t.Fatalf("enriched row for a missing: %q", out)
	}
	if !strings.Contains(out, "b,,,,") {
		t.Fatalf("null metadata row for b missing: %q", out)
	}

	if e.readKey(t, nodesKey+".bak") != nodesCSV {
		t.Fatalf("backup does not preserve original artifact")
	}
}

func TestEnrichCancellationLeavesArtifactUntouched(t *testing.T) {
	e := newEnv(t)
	ej, run := e.seed(t)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: e.db}
	if err := e.repos.JobRuns.UpdateFields(dbc, run.ID, map[string]interface{}{
		"status":  types.JobStatusCancelled,
		"message": "cancelled by caller",
	}); err != nil {
		t.Fatalf("cancel run: %v", err)
	}

	lookup := &fakeLookup{}
	pipe := enrich.New(e.db, testutil.Logger(t), e.repos.Preprocessing, e.repos.Enrichment, e.store, lookup)
	jc := jobrt.NewContext(context.Background(), e.db, run, e.repos.JobRuns, nil)
	if err := pipe.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}

	row, _ := e.repos.Enrichment.GetByID(dbc, ej.ID)
	if row.Status != types.JobStatusCancelled {
		t.Fatalf("status = %q", row.Status)
	}
	if lookup.calls != 0 {
		t.Fatalf("lookup called %d times after cancellation", lookup.calls)
	}
	if e.readKey(t, nodesKey) != nodesCSV {
		t.Fatalf("node artifact was modified")
	}
	if ok, _ := e.store.Exists(context.Background(), nodesKey+".bak"); ok {
		t.Fatalf("backup written for a cancelled run")
	}
}

func TestEnrichMissingClientFailsBeforeWrites(t *testing.T) {
	e := newEnv(t)
	ej, run := e.seed(t)

	pipe := enrich.New(e.db, testutil.Logger(t), e.repos.Preprocessing, e.repos.Enrichment, e.store, nil)
	jc := jobrt.NewContext(context.Background(), e.db, run, e.repos.JobRuns, nil)
	if err := pipe.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: e.db}
	row, _ := e.repos.Enrichment.GetByID(dbc, ej.ID)
	if row.Status != types.JobStatusFailed || row.ErrorMessage == "" {
		t.Fatalf("status = %q error = %q", row.Status, row.ErrorMessage)
	}
	if e.readKey(t, nodesKey) != nodesCSV {
		t.Fatalf("node artifact was modified")
	}
}
