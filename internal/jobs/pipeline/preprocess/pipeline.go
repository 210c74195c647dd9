package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"

	"github.com/yungbote/trackflow-backend/internal/dataset"
	"github.com/yungbote/trackflow-backend/internal/graph"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/types"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx, Tx: p.db}

	jobID, ok := jc.PayloadUUID("preprocessing_job_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing preprocessing_job_id"))
		return nil
	}
	row, err := p.preJobs.GetByID(dbc, jobID)
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}
	if row == nil {
		jc.Fail("validate", fmt.Errorf("preprocessing job %s not found", jobID))
		return nil
	}

	now := time.Now().UTC()
	_ = p.preJobs.UpdateFields(dbc, row.ID, map[string]interface{}{
		"status":     types.JobStatusProcessing,
		"started_at": now,
	})

	jc.Progress("load", 5, 100, "Loading dataset")
	ds, err := p.datasets.GetByID(dbc, row.DatasetID)
	if err == nil && ds == nil {
		err = fmt.Errorf("dataset %s not found", row.DatasetID)
	}
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", err)
		return nil
	}

	rc, err := p.store.Read(jc.Ctx, ds.StorageKey)
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", fmt.Errorf("read dataset %s: %w", ds.StorageKey, err))
		return nil
	}
	records, err := dataset.ReadRecords(rc)
	_ = rc.Close()
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", fmt.Errorf("parse dataset: %w", err))
		return nil
	}

	params := Params()

	// Build progress maps onto the 10-90 band so load and encode keep their
	// slots at the edges.
	onProgress := func(current, total int, status string) {
		pct := 10
		if total > 0 {
			pct = 10 + (80*current)/total
		}
		jc.Progress("build", pct, 100, status)
	}
	g, windowCount, err := graph.Build(records, params, onProgress, jc.Cancelled)
	if errors.Is(err, graph.ErrBuildCancelled) {
		p.cancel(jc, dbc, row.ID, "build")
		return nil
	}
	if err != nil {
		p.fail(jc, dbc, row.ID, "build", err)
		return nil
	}

	initialNodes := g.NodeCount()
	initialEdges := g.EdgeCount()

	jc.Progress("prune", 92, 100, "Pruning small components")
	graph.PruneSmallComponents(g, params.MinComponentSize)

	if jc.Cancelled() {
		p.cancel(jc, dbc, row.ID, "prune")
		return nil
	}

	jc.Progress("encode", 95, 100, "Writing graph artifacts")
	var edgesBuf, nodesBuf bytes.Buffer
	if err := graph.EncodeEdges(&edgesBuf, g); err != nil {
		p.fail(jc, dbc, row.ID, "encode", err)
		return nil
	}
	if err := graph.EncodeNodes(&nodesBuf, g); err != nil {
		p.fail(jc, dbc, row.ID, "encode", err)
		return nil
	}

	edgesKey := fmt.Sprintf("jobs/%s/graph_edges.csv", row.ID)
	nodesKey := fmt.Sprintf("jobs/%s/graph_nodes.csv", row.ID)
	if err := p.store.Write(jc.Ctx, edgesKey, &edgesBuf); err != nil {
		p.fail(jc, dbc, row.ID, "encode", fmt.Errorf("write edges artifact: %w", err))
		return nil
	}
	if err := p.store.Write(jc.Ctx, nodesKey, &nodesBuf); err != nil {
		p.fail(jc, dbc, row.ID, "encode", fmt.Errorf("write nodes artifact: %w", err))
		return nil
	}

	done := time.Now().UTC()
	finalNodes := g.NodeCount()
	finalEdges := g.EdgeCount()
	if err := p.preJobs.UpdateFields(dbc, row.ID, map[string]interface{}{
		"status":        types.JobStatusCompleted,
		"completed_at":  done,
		"edges_file":    edgesKey,
		"nodes_file":    nodesKey,
		"initial_nodes": initialNodes,
		"initial_edges": initialEdges,
		"final_nodes":   finalNodes,
		"final_edges":   finalEdges,
		"window_count":  windowCount,
	}); err != nil {
		jc.Fail("finalize", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"preprocessing_job_id": row.ID.String(),
		"edges_file":           edgesKey,
		"nodes_file":           nodesKey,
		"initial_nodes":        initialNodes,
		"initial_edges":        initialEdges,
		"final_nodes":          finalNodes,
		"final_edges":          finalEdges,
		"window_count":         windowCount,
	})
	return nil
}

func (p *Pipeline) fail(jc *jobrt.Context, dbc dbctx.Context, rowID uuid.UUID, stage string, err error) {
	p.log.Error("Preprocess failed", "preprocessing_job_id", rowID, "stage", stage, "error", err)
	_ = p.preJobs.UpdateFields(dbc, rowID, map[string]interface{}{
		"status":        types.JobStatusFailed,
		"completed_at":  time.Now().UTC(),
		"error_message": err.Error(),
	})
	jc.Fail(stage, err)
}

func (p *Pipeline) cancel(jc *jobrt.Context, dbc dbctx.Context, rowID uuid.UUID, stage string) {
	_ = p.preJobs.UpdateFields(dbc, rowID, map[string]interface{}{
		"status":        types.JobStatusCancelled,
		"completed_at":  time.Now().UTC(),
		"error_message": "cancelled by caller",
	})
	jc.Cancel(stage, "cancelled by caller")
}
