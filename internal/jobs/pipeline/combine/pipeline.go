package combine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"

	"github.com/yungbote/trackflow-backend/internal/graph"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/types"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx, Tx: p.db}

	jobID, ok := jc.PayloadUUID("combined_job_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing combined_job_id"))
		return nil
	}
	row, err := p.combined.GetByID(dbc, jobID)
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}
	if row == nil {
		jc.Fail("validate", fmt.Errorf("combined job %s not found", jobID))
		return nil
	}

	now := time.Now().UTC()
	_ = p.combined.UpdateFields(dbc, row.ID, map[string]interface{}{
		"status":     types.JobStatusProcessing,
		"started_at": now,
	})

	jc.Progress("validate", 5, 100, "Validating source jobs")
	first, err := p.preJobs.GetByID(dbc, row.FirstJobID)
	if err != nil {
		p.fail(jc, dbc, row.ID, "validate", err)
		return nil
	}
	second, err := p.preJobs.GetByID(dbc, row.SecondJobID)
	if err != nil {
		p.fail(jc, dbc, row.ID, "validate", err)
		return nil
	}
	if !sourceUsable(first) || !sourceUsable(second) {
		p.fail(jc, dbc, row.ID, "validate", fmt.Errorf("invalid preprocessing jobs"))
		return nil
	}

	jc.Progress("load", 15, 100, "Loading graph artifacts")
	firstNodes, firstEdges, err := p.loadArtifacts(jc, first)
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", err)
		return nil
	}
	secondNodes, secondEdges, err := p.loadArtifacts(jc, second)
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", err)
		return nil
	}

	if jc.Cancelled() {
		p.cancel(jc, dbc, row.ID, "load")
		return nil
	}

	jc.Progress("merge", 50, 100, "Merging node and edge sets")
	merged := mergeNodeTables(firstNodes, secondNodes)

	// SetEdge overwrites, so replaying the second job's edges after the
	// first gives the second dataset the tie-break on shared pairs.
	g := graph.NewTransfer()
	for _, e := range firstEdges {
		g.SetEdge(e.From, e.To, e.Weight)
	}
	for _, e := range secondEdges {
		g.SetEdge(e.From, e.To, e.Weight)
	}

	jc.Progress("dates", 70, 100, "Recovering source date ranges")
	updates := map[string]interface{}{}
	p.collectDateRanges(dbc, first, second, updates)

	if jc.Cancelled() {
		p.cancel(jc, dbc, row.ID, "merge")
		return nil
	}

	jc.Progress("encode", 90, 100, "Writing combined artifacts")
	var nodesBuf, edgesBuf bytes.Buffer
	if err := writeMergedNodes(&nodesBuf, merged); err != nil {
		p.fail(jc, dbc, row.ID, "encode", err)
		return nil
	}
	if err := graph.EncodeEdges(&edgesBuf, g); err != nil {
		p.fail(jc, dbc, row.ID, "encode", err)
		return nil
	}
	nodesKey := fmt.Sprintf("jobs/%s/combined_nodes.csv", row.ID)
	edgesKey := fmt.Sprintf("jobs/%s/combined_edges.csv", row.ID)
	if err := p.store.Write(jc.Ctx, nodesKey, &nodesBuf); err != nil {
		p.fail(jc, dbc, row.ID, "encode", fmt.Errorf("write nodes artifact: %w", err))
		return nil
	}
	if err := p.store.Write(jc.Ctx, edgesKey, &edgesBuf); err != nil {
		p.fail(jc, dbc, row.ID, "encode", fmt.Errorf("write edges artifact: %w", err))
		return nil
	}

	totalNodes := len(merged.rows)
	totalEdges := g.EdgeCount()
	updates["status"] = types.JobStatusCompleted
	updates["completed_at"] = time.Now().UTC()
	updates["nodes_file"] = nodesKey
	updates["edges_file"] = edgesKey
	updates["total_nodes"] = totalNodes
	updates["total_edges"] = totalEdges
	updates["nodes_only_first"] = merged.onlyFirst
	updates["nodes_only_second"] = merged.onlySecond
	updates["shared_nodes"] = merged.shared
	if err := p.combined.UpdateFields(dbc, row.ID, updates); err != nil {
		jc.Fail("finalize", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"combined_job_id":   row.ID.String(),
		"nodes_file":        nodesKey,
		"edges_file":        edgesKey,
		"total_nodes":       totalNodes,
		"total_edges":       totalEdges,
		"nodes_only_first":  merged.onlyFirst,
		"nodes_only_second": merged.onlySecond,
		"shared_nodes":      merged.shared,
	})
	return nil
}

func sourceUsable(job *types.PreprocessingJob) bool {
	return job != nil && job.Status == types.JobStatusCompleted && job.NodesFile != "" && job.EdgesFile != ""
}

func (p *Pipeline) loadArtifacts(jc *jobrt.Context, job *types.PreprocessingJob) (*nodeTable, []graph.Edge, error) {
	nrc, err := p.store.Read(jc.Ctx, job.NodesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read nodes artifact of %s: %w", job.ID, err)
	}
	nodes, err := readNodeTable(nrc)
	_ = nrc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("decode nodes artifact of %s: %w", job.ID, err)
	}

	erc, err := p.store.Read(jc.Ctx, job.EdgesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read edges artifact of %s: %w", job.ID, err)
	}
	edges, err := graph.DecodeEdges(erc)
	_ = erc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("decode edges artifact of %s: %w", job.ID, err)
	}
	return nodes, edges, nil
}

// collectDateRanges pulls each source dataset's observed date range into the
// stats update. Absence of the dataset row leaves the fields null; this never
// fails the job.
func (p *Pipeline) collectDateRanges(dbc dbctx.Context, first, second *types.PreprocessingJob, updates map[string]interface{}) {
	type rng struct {
		start, end *time.Time
	}
	var firstRange, secondRange rng

	fetch := func(job *types.PreprocessingJob, out *rng) func() error {
		return func() error {
			ds, err := p.datasets.GetByID(dbc, job.DatasetID)
			if err != nil || ds == nil {
				return nil
			}
			out.start, out.end = ds.StartDate, ds.EndDate
			return nil
		}
	}

	var eg errgroup.Group
	eg.Go(fetch(first, &firstRange))
	eg.Go(fetch(second, &secondRange))
	_ = eg.Wait()

	if firstRange.start != nil {
		updates["first_start_date"] = *firstRange.start
	}
	if firstRange.end != nil {
		updates["first_end_date"] = *firstRange.end
	}
	if secondRange.start != nil {
		updates["second_start_date"] = *secondRange.start
	}
	if secondRange.end != nil {
		updates["second_end_date"] = *secondRange.end
	}
}

func (p *Pipeline) fail(jc *jobrt.Context, dbc dbctx.Context, rowID uuid.UUID, stage string, err error) {
	p.log.Error("Combine failed", "combined_job_id", rowID, "stage", stage, "error", err)
	_ = p.combined.UpdateFields(dbc, rowID, map[string]interface{}{
		"status":        types.JobStatusFailed,
		"completed_at":  time.Now().UTC(),
		"error_message": err.Error(),
	})
	jc.Fail(stage, err)
}

func (p *Pipeline) cancel(jc *jobrt.Context, dbc dbctx.Context, rowID uuid.UUID, stage string) {
	_ = p.combined.UpdateFields(dbc, rowID, map[string]interface{}{
		"status":        types.JobStatusCancelled,
		"completed_at":  time.Now().UTC(),
		"error_message": "cancelled by caller",
	})
	jc.Cancel(stage, "cancelled by caller")
}
