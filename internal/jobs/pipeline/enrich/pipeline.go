package enrich

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"

	"github.com/yungbote/trackflow-backend/internal/graph"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/spotify"
	"github.com/yungbote/trackflow-backend/internal/types"
)

var enrichedHeader = []string{"playlist_id", "name", "description", "owner_name", "follower_count"}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx, Tx: p.db}

	jobID, ok := jc.PayloadUUID("enrichment_job_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing enrichment_job_id"))
		return nil
	}
	row, err := p.enrichJobs.GetByID(dbc, jobID)
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}
	if row == nil {
		jc.Fail("validate", fmt.Errorf("enrichment job %s not found", jobID))
		return nil
	}

	now := time.Now().UTC()
	_ = p.enrichJobs.UpdateFields(dbc, row.ID, map[string]interface{}{
		"status":     types.JobStatusProcessing,
		"started_at": now,
	})

	if p.lookup == nil {
		p.fail(jc, dbc, row.ID, "validate", fmt.Errorf("spotify client not configured (SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET)"))
		return nil
	}

	source, err := p.preJobs.GetByID(dbc, row.PreprocessingJobID)
	if err == nil && (source == nil || source.Status != types.JobStatusCompleted || source.NodesFile == "") {
		err = fmt.Errorf("preprocessing job %s has no node artifact", row.PreprocessingJobID)
	}
	if err != nil {
		p.fail(jc, dbc, row.ID, "validate", err)
		return nil
	}

	jc.Progress("load", 0, 1, "Loading node artifact")
	rc, err := p.store.Read(jc.Ctx, source.NodesFile)
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", fmt.Errorf("read nodes artifact %s: %w", source.NodesFile, err))
		return nil
	}
	nodes, err := graph.DecodeNodes(rc)
	_ = rc.Close()
	if err != nil {
		p.fail(jc, dbc, row.ID, "load", fmt.Errorf("decode nodes artifact: %w", err))
		return nil
	}

	total := len(nodes)
	_ = p.enrichJobs.UpdateFields(dbc, row.ID, map[string]interface{}{"total_playlists": total})

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(enrichedHeader); err != nil {
		p.fail(jc, dbc, row.ID, "lookup", err)
		return nil
	}

	found, notFound := 0, 0
	for i, id := range nodes {
		// Cancellation leaves the node artifact exactly as it was; the
		// buffered rows are simply dropped.
		if jc.Cancelled() {
			p.cancel(jc, dbc, row.ID, "lookup")
			return nil
		}

		pl, lerr := p.lookup.GetPlaylist(jc.Ctx, id)
		if lerr != nil || pl == nil {
			if lerr != nil && !spotify.IsNotFound(lerr) {
				p.log.Warn("Playlist lookup failed", "playlist_id", id, "error", lerr)
			}
			notFound++
			if err := cw.Write([]string{id, "", "", "", ""}); err != nil {
				p.fail(jc, dbc, row.ID, "lookup", err)
				return nil
			}
		} else {
			found++
			if err := cw.Write([]string{id, pl.Name, pl.Description, pl.OwnerName, strconv.Itoa(pl.FollowerCount)}); err != nil {
				p.fail(jc, dbc, row.ID, "lookup", err)
				return nil
			}
		}

		jc.Progress("lookup", i+1, total, fmt.Sprintf("Enriched %d of %d playlists (%d found, %d not found)", i+1, total, found, notFound))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		p.fail(jc, dbc, row.ID, "lookup", err)
		return nil
	}

	// Back up before the in-place overwrite. The backup is never deleted.
	backupKey := source.NodesFile + ".bak"
	if err := p.store.Copy(jc.Ctx, source.NodesFile, backupKey); err != nil {
		p.fail(jc, dbc, row.ID, "write", fmt.Errorf("back up nodes artifact: %w", err))
		return nil
	}
	if err := p.store.Write(jc.Ctx, source.NodesFile, &buf); err != nil {
		p.fail(jc, dbc, row.ID, "write", fmt.Errorf("write enriched artifact: %w", err))
		return nil
	}

	if err := p.enrichJobs.UpdateFields(dbc, row.ID, map[string]interface{}{
		"status":          types.JobStatusCompleted,
		"completed_at":    time.Now().UTC(),
		"output_file":     source.NodesFile,
		"total_playlists": total,
		"found_count":     found,
		"not_found_count": notFound,
	}); err != nil {
		jc.Fail("finalize", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"enrichment_job_id": row.ID.String(),
		"output_file":       source.NodesFile,
		"backup_file":       backupKey,
		"total_playlists":   total,
		"found_count":       found,
		"not_found_count":   notFound,
	})
	return nil
}

func (p *Pipeline) fail(jc *jobrt.Context, dbc dbctx.Context, rowID uuid.UUID, stage string, err error) {
	p.log.Error("Enrichment failed", "enrichment_job_id", rowID, "stage", stage, "error", err)
	_ = p.enrichJobs.UpdateFields(dbc, rowID, map[string]interface{}{
		"status":        types.JobStatusFailed,
		"completed_at":  time.Now().UTC(),
		"error_message": err.Error(),
	})
	jc.Fail(stage, err)
}

func (p *Pipeline) cancel(jc *jobrt.Context, dbc dbctx.Context, rowID uuid.UUID, stage string) {
	_ = p.enrichJobs.UpdateFields(dbc, rowID, map[string]interface{}{
		"status":        types.JobStatusCancelled,
		"completed_at":  time.Now().UTC(),
		"error_message": "cancelled by caller",
	})
	jc.Cancel(stage, "cancelled by caller")
}
