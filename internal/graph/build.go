package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/trackflow-backend/internal/dataset"
)

// ErrBuildCancelled is returned when the cancellation token fires between
// windows. No partial graph accompanies it.
var ErrBuildCancelled = errors.New("graph: build cancelled")

type BuildParams struct {
	// TransferThreshold keeps an edge only when the distinct mover count
	// strictly exceeds it.
	TransferThreshold int
	// MinComponentSize prunes weakly connected components with at most
	// this many nodes.
	MinComponentSize int
	// WindowStride is the snapshot bucketing interval.
	WindowStride time.Duration
}

func DefaultBuildParams() BuildParams {
	return BuildParams{
		TransferThreshold: 40,
		MinComponentSize:  3,
		WindowStride:      7 * 24 * time.Hour,
	}
}

// ProgressFunc receives one event per processed window pair.
type ProgressFunc func(current, total int, status string)

type membership struct {
	playlist string
	track    string
}

// Build derives the transfer graph from snapshot records. For each pair of
// consecutive weekly windows: tracks stable in a playlist across both weeks
// are transfer sources, and a track newly appearing in another playlist in
// the second week is a transfer to it. The edge weight is the distinct
// mover count for the pair, overwritten (not accumulated) when a later
// window produces the same edge. Self-loops are dropped.
//
// Fewer than two windows yields an empty graph and no error. Pruning is the
// caller's step; Build returns the raw thresholded graph.
func Build(records []dataset.Record, params BuildParams, onProgress ProgressFunc, cancelled func() bool) (*Transfer, int, error) {
	windows := Windows(records, params.WindowStride)
	g := NewTransfer()
	if len(windows) < 2 {
		return g, len(windows), nil
	}

	min, _, _ := dataset.DateRange(records)
	byWindow := make(map[time.Time]map[membership]struct{}, len(windows))
	for _, rec := range records {
		w := windowStart(min, rec.SnapshotDate, params.WindowStride)
		set := byWindow[w]
		if set == nil {
			set = make(map[membership]struct{})
			byWindow[w] = set
		}
		set[membership{playlist: rec.PlaylistID, track: rec.TrackID}] = struct{}{}
	}

	totalPairs := len(windows) - 1
	for i := 0; i < totalPairs; i++ {
		if cancelled != nil && cancelled() {
			return nil, 0, ErrBuildCancelled
		}
		if onProgress != nil {
			onProgress(i+1, totalPairs, fmt.Sprintf("Processing window %d of %d", i+1, totalPairs))
		}
		this := byWindow[windows[i]]
		next := byWindow[windows[i+1]]

		// stable: same playlist holds the track in both weeks.
		stableByTrack := map[string][]string{}
		for m := range this {
			if _, ok := next[m]; ok {
				stableByTrack[m.track] = append(stableByTrack[m.track], m.playlist)
			}
		}
		// appeared: new placements in the second week for tracks that are
		// anchored somewhere stable.
		appearedByTrack := map[string][]string{}
		for m := range next {
			if _, ok := this[m]; ok {
				continue
			}
			if _, anchored := stableByTrack[m.track]; anchored {
				appearedByTrack[m.track] = append(appearedByTrack[m.track], m.playlist)
			}
		}

		movers := map[Edge]int{}
		for track, sources := range stableByTrack {
			targets := appearedByTrack[track]
			if len(targets) == 0 {
				continue
			}
			for _, from := range sources {
				for _, to := range targets {
					if from == to {
						continue
					}
					movers[Edge{From: from, To: to}]++
				}
			}
		}
		for e, count := range movers {
			if count > params.TransferThreshold {
				g.SetEdge(e.From, e.To, count)
			}
		}
	}
	return g, len(windows), nil
}
