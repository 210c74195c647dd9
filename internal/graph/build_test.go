package graph

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/trackflow-backend/internal/dataset"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func rec(track, playlist string, date time.Time) dataset.Record {
	return dataset.Record{TrackID: track, PlaylistID: playlist, SnapshotDate: date}
}

// moverRecords emits n tracks that sit in src for both weeks and newly
// appear in dst in the second week.
func moverRecords(n int, src, dst string, week1, week2 time.Time) []dataset.Record {
	var out []dataset.Record
	for i := 0; i < n; i++ {
		track := fmt.Sprintf("%s-%s-%s-t%03d", src, dst, week1.Format("0102"), i)
		out = append(out,
			rec(track, src, week1),
			rec(track, src, week2),
			rec(track, dst, week2),
		)
	}
	return out
}

func TestBuildThresholdIsStrict(t *testing.T) {
	params := DefaultBuildParams()

	g, windows, err := Build(moverRecords(40, "a", "b", day(0), day(7)), params, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if windows != 2 {
		t.Fatalf("windows = %d, want 2", windows)
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("40 movers produced %d edges, want 0", g.EdgeCount())
	}

	g, _, err = Build(moverRecords(41, "a", "b", day(0), day(7)), params, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	w, ok := g.Weight("a", "b")
	if !ok || w != 41 {
		t.Fatalf("weight(a,b) = %d,%v, want 41,true", w, ok)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("nodes = %d, want 2", g.NodeCount())
	}
}

func TestBuildOverwritesLaterWindow(t *testing.T) {
	records := moverRecords(41, "a", "b", day(0), day(7))
	records = append(records, moverRecords(45, "a", "b", day(7), day(14))...)

	g, windows, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if windows != 3 {
		t.Fatalf("windows = %d, want 3", windows)
	}
	if w, _ := g.Weight("a", "b"); w != 45 {
		t.Fatalf("weight(a,b) = %d, want 45 (later window overwrites)", w)
	}
}

func TestBuildFewWindows(t *testing.T) {
	records := []dataset.Record{
		rec("t1", "a", day(0)),
		rec("t1", "b", day(0)),
	}
	g, windows, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if windows != 1 {
		t.Fatalf("windows = %d, want 1", windows)
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Fatalf("single window should yield an empty graph, got %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestBuildRequiresStableAnchor(t *testing.T) {
	// Tracks only appear in the second week: nothing is stable, so no
	// transfer can be inferred.
	var records []dataset.Record
	for i := 0; i < 50; i++ {
		track := fmt.Sprintf("t%03d", i)
		records = append(records, rec(track, "b", day(7)))
	}
	records = append(records, rec("anchor", "a", day(0)), rec("anchor", "a", day(7)))

	g, _, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("edges = %d, want 0", g.EdgeCount())
	}
}

func TestBuildEmptyWeekBreaksTransfers(t *testing.T) {
	// Tracks sit on "a" in weeks 0 and 2 and land on "b" in week 2, with
	// nothing snapshotted in week 1. The empty week still occupies a
	// window slot, so no pair straddles it and no transfer is inferred.
	records := moverRecords(41, "a", "b", day(0), day(14))

	g, windows, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if windows != 3 {
		t.Fatalf("windows = %d, want 3 (empty week counted)", windows)
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("edges = %v, want none across an empty week", g.Edges())
	}
}

func TestBuildNoSelfLoops(t *testing.T) {
	// Each track is stable on both "a" and "c" while newly landing on
	// "b", so "a" and "c" are simultaneously sources and bystanders. Only
	// cross-playlist edges may come out.
	records := moverRecords(41, "a", "b", day(0), day(7))
	for i := 0; i < 41; i++ {
		track := fmt.Sprintf("a-b-%s-t%03d", day(0).Format("0102"), i)
		records = append(records, rec(track, "c", day(0)), rec(track, "c", day(7)))
	}

	g, _, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, e := range g.Edges() {
		if e.From == e.To {
			t.Fatalf("self loop %s->%s weight %d", e.From, e.To, e.Weight)
		}
	}
	if w, ok := g.Weight("a", "b"); !ok || w != 41 {
		t.Fatalf("weight(a,b) = %d,%v, want 41,true", w, ok)
	}
	if w, ok := g.Weight("c", "b"); !ok || w != 41 {
		t.Fatalf("weight(c,b) = %d,%v, want 41,true", w, ok)
	}
}

func TestBuildDeterministic(t *testing.T) {
	records := moverRecords(41, "a", "b", day(0), day(7))
	records = append(records, moverRecords(45, "b", "c", day(7), day(14))...)
	records = append(records, moverRecords(42, "a", "c", day(7), day(14))...)

	first, _, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, _, err := Build(records, DefaultBuildParams(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(first.Edges(), second.Edges()) {
		t.Fatalf("edges differ across runs:\n%v\n%v", first.Edges(), second.Edges())
	}
	if !reflect.DeepEqual(first.Nodes(), second.Nodes()) {
		t.Fatalf("nodes differ across runs:\n%v\n%v", first.Nodes(), second.Nodes())
	}
}

func TestBuildCancellation(t *testing.T) {
	records := moverRecords(41, "a", "b", day(0), day(7))
	g, _, err := Build(records, DefaultBuildParams(), nil, func() bool { return true })
	if !errors.Is(err, ErrBuildCancelled) {
		t.Fatalf("err = %v, want ErrBuildCancelled", err)
	}
	if g != nil {
		t.Fatalf("cancelled build returned a graph")
	}
}

func TestBuildProgressEvents(t *testing.T) {
	records := moverRecords(41, "a", "b", day(0), day(7))
	records = append(records, moverRecords(41, "b", "c", day(7), day(14))...)

	var got []int
	_, _, err := Build(records, DefaultBuildParams(), func(current, total int, status string) {
		if total != 2 {
			t.Fatalf("total = %d, want 2", total)
		}
		if status == "" {
			t.Fatalf("empty status for window %d", current)
		}
		got = append(got, current)
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("progress currents = %v, want [1 2]", got)
	}
}
