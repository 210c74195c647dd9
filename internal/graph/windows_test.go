package graph

import (
	"testing"
	"time"

	"github.com/yungbote/trackflow-backend/internal/dataset"
)

func TestWindowsAnchorsToFirstDate(t *testing.T) {
	stride := 7 * 24 * time.Hour
	records := []dataset.Record{
		rec("t1", "a", day(0)),
		rec("t2", "a", day(3)),
		rec("t3", "a", day(7)),
		rec("t4", "a", day(14)),
	}
	windows := Windows(records, stride)
	if len(windows) != 3 {
		t.Fatalf("windows = %v, want 3 entries", windows)
	}
	want := []time.Time{day(0), day(7), day(14)}
	for i, w := range want {
		if !windows[i].Equal(w) {
			t.Fatalf("windows[%d] = %v, want %v", i, windows[i], w)
		}
	}
}

func TestWindowsSpanGapWeeks(t *testing.T) {
	stride := 7 * 24 * time.Hour
	records := []dataset.Record{
		rec("t1", "a", day(0)),
		rec("t2", "a", day(21)),
	}
	windows := Windows(records, stride)
	if len(windows) != 4 {
		t.Fatalf("windows = %v, want 4 entries covering the empty weeks", windows)
	}
	for i := 1; i < len(windows); i++ {
		if got := windows[i].Sub(windows[i-1]); got != stride {
			t.Fatalf("windows[%d]-windows[%d] = %v, want %v", i, i-1, got, stride)
		}
	}
}

func TestWindowsEmpty(t *testing.T) {
	if got := Windows(nil, 7*24*time.Hour); got != nil {
		t.Fatalf("Windows(nil) = %v, want nil", got)
	}
}
