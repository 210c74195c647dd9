package graph

import (
	"time"

	"github.com/yungbote/trackflow-backend/internal/dataset"
)

// Windows builds the weekly series anchored at the earliest observed date,
// spanning the full date range at a fixed stride. Weeks with no snapshots
// still occupy a slot, so consecutive entries are always exactly one stride
// apart.
func Windows(records []dataset.Record, stride time.Duration) []time.Time {
	min, max, ok := dataset.DateRange(records)
	if !ok {
		return nil
	}
	last := windowStart(min, max, stride)
	out := make([]time.Time, 0, int(last.Sub(min)/stride)+1)
	for w := min; !w.After(last); w = w.Add(stride) {
		out = append(out, w)
	}
	return out
}

func windowStart(anchor, date time.Time, stride time.Duration) time.Time {
	n := date.Sub(anchor) / stride
	return anchor.Add(n * stride)
}
