package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReadRecords(t *testing.T) {
	in := strings.Join([]string{
		"snapshot_date,track_id,playlist_id,extra",
		"2024-01-04,t1,p1,x",
		"2024-01-11,t2,p2,y",
		",,,skipped",
	}, "\n")
	records, err := ReadRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %v, want 2", records)
	}
	if records[0].TrackID != "t1" || records[0].PlaylistID != "p1" {
		t.Fatalf("records[0] = %+v", records[0])
	}
	want := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	if !records[0].SnapshotDate.Equal(want) {
		t.Fatalf("date = %v, want %v", records[0].SnapshotDate, want)
	}
}

func TestReadRecordsMissingColumns(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("track_id,playlist_id\nt1,p1\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("err = %v, want ErrMissingColumns", err)
	}
}

func TestReadRecordsBadDate(t *testing.T) {
	in := "track_id,playlist_id,snapshot_date\nt1,p1,not-a-date\n"
	if _, err := ReadRecords(strings.NewReader(in)); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestDateRange(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	records := []Record{
		{TrackID: "t1", PlaylistID: "p1", SnapshotDate: d(11)},
		{TrackID: "t2", PlaylistID: "p1", SnapshotDate: d(4)},
		{TrackID: "t3", PlaylistID: "p2", SnapshotDate: d(18)},
	}
	min, max, ok := DateRange(records)
	if !ok || !min.Equal(d(4)) || !max.Equal(d(18)) {
		t.Fatalf("range = %v..%v ok=%v", min, max, ok)
	}
	if _, _, ok := DateRange(nil); ok {
		t.Fatalf("empty range should report ok=false")
	}
}
