package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Record is one playlist-track membership observation from a weekly snapshot.
type Record struct {
	TrackID      string
	PlaylistID   string
	SnapshotDate time.Time
}

var ErrMissingColumns = errors.New("dataset: missing required columns")

// ReadRecords parses a snapshot CSV. The header must contain track_id,
// playlist_id and snapshot_date in any order; extra columns are ignored.
// Rows with an empty track or playlist ID are skipped, but a malformed
// date is a hard error: a silently dropped week would skew the windowing.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	trackIdx, okTrack := cols["track_id"]
	playlistIdx, okPlaylist := cols["playlist_id"]
	dateIdx, okDate := cols["snapshot_date"]
	if !okTrack || !okPlaylist || !okDate {
		return nil, fmt.Errorf("%w: need track_id, playlist_id, snapshot_date; got %v", ErrMissingColumns, header)
	}

	var out []Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", line, err)
		}
		if trackIdx >= len(row) || playlistIdx >= len(row) || dateIdx >= len(row) {
			continue
		}
		trackID := strings.TrimSpace(row[trackIdx])
		playlistID := strings.TrimSpace(row[playlistIdx])
		if trackID == "" || playlistID == "" {
			continue
		}
		date, err := parseDate(strings.TrimSpace(row[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", line, err)
		}
		out = append(out, Record{TrackID: trackID, PlaylistID: playlistID, SnapshotDate: date})
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad snapshot_date %q", s)
}

// DateRange returns the min and max snapshot dates, ok=false for no records.
func DateRange(records []Record) (min, max time.Time, ok bool) {
	for _, rec := range records {
		if !ok {
			min, max, ok = rec.SnapshotDate, rec.SnapshotDate, true
			continue
		}
		if rec.SnapshotDate.Before(min) {
			min = rec.SnapshotDate
		}
		if rec.SnapshotDate.After(max) {
			max = rec.SnapshotDate
		}
	}
	return min, max, ok
}
