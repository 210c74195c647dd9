package graph

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV artifact format. Edge files carry playlist_id_1, playlist_id_2, weight.
// Node files carry playlist_id first; enrichment appends metadata columns,
// which DecodeNodes tolerates and ignores.

func EncodeEdges(w io.Writer, t *Transfer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"playlist_id_1", "playlist_id_2", "weight"}); err != nil {
		return fmt.Errorf("graph: write edge header: %w", err)
	}
	for _, e := range t.Edges() {
		if err := cw.Write([]string{e.From, e.To, strconv.Itoa(e.Weight)}); err != nil {
			return fmt.Errorf("graph: write edge: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func EncodeNodes(w io.Writer, t *Transfer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"playlist_id"}); err != nil {
		return fmt.Errorf("graph: write node header: %w", err)
	}
	for _, id := range t.Nodes() {
		if err := cw.Write([]string{id}); err != nil {
			return fmt.Errorf("graph: write node: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func DecodeEdges(r io.Reader) ([]Edge, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("graph: read edge header: %w", err)
	}
	fromIdx, toIdx, weightIdx := headerIndex(header, "playlist_id_1"), headerIndex(header, "playlist_id_2"), headerIndex(header, "weight")
	if fromIdx < 0 || toIdx < 0 || weightIdx < 0 {
		return nil, fmt.Errorf("graph: edge file missing columns, got %v", header)
	}
	var out []Edge
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("graph: read edge row: %w", err)
		}
		weight, err := strconv.Atoi(strings.TrimSpace(row[weightIdx]))
		if err != nil {
			return nil, fmt.Errorf("graph: bad edge weight %q: %w", row[weightIdx], err)
		}
		out = append(out, Edge{From: row[fromIdx], To: row[toIdx], Weight: weight})
	}
	return out, nil
}

func DecodeNodes(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("graph: read node header: %w", err)
	}
	idIdx := headerIndex(header, "playlist_id")
	if idIdx < 0 {
		return nil, fmt.Errorf("graph: node file missing playlist_id, got %v", header)
	}
	var out []string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("graph: read node row: %w", err)
		}
		if idIdx >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idIdx])
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
