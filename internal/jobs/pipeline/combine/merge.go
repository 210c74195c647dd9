package combine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// nodeTable is one job's node artifact as raw rows, keyed by playlist id.
// Extra columns (enrichment metadata) ride along untouched.
type nodeTable struct {
	extras []string
	rows   map[string][]string
	order  []string
}

func readNodeTable(r io.Reader) (*nodeTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read node header: %w", err)
	}
	idIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "playlist_id") {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("node artifact missing playlist_id column")
	}

	t := &nodeTable{rows: map[string][]string{}}
	for i, col := range header {
		if i != idIdx {
			t.extras = append(t.extras, strings.TrimSpace(col))
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read node row: %w", err)
		}
		if idIdx >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[idIdx])
		if id == "" {
			continue
		}
		extras := make([]string, 0, len(t.extras))
		for i, v := range rec {
			if i != idIdx {
				extras = append(extras, v)
			}
		}
		if _, seen := t.rows[id]; !seen {
			t.order = append(t.order, id)
		}
		t.rows[id] = extras
	}
	return t, nil
}

func (t *nodeTable) value(id, col string) string {
	row, ok := t.rows[id]
	if !ok {
		return ""
	}
	for i, c := range t.extras {
		if c == col && i < len(row) {
			return row[i]
		}
	}
	return ""
}

type mergedNodes struct {
	header     []string
	rows       [][]string
	onlyFirst  int
	onlySecond int
	shared     int
}

// mergeNodeTables reconciles the two node sets. Nodes present in both files
// are tagged era=both and take the second file's attribute values; the rest
// keep the era of their own side (first=old, second=new). Output order is
// first-only rows in first-file order, then all of the second file's rows.
func mergeNodeTables(first, second *nodeTable) *mergedNodes {
	extras := append([]string{}, first.extras...)
	for _, col := range second.extras {
		found := false
		for _, have := range extras {
			if have == col {
				found = true
				break
			}
		}
		if !found {
			extras = append(extras, col)
		}
	}

	out := &mergedNodes{header: append([]string{"playlist_id", "era", "source"}, extras...)}

	emit := func(t *nodeTable, id, era, source string) {
		row := make([]string, 0, len(out.header))
		row = append(row, id, era, source)
		for _, col := range extras {
			row = append(row, t.value(id, col))
		}
		out.rows = append(out.rows, row)
	}

	for _, id := range first.order {
		if _, ok := second.rows[id]; ok {
			continue
		}
		out.onlyFirst++
		emit(first, id, "old", "first")
	}
	for _, id := range second.order {
		if _, ok := first.rows[id]; ok {
			out.shared++
			emit(second, id, "both", "second")
			continue
		}
		out.onlySecond++
		emit(second, id, "new", "second")
	}
	return out
}

func writeMergedNodes(w io.Writer, m *mergedNodes) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(m.header); err != nil {
		return err
	}
	for _, row := range m.rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
