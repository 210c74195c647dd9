package graph

import "sort"

// Transfer is a directed weighted graph of playlist-to-playlist track
// movement. Node IDs are playlist IDs.
type Transfer struct {
	nodes map[string]struct{}
	out   map[string]map[string]int
}

type Edge struct {
	From   string
	To     string
	Weight int
}

func NewTransfer() *Transfer {
	return &Transfer{
		nodes: make(map[string]struct{}),
		out:   make(map[string]map[string]int),
	}
}

func (t *Transfer) AddNode(id string) {
	t.nodes[id] = struct{}{}
}

// SetEdge overwrites the weight for (from, to). Later windows replace
// earlier weights for the same pair rather than accumulating.
func (t *Transfer) SetEdge(from, to string, weight int) {
	t.AddNode(from)
	t.AddNode(to)
	m := t.out[from]
	if m == nil {
		m = make(map[string]int)
		t.out[from] = m
	}
	m[to] = weight
}

func (t *Transfer) Weight(from, to string) (int, bool) {
	w, ok := t.out[from][to]
	return w, ok
}

func (t *Transfer) HasNode(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// RemoveNode drops the node and every edge touching it.
func (t *Transfer) RemoveNode(id string) {
	delete(t.nodes, id)
	delete(t.out, id)
	for from, m := range t.out {
		delete(m, id)
		if len(m) == 0 {
			delete(t.out, from)
		}
	}
}

func (t *Transfer) NodeCount() int { return len(t.nodes) }

func (t *Transfer) EdgeCount() int {
	n := 0
	for _, m := range t.out {
		n += len(m)
	}
	return n
}

// Nodes returns all node IDs in sorted order.
func (t *Transfer) Nodes() []string {
	out := make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Edges returns all edges sorted by (from, to).
func (t *Transfer) Edges() []Edge {
	out := make([]Edge, 0, t.EdgeCount())
	for from, m := range t.out {
		for to, w := range m {
			out = append(out, Edge{From: from, To: to, Weight: w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
