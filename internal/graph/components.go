package graph

// PruneSmallComponents removes every weakly connected component whose node
// count is at most minSize. Edge direction is ignored for connectivity.
// Running it twice is a no-op since pruning never splits components.
func PruneSmallComponents(t *Transfer, minSize int) {
	if minSize <= 0 {
		return
	}
	undirected := make(map[string][]string, len(t.nodes))
	for from, m := range t.out {
		for to := range m {
			undirected[from] = append(undirected[from], to)
			undirected[to] = append(undirected[to], from)
		}
	}

	visited := make(map[string]bool, len(t.nodes))
	for start := range t.nodes {
		if visited[start] {
			continue
		}
		component := []string{start}
		visited[start] = true
		for i := 0; i < len(component); i++ {
			for _, next := range undirected[component[i]] {
				if !visited[next] {
					visited[next] = true
					component = append(component, next)
				}
			}
		}
		if len(component) <= minSize {
			for _, id := range component {
				t.RemoveNode(id)
			}
		}
	}
}
