package graph

import "testing"

func TestPruneSmallComponents(t *testing.T) {
	g := NewTransfer()
	// 3-node chain, removed at minSize 3.
	g.SetEdge("a", "b", 50)
	g.SetEdge("b", "c", 50)
	// 4-node chain, kept.
	g.SetEdge("d", "e", 50)
	g.SetEdge("e", "f", 50)
	g.SetEdge("f", "g", 50)

	PruneSmallComponents(g, 3)

	if g.HasNode("a") || g.HasNode("b") || g.HasNode("c") {
		t.Fatalf("3-node component survived: nodes = %v", g.Nodes())
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 3 {
		t.Fatalf("got %d nodes %d edges, want 4 nodes 3 edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestPruneTreatsDirectionAsConnectivity(t *testing.T) {
	g := NewTransfer()
	// a->b and c->b: weakly connected as one 3-node component even though
	// b has no outgoing edges.
	g.SetEdge("a", "b", 50)
	g.SetEdge("c", "b", 50)

	PruneSmallComponents(g, 3)
	if g.NodeCount() != 0 {
		t.Fatalf("weak 3-node component survived: %v", g.Nodes())
	}
}

func TestPruneIdempotent(t *testing.T) {
	g := NewTransfer()
	g.SetEdge("d", "e", 50)
	g.SetEdge("e", "f", 50)
	g.SetEdge("f", "g", 50)

	PruneSmallComponents(g, 3)
	nodes, edges := g.NodeCount(), g.EdgeCount()
	PruneSmallComponents(g, 3)
	if g.NodeCount() != nodes || g.EdgeCount() != edges {
		t.Fatalf("second prune changed the graph: %d/%d -> %d/%d", nodes, edges, g.NodeCount(), g.EdgeCount())
	}
}
