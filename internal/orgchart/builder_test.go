package orgchart

import (
	"testing"

	"github.com/orgatlas/orgatlas/internal/catalog"
)

func group(name string, parents ...string) catalog.Entity {
	e := catalog.Entity{
		Kind:     "Group",
		Metadata: catalog.EntityMeta{Name: name},
	}
	for _, p := range parents {
		e.Relations = append(e.Relations, catalog.Relation{
			Type:      catalog.RelationChildOf,
			TargetRef: p,
		})
	}
	return e
}

func findEdges(g *Graph, from string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil, "")

	if len(g.Nodes) != 1 {
		t.Fatalf("expected only the root node, got %d nodes", len(g.Nodes))
	}
	if g.Nodes[0].ID != RootID {
		t.Errorf("expected root node, got %q", g.Nodes[0].ID)
	}
	if g.Nodes[0].Name != "Organization" {
		t.Errorf("expected default root name, got %q", g.Nodes[0].Name)
	}
	if len(g.Edges) != 0 {
		t.Errorf("expected no edges, got %d", len(g.Edges))
	}
}

func TestBuild_ParentlessEntityAttachesToRoot(t *testing.T) {
	g := Build([]catalog.Entity{group("engineering")}, "ACME")

	edges := findEdges(g, "group:default/engineering")
	if len(edges) != 1 {
		t.Fatalf("expected exactly 1 edge for parentless entity, got %d", len(edges))
	}
	if edges[0].To != RootID {
		t.Errorf("edge should target the root, got %q", edges[0].To)
	}
	if edges[0].Label != catalog.RelationChildOf {
		t.Errorf("edge label = %q, want %q", edges[0].Label, catalog.RelationChildOf)
	}
}

func TestBuild_ChildOfRelation(t *testing.T) {
	g := Build([]catalog.Entity{
		group("engineering"),
		group("backend", "group:default/engineering"),
	}, "")

	edges := findEdges(g, "group:default/backend")
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].To != "group:default/engineering" {
		t.Errorf("edge target = %q, want parent group", edges[0].To)
	}

	// The child must not also be attached to the root.
	for _, e := range g.Edges {
		if e.From == "group:default/backend" && e.To == RootID {
			t.Error("entity with a parent must not be attached to the root")
		}
	}
}

func TestBuild_PlaceholderParent(t *testing.T) {
	// The parent is referenced but not present in the listing.
	g := Build([]catalog.Entity{
		group("backend", "group:default/engineering"),
	}, "")

	var placeholder *Node
	for i, n := range g.Nodes {
		if n.ID == "group:default/engineering" {
			placeholder = &g.Nodes[i]
		}
	}
	if placeholder == nil {
		t.Fatal("expected placeholder node for absent parent")
	}
	if placeholder.Name != "engineering" {
		t.Errorf("placeholder name = %q, want %q", placeholder.Name, "engineering")
	}

	// The placeholder itself has no parent, so it attaches to the root.
	edges := findEdges(g, "group:default/engineering")
	if len(edges) != 1 || edges[0].To != RootID {
		t.Errorf("placeholder should attach to root, got %v", edges)
	}

	if g.Stats.PlaceholderCount != 1 {
		t.Errorf("PlaceholderCount = %d, want 1", g.Stats.PlaceholderCount)
	}
}

func TestBuild_EveryNodeReachesRoot(t *testing.T) {
	g := Build([]catalog.Entity{
		group("engineering"),
		group("backend", "group:default/engineering"),
		group("api-team", "group:default/backend"),
		group("design", "group:default/product"), // placeholder parent
		group("floating"),
	}, "")

	parent := map[string]string{}
	for _, e := range g.Edges {
		if _, ok := parent[e.From]; !ok {
			parent[e.From] = e.To
		}
	}

	for _, n := range g.Nodes {
		if n.ID == RootID {
			continue
		}
		cur := n.ID
		steps := 0
		for cur != RootID {
			next, ok := parent[cur]
			if !ok {
				t.Fatalf("node %q has no path to root", n.ID)
			}
			cur = next
			steps++
			if steps > len(g.Nodes) {
				t.Fatalf("cycle while walking from %q", n.ID)
			}
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := []catalog.Entity{group("alpha"), group("beta"), group("gamma")}
	b := []catalog.Entity{group("gamma"), group("alpha"), group("beta")}

	ga := Build(a, "")
	gb := Build(b, "")

	if len(ga.Nodes) != len(gb.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(ga.Nodes), len(gb.Nodes))
	}
	for i := range ga.Nodes {
		if ga.Nodes[i] != gb.Nodes[i] {
			t.Errorf("node %d differs: %+v vs %+v", i, ga.Nodes[i], gb.Nodes[i])
		}
	}
}

func TestBuild_MultipleParents(t *testing.T) {
	e := group("guild-member", "group:default/engineering", "group:default/guild")
	g := Build([]catalog.Entity{group("engineering"), group("guild"), e}, "")

	edges := findEdges(g, "group:default/guild-member")
	if len(edges) != 2 {
		t.Fatalf("expected one edge per childOf relation, got %d", len(edges))
	}
}

func TestBuild_Stats(t *testing.T) {
	g := Build([]catalog.Entity{
		group("engineering"),
		group("backend", "group:default/engineering"),
		group("api-team", "group:default/backend"),
	}, "")

	if g.Stats.TotalNodes != 4 { // root + 3 groups
		t.Errorf("TotalNodes = %d, want 4", g.Stats.TotalNodes)
	}
	if g.Stats.TotalEdges != 3 {
		t.Errorf("TotalEdges = %d, want 3", g.Stats.TotalEdges)
	}
	if g.Stats.KindCounts["group"] != 3 {
		t.Errorf("KindCounts[group] = %d, want 3", g.Stats.KindCounts["group"])
	}
	if g.Stats.RootAttached != 1 {
		t.Errorf("RootAttached = %d, want 1", g.Stats.RootAttached)
	}
	if g.Stats.MaxDepth != 3 { // api-team -> backend -> engineering -> root
		t.Errorf("MaxDepth = %d, want 3", g.Stats.MaxDepth)
	}
}

func TestComputeStats_RebuildsFromNodesAndEdges(t *testing.T) {
	// A graph assembled directly, the way the graph store reloads one.
	g := &Graph{
		Nodes: []Node{
			{ID: RootID, Kind: "root", Name: "Organization"},
			{ID: "group:default/engineering", Kind: "group", Name: "engineering"},
			{ID: "group:default/backend", Kind: "group", Name: "backend"},
		},
		Edges: []Edge{
			{From: "group:default/engineering", To: RootID, Label: catalog.RelationChildOf},
			{From: "group:default/backend", To: "group:default/engineering", Label: catalog.RelationChildOf},
		},
	}

	g.ComputeStats()

	if g.Stats.TotalNodes != 3 {
		t.Errorf("TotalNodes = %d, want 3", g.Stats.TotalNodes)
	}
	if g.Stats.TotalEdges != 2 {
		t.Errorf("TotalEdges = %d, want 2", g.Stats.TotalEdges)
	}
	if g.Stats.KindCounts["group"] != 2 {
		t.Errorf("KindCounts[group] = %d, want 2", g.Stats.KindCounts["group"])
	}
	if g.Stats.RootAttached != 1 {
		t.Errorf("RootAttached = %d, want 1", g.Stats.RootAttached)
	}
	if g.Stats.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", g.Stats.MaxDepth)
	}
}

func TestComputeStats_RepeatCallsAreStable(t *testing.T) {
	g := Build([]catalog.Entity{
		group("engineering"),
		group("backend", "group:default/engineering"),
	}, "")
	first := g.Stats

	g.ComputeStats()

	if g.Stats.TotalNodes != first.TotalNodes ||
		g.Stats.TotalEdges != first.TotalEdges ||
		g.Stats.RootAttached != first.RootAttached ||
		g.Stats.MaxDepth != first.MaxDepth {
		t.Errorf("stats drifted on recompute: %+v vs %+v", g.Stats, first)
	}
}

func TestBuild_DisplayNamePreferred(t *testing.T) {
	e := catalog.Entity{
		Kind:     "Group",
		Metadata: catalog.EntityMeta{Name: "platform"},
		Spec: catalog.EntitySpec{
			Profile: catalog.Profile{DisplayName: "Platform Engineering"},
		},
	}
	g := Build([]catalog.Entity{e}, "")

	for _, n := range g.Nodes {
		if n.ID == "group:default/platform" && n.Name != "Platform Engineering" {
			t.Errorf("node name = %q, want display name", n.Name)
		}
	}
}
