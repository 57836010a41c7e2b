package orgchart

import (
	"sort"

	"github.com/orgatlas/orgatlas/internal/catalog"
)

// Build constructs the org chart from a catalog entity listing.
//
// Every entity becomes a node keyed by its entity ref. Each childOf relation
// becomes an edge from the entity to its parent; a parent referenced but not
// present in the listing is materialized as a placeholder node. Any node
// left without an outgoing edge (including placeholders) is attached to the
// synthetic root, so every non-root node has a path to the root.
func Build(entities []catalog.Entity, rootName string) *Graph {
	if rootName == "" {
		rootName = "Organization"
	}

	g := &Graph{
		Nodes: []Node{{ID: RootID, Kind: "root", Name: rootName}},
	}

	// Deterministic output regardless of listing order.
	sorted := make([]catalog.Entity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ref() < sorted[j].Ref() })

	nodeIndex := map[string]int{RootID: 0}
	placeholders := map[string]bool{}

	addNode := func(n Node) {
		if _, ok := nodeIndex[n.ID]; ok {
			return
		}
		nodeIndex[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	// Listed entities first, so a parent named by a relation is only a
	// placeholder when it is genuinely absent from the listing.
	for _, e := range sorted {
		ref := e.Ref()
		addNode(Node{ID: ref, Kind: kindOf(ref), Name: e.DisplayName()})
	}

	for _, e := range sorted {
		from := e.Ref()
		for _, parentRef := range catalog.RelationRefs(e, catalog.RelationChildOf) {
			to := normalizeRef(parentRef)
			if _, ok := nodeIndex[to]; !ok {
				addNode(Node{ID: to, Kind: kindOf(to), Name: nameOf(to)})
				placeholders[to] = true
			}
			g.Edges = append(g.Edges, Edge{From: from, To: to, Label: catalog.RelationChildOf})
		}
	}

	// Attach parentless nodes to the root.
	hasParent := map[string]bool{}
	for _, e := range g.Edges {
		hasParent[e.From] = true
	}
	for _, n := range g.Nodes {
		if n.ID == RootID || hasParent[n.ID] {
			continue
		}
		g.Edges = append(g.Edges, Edge{From: n.ID, To: RootID, Label: catalog.RelationChildOf})
	}

	g.computeStats(placeholders)
	return g
}

// ComputeStats refreshes the derived statistics from Nodes and Edges.
// Placeholder information is not recoverable from a bare node/edge list,
// so PlaceholderCount resets to zero.
func (g *Graph) ComputeStats() {
	g.computeStats(nil)
}

func (g *Graph) computeStats(placeholders map[string]bool) {
	g.Stats = GraphStats{
		TotalNodes:       len(g.Nodes),
		TotalEdges:       len(g.Edges),
		PlaceholderCount: len(placeholders),
		KindCounts:       make(map[string]int),
	}

	for _, n := range g.Nodes {
		if n.ID == RootID {
			continue
		}
		g.Stats.KindCounts[n.Kind]++
	}

	parent := make(map[string]string, len(g.Edges))
	for _, e := range g.Edges {
		if e.To == RootID {
			g.Stats.RootAttached++
		}
		// First edge wins for depth purposes; multiple parents are rare
		// but legal in the catalog.
		if _, ok := parent[e.From]; !ok {
			parent[e.From] = e.To
		}
	}

	for _, n := range g.Nodes {
		if n.ID == RootID {
			continue
		}
		if depth := chainDepth(n.ID, parent, len(g.Nodes)); depth > g.Stats.MaxDepth {
			g.Stats.MaxDepth = depth
		}
	}
}

// chainDepth counts hops from id to the root following parent edges.
// Returns 0 when the chain is cyclic or detached.
func chainDepth(id string, parent map[string]string, limit int) int {
	depth := 0
	cur := id
	for cur != RootID {
		next, ok := parent[cur]
		if !ok {
			return 0
		}
		depth++
		if depth > limit {
			return 0
		}
		cur = next
	}
	return depth
}

// kindOf extracts the kind prefix from an entity ref, or "unknown".
func kindOf(ref string) string {
	p, err := catalog.ParseRef(ref)
	if err != nil {
		return "unknown"
	}
	return p.Kind
}

// nameOf extracts the name component from an entity ref for placeholder
// display; falls back to the raw ref.
func nameOf(ref string) string {
	p, err := catalog.ParseRef(ref)
	if err != nil {
		return ref
	}
	return p.Name
}

// normalizeRef canonicalizes a relation target ref so edges and nodes key
// consistently; malformed refs pass through untouched.
func normalizeRef(ref string) string {
	p, err := catalog.ParseRef(ref)
	if err != nil {
		return ref
	}
	return p.String()
}
