// Package orgchart builds an organizational-hierarchy graph from catalog
// entities and prepares it for rendering.
package orgchart

// RootID is the identifier of the synthetic root node every hierarchy
// hangs from.
const RootID = "root"

// Node represents a single box in the org chart.
type Node struct {
	ID   string `json:"id"`   // entity reference, or RootID
	Kind string `json:"kind"` // lowercased entity kind, or "root"
	Name string `json:"name"` // display name
}

// Edge is a directed child-to-parent edge.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph is the full org chart.
type Graph struct {
	Nodes []Node     `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// GraphStats holds computed metrics about the graph.
type GraphStats struct {
	TotalNodes       int            `json:"total_nodes"`
	TotalEdges       int            `json:"total_edges"`
	KindCounts       map[string]int `json:"kind_counts"`
	RootAttached     int            `json:"root_attached"`     // nodes edged directly to the root
	PlaceholderCount int            `json:"placeholder_count"` // parents referenced but absent from the listing
	MaxDepth         int            `json:"max_depth"`         // longest chain from a leaf to the root
}
