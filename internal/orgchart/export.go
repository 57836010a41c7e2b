package orgchart

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the org chart.
// The hierarchy is laid out top-to-bottom with the root on top.
func ExportDOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph orgchart {\n")
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  margin=0.4;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for _, n := range g.Nodes {
		shape := nodeShape(n.Kind)
		color := nodeColor(n.Kind)
		label := dotLabel(n)
		b.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" shape=%s style=filled fillcolor=\"%s\"];\n",
			n.ID, label, shape, color))
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		label := ""
		if e.Label != "" {
			label = fmt.Sprintf(" [label=\"%s\"]", e.Label)
		}
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\"%s;\n", e.From, e.To, label))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the org chart.
func ExportMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph BT\n")

	for _, n := range g.Nodes {
		b.WriteString(fmt.Sprintf("  %s%s\n", sanitizeMermaidID(n.ID), mermaidNodeShape(n)))
	}

	for _, e := range g.Edges {
		label := ""
		if e.Label != "" {
			label = "|" + e.Label + "|"
		}
		b.WriteString(fmt.Sprintf("  %s -->%s %s\n",
			sanitizeMermaidID(e.From), label, sanitizeMermaidID(e.To)))
	}

	return b.String()
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(g *Graph) string {
	var b strings.Builder
	b.WriteString("Org Chart Statistics\n")
	b.WriteString("====================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:         %d total\n", g.Stats.TotalNodes))
	for kind, count := range g.Stats.KindCounts {
		b.WriteString(fmt.Sprintf("  %-12s %d\n", kind+":", count))
	}
	b.WriteString(fmt.Sprintf("Edges:         %d total\n", g.Stats.TotalEdges))
	b.WriteString(fmt.Sprintf("Root attached: %d\n", g.Stats.RootAttached))
	b.WriteString(fmt.Sprintf("Placeholders:  %d\n", g.Stats.PlaceholderCount))
	b.WriteString(fmt.Sprintf("Max depth:     %d\n", g.Stats.MaxDepth))
	return b.String()
}

// dotLabel renders the chunked display name as a multi-line DOT label.
func dotLabel(n Node) string {
	chunks := ChunkDisplayName(n.Name)
	if len(chunks) <= 1 {
		return escapeDOT(n.Name)
	}
	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = escapeDOT(c.Text)
	}
	return strings.Join(lines, "\\n")
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func sanitizeMermaidID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeShape(kind string) string {
	switch kind {
	case "root":
		return "doubleoctagon"
	case "group":
		return "box"
	case "user":
		return "ellipse"
	default:
		return "box"
	}
}

func nodeColor(kind string) string {
	switch kind {
	case "root":
		return "#1f6feb"
	case "group":
		return "#238636"
	case "user":
		return "#8957e5"
	default:
		return "#30363d"
	}
}

func mermaidNodeShape(n Node) string {
	switch n.Kind {
	case "root":
		return fmt.Sprintf("{{\"%s\"}}", n.Name)
	case "group":
		return fmt.Sprintf("[\"%s\"]", n.Name)
	case "user":
		return fmt.Sprintf("([\"%s\"])", n.Name)
	default:
		return fmt.Sprintf("[\"%s\"]", n.Name)
	}
}
