package neo4j

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/orgatlas/orgatlas/internal/graphstore"
	"github.com/orgatlas/orgatlas/internal/orgchart"
)

// Neo4jRepository implements graphstore.Repository using Neo4j.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository and verifies connectivity.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) StoreGraph(ctx context.Context, g *orgchart.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Replace the previous chart wholesale so removed entities disappear.
		if _, err := tx.Run(ctx, "MATCH (e:Entity) DETACH DELETE e", nil); err != nil {
			return nil, err
		}
		for _, n := range g.Nodes {
			_, err := tx.Run(ctx,
				"MERGE (e:Entity {ref: $ref}) SET e.kind = $kind, e.name = $name",
				map[string]any{"ref": n.ID, "kind": n.Kind, "name": n.Name})
			if err != nil {
				return nil, err
			}
		}
		for _, e := range g.Edges {
			_, err := tx.Run(ctx,
				"MERGE (c:Entity {ref: $from}) "+
					"MERGE (p:Entity {ref: $to}) "+
					"MERGE (c)-[:CHILD_OF]->(p)",
				map[string]any{"from": e.From, "to": e.To})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store org chart: %w", err)
	}
	return nil
}

func (r *Neo4jRepository) LoadGraph(ctx context.Context) (*orgchart.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		g := &orgchart.Graph{}

		records, err := tx.Run(ctx,
			"MATCH (e:Entity) RETURN e.ref, e.kind, e.name ORDER BY e.ref", nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			ref, _ := rec.Get("e.ref")
			kind, _ := rec.Get("e.kind")
			name, _ := rec.Get("e.name")
			g.Nodes = append(g.Nodes, orgchart.Node{
				ID:   ref.(string),
				Kind: kind.(string),
				Name: name.(string),
			})
		}

		records, err = tx.Run(ctx,
			"MATCH (c:Entity)-[:CHILD_OF]->(p:Entity) RETURN c.ref, p.ref ORDER BY c.ref, p.ref", nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			from, _ := rec.Get("c.ref")
			to, _ := rec.Get("p.ref")
			g.Edges = append(g.Edges, orgchart.Edge{
				From:  from.(string),
				To:    to.(string),
				Label: "childOf",
			})
		}
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	g := result.(*orgchart.Graph)
	g.ComputeStats()
	return g, nil
}

func (r *Neo4jRepository) QueryChildren(ctx context.Context, ref string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// OPTIONAL MATCH distinguishes an unknown ref (no rows) from a
		// leaf with no children (one row with a null child).
		records, err := tx.Run(ctx,
			"MATCH (p:Entity {ref: $ref}) "+
				"OPTIONAL MATCH (c:Entity)-[:CHILD_OF]->(p) RETURN c.ref",
			map[string]any{"ref": ref})
		if err != nil {
			return nil, err
		}
		known := false
		var refs []string
		for records.Next(ctx) {
			known = true
			v, _ := records.Record().Get("c.ref")
			if v == nil {
				continue
			}
			refs = append(refs, v.(string))
		}
		if err := records.Err(); err != nil {
			return nil, err
		}
		if !known {
			return nil, fmt.Errorf("%w: %s", graphstore.ErrNotFound, ref)
		}
		sort.Strings(refs)
		return refs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graphstore.Repository = (*Neo4jRepository)(nil)
