package graph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4j implements store.Graph over a single Neo4j database via the
// official bolt driver.
type Neo4j struct {
	StoreID string
	driver  neo4j.DriverWithContext
}

var _ store.Graph = (*Neo4j)(nil)

// Connect opens a driver connection and verifies connectivity.
func Connect(ctx context.Context, storeID, uri, user, password string) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, &migerr.Connection{Store: storeID, Err: err}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, &migerr.Connection{Store: storeID, Err: err}
	}
	return &Neo4j{StoreID: storeID, driver: driver}, nil
}

// Close shuts down the driver.
func (n *Neo4j) Close(ctx context.Context) error { return n.driver.Close(ctx) }

func validateIdentifier(kind, value string) error {
	if !identifierPattern.MatchString(value) {
		return fmt.Errorf("graph(%s): invalid %s %q", kind, kind, value)
	}
	return nil
}

// ExtractNeighborhood performs a bounded-depth traversal from the node
// {rootLabel: {rootKeyProperty: rootKey}}, returning distinct reachable
// nodes and every edge lying on a traversed path.
func (n *Neo4j) ExtractNeighborhood(ctx context.Context, rootLabel, rootKeyProperty, rootKey string, maxDepth int) ([]store.GraphNode, []store.GraphEdge, error) {
	if err := validateIdentifier("label", rootLabel); err != nil {
		return nil, nil, err
	}
	if err := validateIdentifier("property", rootKeyProperty); err != nil {
		return nil, nil, err
	}

	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	nodes, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]store.GraphNode, error) {
		query := fmt.Sprintf(`
			MATCH path = (root:%s {%s: $rootKey})-[*0..%d]-(connected)
			RETURN DISTINCT id(connected) AS internal_id, labels(connected) AS labels, properties(connected) AS props`,
			rootLabel, rootKeyProperty, maxDepth)
		result, err := tx.Run(ctx, query, map[string]any{"rootKey": rootKey})
		if err != nil {
			return nil, err
		}
		var out []store.GraphNode
		for result.Next(ctx) {
			rec := result.Record()
			internalID, _ := rec.Get("internal_id")
			labels, _ := rec.Get("labels")
			props, _ := rec.Get("props")
			out = append(out, store.GraphNode{
				InternalID: internalID.(int64),
				Labels:     toStringSlice(labels),
				Properties: toMap(props),
			})
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, nil, &migerr.Data{Table: rootLabel, Err: err}
	}

	edges, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]store.GraphEdge, error) {
		query := fmt.Sprintf(`
			MATCH path = (root:%s {%s: $rootKey})-[*0..%d]-(connected)
			UNWIND relationships(path) AS rel
			RETURN DISTINCT id(startNode(rel)) AS start_id, type(rel) AS type, id(endNode(rel)) AS end_id, properties(rel) AS props`,
			rootLabel, rootKeyProperty, maxDepth)
		result, err := tx.Run(ctx, query, map[string]any{"rootKey": rootKey})
		if err != nil {
			return nil, err
		}
		var out []store.GraphEdge
		for result.Next(ctx) {
			rec := result.Record()
			startID, _ := rec.Get("start_id")
			relType, _ := rec.Get("type")
			endID, _ := rec.Get("end_id")
			props, _ := rec.Get("props")
			out = append(out, store.GraphEdge{
				StartInternalID: startID.(int64),
				Type:            relType.(string),
				EndInternalID:   endID.(int64),
				Properties:      toMap(props),
			})
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, nil, &migerr.Data{Table: rootLabel, Err: err}
	}

	return nodes, edges, nil
}

// LoadNodes merges nodes on their stable "id" property and stamps each
// with the source store's internal ID so LoadEdges can reattach edges
// extracted alongside them.
func (n *Neo4j) LoadNodes(ctx context.Context, nodes []store.GraphNode) error {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range nodes {
			label := "Node"
			if len(node.Labels) > 0 {
				label = node.Labels[0]
			}
			if err := validateIdentifier("label", label); err != nil {
				return nil, err
			}
			props := make(map[string]any, len(node.Properties)+1)
			for k, v := range node.Properties {
				props[k] = v
			}
			props["_internal_id"] = node.InternalID

			query := fmt.Sprintf(`MERGE (n:%s {id: $id}) SET n += $props`, label)
			if _, err := tx.Run(ctx, query, map[string]any{
				"id":    node.Properties["id"],
				"props": props,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return &migerr.Data{Table: "graph_nodes", Err: err}
	}
	return nil
}

// LoadEdges merges edges on (start, type, end) and replaces their
// properties wholesale: property replacement rather than merge avoids
// silently preserving stale values.
func (n *Neo4j) LoadEdges(ctx context.Context, edges []store.GraphEdge) error {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, edge := range edges {
			if err := validateIdentifier("relationship type", edge.Type); err != nil {
				return nil, err
			}
			query := fmt.Sprintf(`
				MATCH (s {_internal_id: $start}), (e {_internal_id: $end})
				MERGE (s)-[r:%s]->(e)
				SET r = $props`, edge.Type)
			if _, err := tx.Run(ctx, query, map[string]any{
				"start": edge.StartInternalID,
				"end":   edge.EndInternalID,
				"props": edge.Properties,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return &migerr.Data{Table: "graph_edges", Err: err}
	}
	return nil
}

// DeleteByTenant deletes every node reachable from the tenant root in
// bounded depth, along with their incident edges. Idempotent: deleting
// an already-empty neighborhood reports zero affected nodes.
func (n *Neo4j) DeleteByTenant(ctx context.Context, rootLabel, rootKeyProperty, rootKey string, maxDepth int) (int64, error) {
	if err := validateIdentifier("label", rootLabel); err != nil {
		return 0, err
	}
	if err := validateIdentifier("property", rootKeyProperty); err != nil {
		return 0, err
	}

	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	count, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (int64, error) {
		query := fmt.Sprintf(`
			MATCH (root:%s {%s: $rootKey})-[*0..%d]-(connected)
			WITH DISTINCT connected
			DETACH DELETE connected
			RETURN count(connected) AS deleted`,
			rootLabel, rootKeyProperty, maxDepth)
		result, err := tx.Run(ctx, query, map[string]any{"rootKey": rootKey})
		if err != nil {
			return 0, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return 0, err
		}
		deleted, _ := record.Get("deleted")
		return deleted.(int64), nil
	})
	if err != nil {
		return 0, &migerr.Data{Table: rootLabel, Err: err}
	}
	return count, nil
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}
