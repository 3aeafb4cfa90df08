package store

import (
	"context"

	"github.com/cuemby/districtmig/pkg/types"
)

// RowFunc is called once per row streamed out of a relational read. A
// non-nil return aborts the stream.
type RowFunc func(row map[string]any) error

// Relational is the capability set implemented by the PostgreSQL
// adapter: introspection, filtered read, bulk write, tenant delete, and
// single-transaction scoping.
type Relational interface {
	// Introspect reads catalog metadata for the configured schema.
	// The returned FK list reflects declared constraints only.
	Introspect(ctx context.Context) ([]types.TableSchema, error)

	// ReadFiltered streams rows for table matching filter, either
	// directly (table carries filter.Key) or via joinPath. fn is
	// called once per row in an unspecified but stable order.
	ReadFiltered(ctx context.Context, table string, filter types.TenantFilter, joinPath []types.JoinStep, fn RowFunc) error

	// WriteBulk applies rows to table under the currently open
	// transaction using strategy, returning the number of rows
	// affected.
	WriteBulk(ctx context.Context, table string, columns []string, rows []map[string]any, strategy types.LoadStrategy) (int64, error)

	// DeleteByTenant removes every row of table matching filter,
	// returning the number of rows deleted.
	DeleteByTenant(ctx context.Context, table string, filter types.TenantFilter) (int64, error)

	// Begin opens the single transaction this store holds for the
	// remainder of a phase.
	Begin(ctx context.Context) error
	// Commit commits the open transaction.
	Commit(ctx context.Context) error
	// Rollback rolls back the open transaction.
	Rollback(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close()
}

// GraphNode is one node exported from or imported into the graph store.
// InternalID is the store-native identifier, exported so edges can be
// reconstructed against it; it is never interpreted outside this store.
type GraphNode struct {
	InternalID int64          `json:"_internal_id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// GraphEdge is one relationship lying on a traversed path.
type GraphEdge struct {
	StartInternalID int64          `json:"start_internal_id"`
	Type            string         `json:"type"`
	EndInternalID   int64          `json:"end_internal_id"`
	Properties      map[string]any `json:"properties"`
}

// Graph is the capability set implemented by the Neo4j adapter.
// Introspect is intentionally absent: the graph store has no schema
// catalog; edges are relationships, not declared foreign keys.
type Graph interface {
	// ExtractNeighborhood performs a bounded-depth traversal from the
	// node {rootLabel: {key: rootKey}}, returning every distinct
	// reachable node and every edge lying on a traversed path.
	ExtractNeighborhood(ctx context.Context, rootLabel, rootKeyProperty, rootKey string, maxDepth int) ([]GraphNode, []GraphEdge, error)

	// LoadNodes merges nodes on their stable "id" property.
	LoadNodes(ctx context.Context, nodes []GraphNode) error
	// LoadEdges merges edges on (start, type, end) and replaces their
	// properties wholesale.
	LoadEdges(ctx context.Context, edges []GraphEdge) error

	// DeleteByTenant deletes every node reachable from the tenant
	// root in bounded depth, along with their incident edges.
	DeleteByTenant(ctx context.Context, rootLabel, rootKeyProperty, rootKey string, maxDepth int) (int64, error)

	Close(ctx context.Context) error
}
