// Package graph implements store.Graph over Neo4j using the official
// neo4j-go-driver. It has no Introspect: the graph store has no schema
// catalog, and edges are relationships rather than declared foreign
// keys, so the schema analyzer treats this store's contribution as an
// empty schema and relies on root-plus-depth traversal in place of join
// paths.
package graph
