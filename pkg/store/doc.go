// Package store defines the capability surface shared by every backend
// adapter: introspection, filtered reads, bulk writes, tenant deletes,
// and transaction scoping. The relational and graph backends differ
// substantially in what they can do — the graph adapter has no concept
// of a foreign key and reports an empty schema from Introspect — so the
// two concrete implementations live in the relational and graph
// sub-packages rather than sharing a struct.
package store
