/*
Package types defines the core data structures shared across the district
migration pipeline.

This package contains the domain model used by every phase: store
descriptors and schema metadata, the cross-store dependency graph, tenant
filters, the staging file manifest, anonymization rules, and the reports
and manifests each phase emits.

# Architecture

The types package is the foundation of the pipeline's data model. It
defines:

  - Store topology (StoreDescriptor, TableSchema, ForeignKey)
  - Dependency analysis (DependencyGraph, TopologicalOrder, CycleReport)
  - Tenant scoping (TenantFilter)
  - Staging (StagedTable)
  - Anonymization (AnonymizationRule, RuleStrategy)
  - Reporting (ValidationReport, LoadManifest, RunManifest)

All types are designed to be:
  - Serializable (JSON)
  - Immutable within a run where the spec requires it (schema, rules)
  - Self-documenting (clear field names and comments)
*/
package types
