// Package schema builds the cross-store table dependency graph from
// foreign-key metadata, runs Kahn's algorithm to produce an extraction
// order, enumerates simple cycles by DFS, and suggests a deterministic
// break-point for each cycle found.
//
// Every traversal here iterates in sorted qualified-name order so that
// identical catalog input always yields identical output, per the
// analyzer's determinism requirement.
package schema
