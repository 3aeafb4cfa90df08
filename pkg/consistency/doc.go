// Package consistency implements the anonymization engine's shared
// consistency map: a (rule_name, original_value) -> anonymized_value
// mapping that makes deterministic strategies (synthetic, hash, token)
// stable across rows, preserving foreign-key joins post-anonymization.
//
// Concurrency follows the per-rule-name shard permitted as an
// optimization over a single mutex: every rule name hashes to one of a
// fixed number of shards, each guarded by its own mutex, so unrelated
// rules never contend. Persistence is bbolt-backed, one bucket per rule
// name, written atomically via a temp-file-then-rename.
package consistency
