// Package extractor streams tenant-scoped rows out of a relational or
// graph store into columnar staging files, deriving an indirect join
// path when a table lacks the tenant column directly. Grounded on
// original_source/scripts/extractors/extract_with_relationships.py,
// which walks the same parent-FK chain to find a reachable tenant
// discriminator before falling back to "no tenant path" skip.
package extractor
