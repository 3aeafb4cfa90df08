// Package anonymizer rewrites staged columnar files column-by-column
// according to an ordered rule list, binding each column to its first
// matching rule and applying one of five strategies: synthetic, hash,
// token, null, or passthrough. A per-run consistency map keeps equal
// originals mapped to equal outputs so joins through anonymized
// columns still resolve after the transform.
package anonymizer
