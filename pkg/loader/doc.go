// Package loader writes anonymized, validated staging files back into a
// target store under one transaction per store, and provides the
// symmetric DeleteByTenant-based rollback that undoes a load idempotently
// in reverse dependency order. Grounded on store/relational's
// Begin/Commit/Rollback contract and on cmd/warren-migrate/main.go's
// backup-then-apply-then-preserve-for-rollback shape, generalized from a
// single bbolt bucket copy to a multi-table SQL transaction.
package loader
