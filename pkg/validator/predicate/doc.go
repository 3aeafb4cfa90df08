// Package predicate implements the small boolean expression language
// business rules are written in: column names and literals combined
// with AND, OR, NOT, and the comparison operators <= < >= > = !=.
// Expressions are parsed into an AST and evaluated directly — there is
// no eval() or code generation anywhere in this package, by design,
// since rule text ultimately comes from a YAML file an operator edits.
package predicate
