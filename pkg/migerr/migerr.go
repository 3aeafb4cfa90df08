// Package migerr defines the error taxonomy shared by every migration
// phase: configuration, connection, schema, filter, data, PII-leak,
// validation, and cancellation failures. Each type carries an ErrorType
// string so a phase can render {success: false, error, error_type} without
// string-matching on messages.
package migerr

import "fmt"

// Config signals a missing credential, missing salt, or unreadable rules
// file. Fatal at phase start; never retried.
type Config struct {
	Msg string
	Err error
}

func (e *Config) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Msg)
}
func (e *Config) Unwrap() error  { return e.Err }
func (e *Config) ErrorType() string { return "Configuration" }

// Connection signals that a store could not be reached. Fatal at phase
// start; no partial output is produced beyond what was already durable.
type Connection struct {
	Store string
	Err   error
}

func (e *Connection) Error() string {
	return fmt.Sprintf("connection: %s: %v", e.Store, e.Err)
}
func (e *Connection) Unwrap() error  { return e.Err }
func (e *Connection) ErrorType() string { return "Connection" }

// Schema signals an unknown table or column referenced by configuration
// or a rule.
type Schema struct {
	Table string
	Msg   string
}

func (e *Schema) Error() string      { return fmt.Sprintf("schema: %s: %s", e.Table, e.Msg) }
func (e *Schema) ErrorType() string  { return "Schema" }

// Filter signals that a table lacks the tenant discriminator column and
// no join path was supplied to reach it indirectly.
type Filter struct {
	Table string
}

func (e *Filter) Error() string {
	return fmt.Sprintf("filter: table %q has no tenant column and no join path was provided", e.Table)
}
func (e *Filter) ErrorType() string { return "Filter" }

// Data signals an integrity violation or type-conversion failure scoped
// to a single table's read or write.
type Data struct {
	Table string
	Err   error
}

func (e *Data) Error() string     { return fmt.Sprintf("data: %s: %v", e.Table, e.Err) }
func (e *Data) Unwrap() error     { return e.Err }
func (e *Data) ErrorType() string { return "Data" }

// Leak signals a sentinel match in the anonymizer's output scan. Flips
// the anonymization phase to failed and blocks the validator from
// running.
type Leak struct {
	Column string
	Sample string
}

func (e *Leak) Error() string {
	return fmt.Sprintf("pii leak: column %q retained an original-looking value %q", e.Column, e.Sample)
}
func (e *Leak) ErrorType() string { return "PII-leak" }

// Validation signals that a validation family reported at least one
// error-severity finding, preventing loading.
type Validation struct {
	Failed int
}

func (e *Validation) Error() string {
	return fmt.Sprintf("validation failed: %d error-severity findings", e.Failed)
}
func (e *Validation) ErrorType() string { return "Validation-failure" }

// Cancelled signals an observed cancellation at a row-stream or
// table boundary.
type Cancelled struct {
	Phase string
}

func (e *Cancelled) Error() string     { return fmt.Sprintf("cancelled during %s", e.Phase) }
func (e *Cancelled) ErrorType() string { return "Cancelled" }

// Typed is implemented by every error in this package so callers can
// recover the §7 error_type string without a type switch.
type Typed interface {
	error
	ErrorType() string
}

// TypeOf returns the ErrorType of err if it (or something it wraps)
// implements Typed, else "Unknown".
func TypeOf(err error) string {
	var t Typed
	if asTyped(err, &t) {
		return t.ErrorType()
	}
	return "Unknown"
}

func asTyped(err error, target *Typed) bool {
	for err != nil {
		if t, ok := err.(Typed); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
