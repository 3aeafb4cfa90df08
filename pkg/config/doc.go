// Package config loads per-store credentials and the anonymization salt
// from the environment once at phase start into an immutable Store value,
// and loads anonymization/validation rule files from YAML.
package config
