package rangeserve

import (
	"fmt"
	"regexp"
)

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	MetaData string `mapstructure:"meta_data" yaml:"meta_data"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.MetaData == "" {
		return fmt.Errorf("validate tables: %w: metadata table name cannot be empty", ErrInvalidInput)
	}

	if !IsValidTableName(t.MetaData) {
		return fmt.Errorf("validate tables: %w: invalid metadata table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", ErrInvalidInput, t.MetaData)
	}

	return nil
}
