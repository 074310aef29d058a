package domain

import (
	"fmt"
	"strings"
)

// SchemaError is returned when a table is missing required columns.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// DataTypeError is returned when a cell cannot be parsed or is out of range.
type DataTypeError struct {
	Column string
	Line   int // 1-based file line, header is line 1
	Value  string
	Reason string
}

func (e *DataTypeError) Error() string {
	return fmt.Sprintf("line %d column %s: invalid value %q: %s", e.Line, e.Column, e.Value, e.Reason)
}

// InsufficientDataError is returned when a stratified split is impossible.
type InsufficientDataError struct {
	Positives int
	Negatives int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for stratified split: %d positives, %d negatives (need at least 2 of each)",
		e.Positives, e.Negatives)
}

// MissingArtifactError is returned when a required file is absent or unreadable.
type MissingArtifactError struct {
	Path string
	Err  error
}

func (e *MissingArtifactError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("missing artifact %s", e.Path)
	}
	return fmt.Sprintf("missing artifact %s: %v", e.Path, e.Err)
}

func (e *MissingArtifactError) Unwrap() error { return e.Err }
