package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned by Lookup for an unregistered extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoFilePaths is returned when the arguments resolve to no importable file.
	ErrNoFilePaths = errors.New("no file paths found")
)

// PathError is a bad path argument: missing, unreadable, or a file with an
// unsupported extension. It aborts the whole run before any file is processed.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path or unsupported file format %s (supported formats: %s): %v",
		e.Path, strings.Join(Extensions(), ", "), e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// ParseError is a row or document that could not be decoded into a mapping.
type ParseError struct {
	Record int // 1-based index of the record being read; 0 for the header or document
	Err    error
}

func (e *ParseError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("parse record %d: %v", e.Record, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NormalizationError is a raw row that cannot be turned into a POIRecord.
// It is scoped to that single row.
type NormalizationError struct {
	Field  string // Canonical field name
	Value  string // Offending raw value, if any
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("normalize %s: %s: %q", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("normalize %s: %s", e.Field, e.Reason)
}

// RowError attaches the 1-based row number to a per-row failure.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
