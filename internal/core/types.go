package core

import (
	"context"
	"io"
	"strings"
	"time"
)

// Format identifies one of the supported source file layouts.
type Format string

const (
	FormatDelimited Format = "delimited"
	FormatDocument  Format = "document"
	FormatMarkup    Format = "markup"
)

// Point is a WGS84 position. Longitude is X, Latitude is Y.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// POIRecord is the canonical shape every source format is normalized into.
// Build it with NewPOIRecord; treat it as read-only afterwards.
type POIRecord struct {
	ExternalID    string    `json:"external_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Location      Point     `json:"point"`
	Ratings       []float64 `json:"ratings"`
	AverageRating float64   `json:"average_rating"`
}

// NewPOIRecord trims the text fields, copies ratings and computes the average.
// An empty ratings slice is a normalization failure.
func NewPOIRecord(externalID, name, description, category string, latitude, longitude float64, ratings []float64) (POIRecord, error) {
	if len(ratings) == 0 {
		return POIRecord{}, &NormalizationError{Field: "ratings", Reason: "no ratings"}
	}

	values := make([]float64, len(ratings))
	copy(values, ratings)

	return POIRecord{
		ExternalID:    strings.TrimSpace(externalID),
		Name:          strings.TrimSpace(name),
		Description:   strings.TrimSpace(description),
		Category:      strings.TrimSpace(category),
		Location:      Point{Longitude: longitude, Latitude: latitude},
		Ratings:       values,
		AverageRating: Mean(values),
	}, nil
}

// StoredPOI is a persisted record as read back from a store.
type StoredPOI struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	POIRecord
}

// RawRecord is one undecoded row: field name to value as produced by a parser.
// Delimited and markup parsers produce string values; the document parser
// produces whatever the JSON holds (strings, json.Number, []any, map[string]any).
type RawRecord map[string]any

// RowReader is a finite, ordered, non-restartable sequence of raw rows.
// Next returns io.EOF once the sequence is exhausted. Any other error ends
// the sequence; rows already returned stay valid.
type RowReader interface {
	Next() (RawRecord, error)
}

// ParseFunc opens a streaming row reader over a file's contents.
type ParseFunc func(r io.Reader) RowReader

// NormalizeFunc converts one raw row into the canonical record.
type NormalizeFunc func(raw RawRecord) (POIRecord, error)

// FormatDefinition pairs a file extension with its parser and normalizer.
type FormatDefinition struct {
	Format    Format
	Extension string // Lowercase with leading dot: ".csv"
	Label     string
	Parse     ParseFunc
	Normalize NormalizeFunc
}

// Store persists canonical records.
type Store interface {
	// InsertMany writes records in one call and returns the number of rows
	// actually inserted. Rows violating a uniqueness constraint are skipped.
	InsertMany(ctx context.Context, records []POIRecord) (int, error)
}

// Ledger is the persisted set of content hashes of already imported files.
type Ledger interface {
	Contains(ctx context.Context, hash string) (bool, error)
	// Record adds hash to the set. Recording a known hash is not an error.
	Record(ctx context.Context, hash string) error
}

// POIFilter narrows a browse query.
type POIFilter struct {
	Category string // Exact match when non-empty
	Search   string // Exact match on ID or external ID when non-empty
	Limit    int
	Offset   int
}

// POIPage is one page of browse results, newest first.
type POIPage struct {
	Items []StoredPOI `json:"items"`
	Total int64       `json:"total"`
}

// Browser lists persisted records.
type Browser interface {
	ListPOIs(ctx context.Context, filter POIFilter) (POIPage, error)
}

// FilePhase is the state of one file in an import run.
type FilePhase string

const (
	PhasePending     FilePhase = "pending"
	PhaseHashChecked FilePhase = "hash_checked"
	PhaseSkipped     FilePhase = "skipped"
	PhaseParsing     FilePhase = "parsing"
	PhaseFailed      FilePhase = "failed"
	PhaseCompleted   FilePhase = "completed"
)

// Terminal reports whether no further transitions follow this phase.
func (p FilePhase) Terminal() bool {
	return p == PhaseSkipped || p == PhaseFailed || p == PhaseCompleted
}

// FileProgress is published on every phase change and after each flushed batch.
type FileProgress struct {
	Path       string
	Phase      FilePhase
	Records    int   // Records flushed so far
	BytesRead  int64 // Bytes consumed by the parser so far
	BytesTotal int64 // File size, 0 if unknown
}

// Percent returns byte-based progress (0-100).
func (p FileProgress) Percent() int {
	if p.BytesTotal <= 0 {
		return 0
	}
	return int(p.BytesRead * 100 / p.BytesTotal)
}

// ProgressCallback receives progress updates for the file being imported.
type ProgressCallback func(FileProgress)

// FileResult is the outcome of importing one file.
type FileResult struct {
	Path     string
	Format   Format
	Hash     string
	Phase    FilePhase // PhaseSkipped, PhaseFailed or PhaseCompleted
	Records  int       // Records in successfully flushed batches
	Inserted int       // Rows the store reported as inserted
	Err      error     // Non-nil iff Phase is PhaseFailed
	Duration time.Duration
}

// Summary aggregates the results of one import run.
type Summary struct {
	Files     []FileResult
	Processed int // Files that completed
	Skipped   int // Files already in the ledger
	Failed    int
	Records   int
	Elapsed   time.Duration
}

func (s *Summary) add(res FileResult) {
	s.Files = append(s.Files, res)
	s.Records += res.Records
	switch res.Phase {
	case PhaseCompleted:
		s.Processed++
	case PhaseSkipped:
		s.Skipped++
	case PhaseFailed:
		s.Failed++
	}
}
