// Package core provides the business logic for Point of Interest file imports.
//
// The package holds the domain logic independent of any storage or transport
// layer. It can be driven by the CLI, the web server or tests without
// modification; stores and ledgers are injected through small interfaces.
//
// # Architecture
//
//   - Format registry: each supported extension maps to a parser and a
//     normalizer via [Register] and [Lookup].
//   - Parsers stream [RawRecord] rows through a [RowReader].
//   - Normalizers turn raw rows into the canonical [POIRecord].
//   - [Deduplicator] gates a file on its SHA-256 against a [Ledger].
//   - [BatchLoader] flushes records to a [Store] in fixed-size batches.
//   - [Importer] runs the whole sequence for every file of a run.
//
// # Format Registry
//
// Formats are registered at init time, usually by the formats package:
//
//	core.Register(core.FormatDefinition{
//	    Format:    core.FormatDelimited,
//	    Extension: ".csv",
//	    Label:     "Comma-separated values",
//	    Parse:     formats.ParseDelimited,
//	    Normalize: formats.Normalizer(core.FormatDelimited),
//	})
//
// # File Lifecycle
//
// Each file moves through Pending, HashChecked and then either Skipped or
// Parsing. Parsing ends in Failed or Completed. Batches flushed before a
// failure stay in the store, and the ledger entry is written only for a
// completed file with at least one record, so a failed file is retried on
// the next run.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - PATH001-PATH003: Path resolution errors (unsupported, empty, missing)
//   - PARSE001, NORM001: Malformed files and unconvertible records
//   - DB001-DB006: Database errors (duplicates, connections, schema)
package core
