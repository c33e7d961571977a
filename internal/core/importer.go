package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Options configures an Importer. Zero values select the defaults.
type Options struct {
	BatchSize     int
	HashChunkSize int
	Out           io.Writer // Per-file report lines and summary; nil discards
	Metrics       *Metrics
	Logger        *slog.Logger
	Progress      ProgressCallback
}

// Importer drives the hash-check, parse, normalize and batch-load sequence
// over a list of files, one file at a time.
type Importer struct {
	store     Store
	dedup     *Deduplicator
	batchSize int
	report    *Reporter
	metrics   *Metrics
	logger    *slog.Logger
	progress  ProgressCallback
}

// NewImporter creates an Importer writing records to store and gating files on ledger.
func NewImporter(store Store, ledger Ledger, opts Options) *Importer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		store:     store,
		dedup:     NewDeduplicator(ledger, opts.HashChunkSize),
		batchSize: batchSize,
		report:    NewReporter(opts.Out),
		metrics:   opts.Metrics,
		logger:    logger,
		progress:  opts.Progress,
	}
}

// Run resolves args and imports every resulting file in order.
//
// Path resolution errors are returned before any file is touched. Per-file
// failures are reported and recorded in the summary but never returned.
func (im *Importer) Run(ctx context.Context, args []string) (*Summary, error) {
	start := time.Now()

	files, err := ResolvePaths(args)
	if err != nil {
		return nil, err
	}

	im.logger.Info("import started", "files", len(files), "batch_size", im.batchSize)

	summary := &Summary{}
	for _, path := range files {
		res := im.ImportFile(ctx, path)
		im.report.File(res)
		summary.add(res)
	}

	summary.Elapsed = time.Since(start)
	im.metrics.observeRun(summary.Elapsed)
	im.report.Summary(summary)

	im.logger.Info("import finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"records", summary.Records,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

// ImportFile runs one file through the pipeline:
// Pending -> HashChecked -> {Skipped | Parsing -> {Failed | Completed}}.
//
// The ledger entry is written only when at least one record was flushed and
// no error occurred. A failure partway through leaves earlier batches in the
// store and writes no ledger entry.
func (im *Importer) ImportFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	res := FileResult{Path: path, Phase: PhasePending}
	log := im.logger.With("file", path)

	finish := func(phase FilePhase, err error) FileResult {
		res.Phase = phase
		res.Err = err
		res.Duration = time.Since(start)
		im.notify(FileProgress{Path: path, Phase: phase, Records: res.Records})
		im.metrics.observeFile(res)
		if err != nil {
			log.Warn("file import failed", "error", err, "records", res.Records, "code", MapError(err).Code)
		} else {
			log.Info("file import finished", "phase", phase, "records", res.Records, "duration", res.Duration)
		}
		return res
	}

	def, err := Lookup(path)
	if err != nil {
		return finish(PhaseFailed, err)
	}
	res.Format = def.Format
	im.notify(FileProgress{Path: path, Phase: PhasePending})

	hash, err := im.dedup.Hash(path)
	if err != nil {
		return finish(PhaseFailed, err)
	}
	res.Hash = hash

	known, err := im.dedup.IsKnown(ctx, hash)
	if err != nil {
		return finish(PhaseFailed, err)
	}
	res.Phase = PhaseHashChecked
	im.notify(FileProgress{Path: path, Phase: PhaseHashChecked})
	if known {
		return finish(PhaseSkipped, nil)
	}

	res.Phase = PhaseParsing
	loader, err := im.load(ctx, path, def)
	if loader != nil {
		res.Records = loader.Flushed()
		res.Inserted = loader.Inserted()
	}
	if err != nil {
		return finish(PhaseFailed, err)
	}

	if res.Records > 0 {
		if err := im.dedup.Record(ctx, hash); err != nil {
			return finish(PhaseFailed, err)
		}
	}
	return finish(PhaseCompleted, nil)
}

// load streams one file through its parser, normalizer and a fresh batch loader.
// The loader is returned even on error so the caller can count flushed records.
func (im *Importer) load(ctx context.Context, path string, def FormatDefinition) (*BatchLoader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	r, counter := WrapForStreaming(f, size)

	loader := NewBatchLoader(im.store, im.batchSize)
	loader.onFlush = func(records int, d time.Duration) {
		im.metrics.observeBatch(records, def.Format, d)
		im.notify(FileProgress{
			Path:       path,
			Phase:      PhaseParsing,
			Records:    loader.Flushed(),
			BytesRead:  counter.BytesRead,
			BytesTotal: counter.Total,
		})
	}

	im.notify(FileProgress{Path: path, Phase: PhaseParsing, BytesTotal: size})

	rows := def.Parse(r)
	for row := 1; ; row++ {
		raw, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return loader, err
		}

		rec, err := def.Normalize(raw)
		if err != nil {
			return loader, &RowError{Row: row, Err: err}
		}

		if err := loader.Add(ctx, rec); err != nil {
			return loader, err
		}
	}

	if err := loader.Flush(ctx); err != nil {
		return loader, err
	}
	return loader, nil
}

func (im *Importer) notify(p FileProgress) {
	if im.progress != nil {
		im.progress(p)
	}
}
