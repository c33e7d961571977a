package core

import (
	"context"
	"fmt"
	"time"
)

// DefaultBatchSize is the number of records sent per insert-many call.
const DefaultBatchSize = 8192

// BatchLoader accumulates records and flushes fixed-size batches to a store.
// Flushes are synchronous: Add blocks until the store call returns. Each batch
// stands alone, so a failure never undoes batches already flushed.
type BatchLoader struct {
	store    Store
	size     int
	pending  []POIRecord
	flushed  int
	inserted int
	batches  int
	onFlush  func(records int, d time.Duration)
}

// NewBatchLoader creates a loader. size <= 0 uses DefaultBatchSize.
func NewBatchLoader(store Store, size int) *BatchLoader {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchLoader{
		store:   store,
		size:    size,
		pending: make([]POIRecord, 0, min(size, 1024)),
	}
}

// Add queues rec and flushes once the pending count reaches the batch size.
func (b *BatchLoader) Add(ctx context.Context, rec POIRecord) error {
	b.pending = append(b.pending, rec)
	if len(b.pending) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush sends any pending records. A no-op when nothing is pending.
func (b *BatchLoader) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	start := time.Now()
	n, err := b.store.InsertMany(ctx, b.pending)
	if err != nil {
		return fmt.Errorf("insert batch of %d: %w", len(b.pending), err)
	}

	count := len(b.pending)
	b.flushed += count
	b.inserted += n
	b.batches++
	if b.onFlush != nil {
		b.onFlush(count, time.Since(start))
	}

	// The store may retain the slice it was given; start a fresh one.
	b.pending = make([]POIRecord, 0, cap(b.pending))
	return nil
}

// Pending returns the number of records waiting for the next flush.
func (b *BatchLoader) Pending() int { return len(b.pending) }

// Flushed returns the number of records in successfully flushed batches.
func (b *BatchLoader) Flushed() int { return b.flushed }

// Inserted returns the number of rows the store reported as inserted.
func (b *BatchLoader) Inserted() int { return b.inserted }

// Batches returns the number of successful flushes.
func (b *BatchLoader) Batches() int { return b.batches }
