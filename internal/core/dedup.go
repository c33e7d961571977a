package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultHashChunkSize is the read size used while hashing a file.
const DefaultHashChunkSize = 8192

// HashFile returns the hex SHA-256 of the file's raw bytes, read chunkSize
// bytes at a time. The digest depends only on content, never on name or mtime.
func HashFile(path string, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultHashChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read for hashing: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Deduplicator gates files on their content hash against a ledger.
type Deduplicator struct {
	ledger    Ledger
	chunkSize int
}

// NewDeduplicator creates a Deduplicator. chunkSize <= 0 uses DefaultHashChunkSize.
func NewDeduplicator(ledger Ledger, chunkSize int) *Deduplicator {
	if chunkSize <= 0 {
		chunkSize = DefaultHashChunkSize
	}
	return &Deduplicator{ledger: ledger, chunkSize: chunkSize}
}

// Hash computes the content hash of the file at path.
func (d *Deduplicator) Hash(path string) (string, error) {
	return HashFile(path, d.chunkSize)
}

// IsKnown reports whether hash was already recorded.
func (d *Deduplicator) IsKnown(ctx context.Context, hash string) (bool, error) {
	known, err := d.ledger.Contains(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return known, nil
}

// Record adds hash to the ledger.
func (d *Deduplicator) Record(ctx context.Context, hash string) error {
	if err := d.ledger.Record(ctx, hash); err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}
