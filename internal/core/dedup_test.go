package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHashFileMatchesSHA256(t *testing.T) {
	content := strings.Repeat("poi_id,poi_name\n1,a\n", 2000) // spans several chunks
	path := writeTemp(t, "a.csv", content)

	sum := sha256.Sum256([]byte(content))
	want := hex.EncodeToString(sum[:])

	for _, chunk := range []int{0, 1, 7, DefaultHashChunkSize, len(content) + 1} {
		got, err := HashFile(path, chunk)
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunk size %d", chunk)
	}
}

func TestHashFileIgnoresName(t *testing.T) {
	a := writeTemp(t, "first.csv", "same bytes")
	b := writeTemp(t, "renamed.json", "same bytes")
	c := writeTemp(t, "first.csv", "same bytes ")

	ha, err := HashFile(a, 0)
	require.NoError(t, err)
	hb, err := HashFile(b, 0)
	require.NoError(t, err)
	hc, err := HashFile(c, 0)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
	assert.Len(t, ha, 64)
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope.csv"), 0)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestHashFileChunkSizeIndependent(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 4096).Draw(t, "data")
		chunk := rapid.IntRange(1, 9000).Draw(t, "chunk")

		path := filepath.Join(dir, "f.bin")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := HashFile(path, chunk)
		if err != nil {
			t.Fatal(err)
		}
		sum := sha256.Sum256(data)
		if got != hex.EncodeToString(sum[:]) {
			t.Fatalf("chunk %d: digest mismatch", chunk)
		}
	})
}

type mapLedger struct {
	hashes map[string]bool
	err    error
}

func (l *mapLedger) Contains(_ context.Context, hash string) (bool, error) {
	return l.hashes[hash], l.err
}

func (l *mapLedger) Record(_ context.Context, hash string) error {
	if l.err != nil {
		return l.err
	}
	l.hashes[hash] = true
	return nil
}

func TestDeduplicator(t *testing.T) {
	ctx := context.Background()
	ledger := &mapLedger{hashes: map[string]bool{}}
	d := NewDeduplicator(ledger, 0)

	hash, err := d.Hash(writeTemp(t, "x.xml", "<DATA_RECORD/>"))
	require.NoError(t, err)

	known, err := d.IsKnown(ctx, hash)
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, d.Record(ctx, hash))
	require.NoError(t, d.Record(ctx, hash))

	known, err = d.IsKnown(ctx, hash)
	require.NoError(t, err)
	assert.True(t, known)
	assert.Len(t, ledger.hashes, 1)

	ledger.err = errors.New("connection reset by peer")
	_, err = d.IsKnown(ctx, hash)
	assert.ErrorContains(t, err, "ledger lookup")
	assert.ErrorContains(t, d.Record(ctx, hash), "ledger record")
}
