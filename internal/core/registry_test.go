package core

import (
	"errors"
	"io"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateRegistry swaps in an empty registry for the duration of the test.
func isolateRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := maps.Clone(registry)
	registryMu.Unlock()

	Clear()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

type emptyRows struct{}

func (emptyRows) Next() (RawRecord, error) { return nil, io.EOF }

func testDefinition(ext string) FormatDefinition {
	return FormatDefinition{
		Format:    FormatDelimited,
		Extension: ext,
		Label:     "test",
		Parse:     func(io.Reader) RowReader { return emptyRows{} },
		Normalize: func(RawRecord) (POIRecord, error) { return POIRecord{}, nil },
	}
}

func TestRegisterAndLookup(t *testing.T) {
	isolateRegistry(t)

	Register(testDefinition("TST"))
	Register(testDefinition(".alt"))

	assert.Equal(t, 2, FormatCount())
	assert.Equal(t, []string{".alt", ".tst"}, Extensions())

	for _, name := range []string{"data.tst", "DATA.TST", "/some/dir/x.Tst", ".tst"} {
		def, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, ".tst", def.Extension)
	}

	assert.True(t, Supported("a.alt"))
	assert.False(t, Supported("a.txt"))
	assert.False(t, Supported("noext"))
}

func TestLookupUnknown(t *testing.T) {
	isolateRegistry(t)

	_, err := Lookup("points.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), ".yaml")
}

func TestRegisterPanics(t *testing.T) {
	isolateRegistry(t)

	Register(testDefinition(".tst"))
	assert.Panics(t, func() { Register(testDefinition(".TST")) }, "duplicate extension")

	incomplete := testDefinition(".new")
	incomplete.Parse = nil
	assert.Panics(t, func() { Register(incomplete) }, "missing parser")

	assert.Panics(t, func() { Register(testDefinition("")) }, "missing extension")
}
