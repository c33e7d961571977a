package core_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "c.xml", "")
	writeFile(t, dir, "a.CSV", "")
	writeFile(t, dir, "b.json", "")
	writeFile(t, dir, "skip.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub"), "deep.csv", "")

	single := writeFile(t, t.TempDir(), "one.json", "")

	files, err := core.ResolvePaths([]string{dir + "/", single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.CSV"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.xml"),
		single,
	}, files, "sorted, non-recursive, file arguments kept in order")
}

func TestResolvePathsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.csv")

	_, err := core.ResolvePaths([]string{missing})
	var pathErr *core.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, missing, pathErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "supported formats: .csv, .json, .xml")
}

func TestResolvePathsEmptyArgumentIsWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := core.ResolvePaths([]string{""})
	assert.ErrorIs(t, err, core.ErrNoFilePaths)

	writeFile(t, ".", "here.csv", "")
	files, err := core.ResolvePaths([]string{""})
	require.NoError(t, err)
	assert.Equal(t, []string{"here.csv"}, files)
}
