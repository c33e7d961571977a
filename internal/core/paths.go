package core

import (
	"os"
	"path/filepath"
)

// ResolvePaths expands path arguments into the ordered list of files to import.
//
// A directory contributes its immediate regular files with a registered
// extension (sorted by name); other entries are skipped silently. A file must
// have a registered extension. Any other argument, or an unsupported file,
// fails the whole resolution with a *PathError. An empty result is
// ErrNoFilePaths.
func ResolvePaths(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		path := filepath.Clean(arg)

		info, err := os.Stat(path)
		if err != nil {
			return nil, &PathError{Path: arg, Err: err}
		}

		if !info.IsDir() {
			if !info.Mode().IsRegular() {
				return nil, &PathError{Path: arg, Err: ErrUnsupportedFormat}
			}
			if _, err := Lookup(path); err != nil {
				return nil, &PathError{Path: arg, Err: err}
			}
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, &PathError{Path: arg, Err: err}
		}
		for _, entry := range entries {
			if entry.IsDir() || !Supported(entry.Name()) {
				continue
			}
			full := filepath.Join(path, entry.Name())
			if fi, err := os.Stat(full); err != nil || !fi.Mode().IsRegular() {
				continue
			}
			files = append(files, full)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoFilePaths
	}
	return files, nil
}
