package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]FormatDefinition)
	registryMu sync.RWMutex
)

// Register adds a format definition to the registry, keyed by extension.
// Panics if the extension is already registered or the definition is incomplete.
func Register(def FormatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	ext := normalizeExt(def.Extension)
	if ext == "" || def.Parse == nil || def.Normalize == nil {
		panic(fmt.Sprintf("incomplete format definition: %q", def.Extension))
	}
	if _, exists := registry[ext]; exists {
		panic(fmt.Sprintf("format already registered: %s", ext))
	}

	def.Extension = ext
	registry[ext] = def
}

// Lookup returns the format definition for a file path or bare extension.
// Matching is case-insensitive. Returns ErrUnsupportedFormat when unknown.
func Lookup(pathOrExt string) (FormatDefinition, error) {
	ext := filepath.Ext(pathOrExt)

	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[normalizeExt(ext)]
	if !ok {
		return FormatDefinition{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return def, nil
}

// Supported reports whether path has a registered extension.
func Supported(path string) bool {
	_, err := Lookup(path)
	return err == nil
}

// Extensions returns all registered extensions, sorted.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered formats.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]FormatDefinition)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
