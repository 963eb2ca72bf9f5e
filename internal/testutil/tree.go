// Package testutil builds throwaway project trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
)

// WriteTree creates files under root. Keys are slash-separated paths relative
// to root; parent directories are created as needed.
func WriteTree(root string, files map[string]string) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		out := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(files[p]), 0o644); err != nil {
			return err
		}
	}
	return nil
}
