// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ListRelative recursively lists every entry below rootPath and returns the
// paths relative to rootPath, slash-separated regardless of platform.
// Directory entries carry a trailing "/" so that callers can tell them apart
// from files without another stat. A missing rootPath yields an empty slice
// rather than an error.
func ListRelative(rootPath string) ([]string, error) {
	if _, err := os.Stat(rootPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var entries []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		entries = append(entries, rel)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return entries, nil
}
