package desk

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/couchdesk/internal/fsutil"
)

// ErrUnsupportedSource reports a search root whose backend the desk cannot
// enumerate. The desk records it as an advisory and skips the root.
var ErrUnsupportedSource = errors.New("unsupported search root")

// Source is one search root that may hold a design-docs tree. Both variants
// produce the same flat path-set contract: slash-separated paths relative to
// the designated root, directories marked by a trailing slash.
type Source interface {
	// Name identifies the source in logs and advisories.
	Name() string

	// Enumerate lists every resource below the named root directory. A
	// source that does not contain the root yields an empty set, not an
	// error.
	Enumerate(root string) ([]string, error)

	// Open returns the bytes of a single resource. The name is
	// slash-separated and includes the root segment, e.g.
	// "design-docs/example/views/byDate/map.js". A missing resource
	// reports fs.ErrNotExist.
	Open(name string) ([]byte, error)
}

// OpenSource sniffs the backend for path exactly once: a directory becomes
// a DirSource, a .zip or .jar file an ArchiveSource, anything else is an
// unsupported backend.
func OpenSource(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return NewDirSource(path), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".jar":
		return NewArchiveSource(path), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
}

// DirSource serves resources from a plain directory hierarchy.
type DirSource struct {
	base string
}

// NewDirSource creates a source rooted at the given directory.
func NewDirSource(base string) *DirSource {
	return &DirSource{base: base}
}

func (s *DirSource) Name() string { return s.base }

func (s *DirSource) Enumerate(root string) ([]string, error) {
	return fsutil.ListRelative(filepath.Join(s.base, root))
}

func (s *DirSource) Open(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.base, filepath.FromSlash(name)))
}

// ArchiveSource serves resources from a zip or jar container. Archive
// entries are already flat named paths, so enumeration is a prefix
// selection rather than a walk; directory entries keep their trailing
// slash marker.
type ArchiveSource struct {
	path string
}

// NewArchiveSource creates a source backed by the archive file at path.
func NewArchiveSource(path string) *ArchiveSource {
	return &ArchiveSource{path: path}
}

func (s *ArchiveSource) Name() string { return s.path }

func (s *ArchiveSource) Enumerate(root string) ([]string, error) {
	r, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	prefix := root + "/"
	var entries []string
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		rel := f.Name[len(prefix):]
		if rel == "" {
			continue
		}
		entries = append(entries, rel)
	}
	return entries, nil
}

func (s *ArchiveSource) Open(name string) ([]byte, error) {
	r, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := r.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
