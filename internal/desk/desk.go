package desk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/vk/couchdesk/internal/couch"
	"github.com/vk/couchdesk/internal/ctxlog"
)

// ErrUnknownDocument reports a request for a document name that the catalog
// does not contain.
var ErrUnknownDocument = errors.New("no design document found")

// Config describes where and how a Desk finds its sources.
type Config struct {
	// Paths are the search roots, each a directory or a zip/jar archive.
	Paths []string
	// Root is the directory name anchoring the design-doc tree inside
	// every search root. Defaults to "design-docs".
	Root string
	// Language is the language tag stamped on assembled documents.
	// Defaults to "javascript".
	Language string
	// Extension is the recognized source-file extension. Defaults to ".js".
	Extension string
}

// Desk assembles design documents from the local resource hierarchy. The
// catalog is built on first use under a one-time guard; see the package
// documentation for the lifecycle.
type Desk struct {
	cfg     Config
	sources []Source

	once    sync.Once
	catalog *Catalog
}

// New creates a Desk over the search roots named in cfg.Paths. The roots
// are opened lazily when the catalog is first needed.
func New(cfg Config) *Desk {
	return &Desk{cfg: withDefaults(cfg)}
}

// NewFromSources creates a Desk over pre-built sources, bypassing backend
// sniffing. cfg.Paths is ignored.
func NewFromSources(cfg Config, sources ...Source) *Desk {
	return &Desk{cfg: withDefaults(cfg), sources: sources}
}

func withDefaults(cfg Config) Config {
	if cfg.Root == "" {
		cfg.Root = "design-docs"
	}
	if cfg.Language == "" {
		cfg.Language = "javascript"
	}
	if cfg.Extension == "" {
		cfg.Extension = ".js"
	}
	return cfg
}

// Catalog returns the desk's catalog, building it on first call.
func (d *Desk) Catalog(ctx context.Context) *Catalog {
	d.once.Do(func() {
		d.catalog = d.buildCatalog(ctx)
	})
	return d.catalog
}

// DocumentNames returns the names of every design document on the desk.
func (d *Desk) DocumentNames(ctx context.Context) []string {
	return d.Catalog(ctx).DocumentNames()
}

// buildCatalog opens the configured search roots, enumerates and merges
// their resource sets, and classifies the result. Root-level failures are
// advisories, never fatal: a desk with no readable roots is simply empty.
func (d *Desk) buildCatalog(ctx context.Context) *Catalog {
	logger := ctxlog.FromContext(ctx)
	var advisories []Advisory

	if d.sources == nil {
		for _, p := range d.cfg.Paths {
			src, err := OpenSource(p)
			if err != nil {
				kind := AdvisoryEnumerationFailure
				if errors.Is(err, ErrUnsupportedSource) {
					kind = AdvisoryUnsupportedSource
					logger.Debug("Not enumerating design resources in search root.", "path", p)
				} else {
					logger.Warn("Cannot open search root.", "path", p, "error", err)
				}
				advisories = append(advisories, Advisory{Kind: kind, Source: p, Err: err})
				continue
			}
			d.sources = append(d.sources, src)
		}
	}

	// Merge the per-source path sets. First occurrence wins; a file path
	// seen again in a later source is flagged but never merged.
	seen := make(map[string]string)
	var paths []string
	for _, src := range d.sources {
		entries, err := src.Enumerate(d.cfg.Root)
		if err != nil {
			logger.Warn("Cannot enumerate design resources in search root.", "source", src.Name(), "error", err)
			advisories = append(advisories, Advisory{Kind: AdvisoryEnumerationFailure, Source: src.Name(), Err: err})
			continue
		}
		for _, entry := range entries {
			entry = strings.ReplaceAll(entry, `\`, "/")
			if first, dup := seen[entry]; dup {
				if !strings.HasSuffix(entry, "/") {
					logger.Warn("Design resource duplicate.", "path", entry, "source", src.Name(), "first_seen", first)
					advisories = append(advisories, Advisory{Kind: AdvisoryDuplicateResource, Source: src.Name(), Path: entry})
				}
				continue
			}
			seen[entry] = src.Name()
			paths = append(paths, entry)
		}
	}
	if len(paths) == 0 {
		logger.Debug("No design resources found in any search root.", "root", d.cfg.Root)
	}

	catalog := classify(paths, d.cfg.Extension)
	catalog.advisories = advisories
	logger.Debug("Design-doc catalog built.",
		"documents", len(catalog.docs),
		"resources", len(paths),
		"advisories", len(advisories),
	)
	return catalog
}

// GetFromDesk assembles the named design document from the desk. The
// document is rebuilt fresh on every call: member files are re-read and
// macro-expanded each time. There are no partial results; any error aborts
// the whole build.
func (d *Desk) GetFromDesk(ctx context.Context, name string) (*couch.DesignDocument, error) {
	if name == "" {
		return nil, fmt.Errorf("name may not be empty")
	}
	catalog := d.Catalog(ctx)
	if !catalog.HasDocument(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, name)
	}
	ctxlog.FromContext(ctx).Debug("Assembling design document from desk.", "name", name)

	doc := &couch.DesignDocument{
		ID:       couch.DesignPrefix + name,
		Language: d.cfg.Language,
	}

	var err error
	if doc.Lists, err = d.readFunctions(name, catalog.category(CategoryLists, name)); err != nil {
		return nil, err
	}
	if doc.Filters, err = d.readFunctions(name, catalog.category(CategoryFilters, name)); err != nil {
		return nil, err
	}
	if doc.Shows, err = d.readFunctions(name, catalog.category(CategoryShows, name)); err != nil {
		return nil, err
	}

	validators := catalog.category(CategoryValidate, name)
	if len(validators) > 1 {
		return nil, fmt.Errorf("expecting exactly one %s function file for document %q, found %d",
			CategoryValidate, name, len(validators))
	}
	if len(validators) == 1 {
		body, err := d.readFunction(name, validators[0])
		if err != nil {
			return nil, err
		}
		doc.ValidateDocUpdate = body
	}

	if doc.Views, err = d.readFunctionGroups(name, catalog.group(GroupViews, name)); err != nil {
		return nil, err
	}
	if doc.Fulltext, err = d.readFunctionGroups(name, catalog.group(GroupFulltext, name)); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetAllFromDesk assembles every design document in the catalog, sorted by
// name. The first build failure aborts the batch.
func (d *Desk) GetAllFromDesk(ctx context.Context) ([]*couch.DesignDocument, error) {
	names := d.DocumentNames(ctx)
	docs := make([]*couch.DesignDocument, 0, len(names))
	for _, name := range names {
		doc, err := d.GetFromDesk(ctx, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// readFunctions reads and macro-expands every member file of one simple
// category, keyed by base name. An empty category yields nil so that the
// field is omitted from the document.
func (d *Desk) readFunctions(doc string, files []string) (map[string]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	functions := make(map[string]string, len(files))
	for _, f := range files {
		body, err := d.readFunction(doc, f)
		if err != nil {
			return nil, err
		}
		functions[d.basename(f)] = body
	}
	return functions, nil
}

// readFunctionGroups assembles the two-level subgroup -> role -> body
// mapping of one grouped category.
func (d *Desk) readFunctionGroups(doc string, subgroups map[string][]string) (map[string]map[string]string, error) {
	if len(subgroups) == 0 {
		return nil, nil
	}
	groups := make(map[string]map[string]string, len(subgroups))
	for sub, files := range subgroups {
		functions := make(map[string]string, len(files))
		for _, f := range files {
			body, err := d.readFunction(doc, f)
			if err != nil {
				return nil, err
			}
			functions[d.basename(f)] = body
		}
		groups[sub] = functions
	}
	return groups, nil
}

// readFunction reads one member file and runs it through the macro
// preprocessor. res is the catalog's resource path, relative to the root.
func (d *Desk) readFunction(doc, res string) (string, error) {
	data, err := d.readResource(path.Join(d.cfg.Root, res))
	if err != nil {
		return "", fmt.Errorf("failed to read function file %s: %w", res, err)
	}
	return d.expandMacros(doc, res, string(data))
}

// readResource reads one resource across the sources in order; the first
// source that has it wins. All source text is treated as UTF-8.
func (d *Desk) readResource(name string) ([]byte, error) {
	for _, src := range d.sources {
		data, err := src.Open(name)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return nil, fmt.Errorf("failed to read %s from %s: %w", name, src.Name(), err)
	}
	return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
}

// basename strips the directory part and the source extension.
func (d *Desk) basename(res string) string {
	return strings.TrimSuffix(path.Base(res), d.cfg.Extension)
}
