package desk

import (
	"sort"
	"strings"
)

// Function categories and groups recognized under a document directory.
const (
	CategoryLists    = "lists"
	CategoryFilters  = "filters"
	CategoryShows    = "shows"
	CategoryValidate = "validate_doc_update"

	GroupViews    = "views"
	GroupFulltext = "fulltext"
)

var (
	categories = []string{CategoryLists, CategoryFilters, CategoryShows, CategoryValidate}

	// Fixed role vocabularies per group. Files under a subgroup whose base
	// name is not in the vocabulary are silently excluded.
	groupRoles = map[string][]string{
		GroupViews:    {"map", "reduce"},
		GroupFulltext: {"index", "defaults", "analyzer"},
	}
)

// AdvisoryKind classifies an anomaly observed while building the catalog.
type AdvisoryKind int

const (
	// AdvisoryDuplicateResource marks a file path that appeared in more
	// than one search root; the first occurrence wins.
	AdvisoryDuplicateResource AdvisoryKind = iota
	// AdvisoryUnsupportedSource marks a search root with a backend the
	// desk cannot enumerate.
	AdvisoryUnsupportedSource
	// AdvisoryEnumerationFailure marks a search root that could not be
	// read; the root was skipped.
	AdvisoryEnumerationFailure
)

func (k AdvisoryKind) String() string {
	switch k {
	case AdvisoryDuplicateResource:
		return "duplicate_resource"
	case AdvisoryUnsupportedSource:
		return "unsupported_source"
	case AdvisoryEnumerationFailure:
		return "enumeration_failure"
	}
	return "unknown"
}

// Advisory is one non-fatal anomaly from catalog construction.
type Advisory struct {
	Kind   AdvisoryKind
	Source string // search root that produced the event
	Path   string // resource path, for duplicate events
	Err    error  // underlying error, when there is one
}

// Catalog is the classified, immutable view of the desk: the document name
// set plus per-document category and group membership. Only resource paths
// live here; file contents are read at assembly time.
type Catalog struct {
	docs       map[string]struct{}
	categories map[string]map[string][]string            // category -> doc -> member files
	groups     map[string]map[string]map[string][]string // group -> doc -> subgroup -> role files
	advisories []Advisory
}

// DocumentNames returns all design-document names, sorted.
func (c *Catalog) DocumentNames() []string {
	names := make([]string, 0, len(c.docs))
	for name := range c.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasDocument reports whether name denotes a known design document.
func (c *Catalog) HasDocument(name string) bool {
	_, ok := c.docs[name]
	return ok
}

// Advisories returns the anomalies collected while the catalog was built.
func (c *Catalog) Advisories() []Advisory {
	return c.advisories
}

func (c *Catalog) category(category, doc string) []string {
	return c.categories[category][doc]
}

func (c *Catalog) group(group, doc string) map[string][]string {
	return c.groups[group][doc]
}

// classify partitions the flat resource path set into the catalog. Paths are
// slash-separated; ext is the recognized source-file extension.
func classify(paths []string, ext string) *Catalog {
	c := &Catalog{
		docs:       make(map[string]struct{}),
		categories: make(map[string]map[string][]string),
		groups:     make(map[string]map[string]map[string][]string),
	}
	for _, category := range categories {
		c.categories[category] = make(map[string][]string)
	}
	for group := range groupRoles {
		c.groups[group] = make(map[string]map[string][]string)
	}

	// A top-level directory entry is a document name: a single segment and
	// the trailing separator, nothing else.
	for _, p := range paths {
		segs, isDir := splitResource(p)
		if isDir && len(segs) == 1 && segs[0] != "" {
			c.docs[segs[0]] = struct{}{}
		}
	}

	for doc := range c.docs {
		for _, category := range categories {
			if members := selectCategory(paths, doc, category, ext); len(members) > 0 {
				c.categories[category][doc] = members
			}
		}
		for group, roles := range groupRoles {
			if subgroups := selectGroup(paths, doc, group, roles, ext); len(subgroups) > 0 {
				c.groups[group][doc] = subgroups
			}
		}
	}
	return c
}

// selectCategory collects <doc>/<category>/<anything><ext> files, sorted.
func selectCategory(paths []string, doc, category, ext string) []string {
	var members []string
	for _, p := range paths {
		segs, isDir := splitResource(p)
		if isDir || len(segs) != 3 {
			continue
		}
		if segs[0] == doc && segs[1] == category && isSourceFile(segs[2], ext) {
			members = append(members, p)
		}
	}
	sort.Strings(members)
	return members
}

// selectGroup first discovers <doc>/<group>/<subgroup>/ directories, then
// collects the recognized role files inside each. A subgroup directory with
// no matching role files still yields an (empty) entry.
func selectGroup(paths []string, doc, group string, roles []string, ext string) map[string][]string {
	subgroups := make(map[string][]string)
	for _, p := range paths {
		segs, isDir := splitResource(p)
		if isDir && len(segs) == 3 && segs[0] == doc && segs[1] == group && segs[2] != "" {
			subgroups[segs[2]] = nil
		}
	}
	if len(subgroups) == 0 {
		return nil
	}

	for sub := range subgroups {
		var files []string
		for _, p := range paths {
			segs, isDir := splitResource(p)
			if isDir || len(segs) != 4 {
				continue
			}
			if segs[0] != doc || segs[1] != group || segs[2] != sub {
				continue
			}
			for _, role := range roles {
				if segs[3] == role+ext {
					files = append(files, p)
					break
				}
			}
		}
		sort.Strings(files)
		subgroups[sub] = files
	}
	return subgroups
}

// splitResource splits a resource path into its segments and reports
// whether it denotes a directory (trailing separator).
func splitResource(p string) (segs []string, isDir bool) {
	if strings.HasSuffix(p, "/") {
		return strings.Split(p[:len(p)-1], "/"), true
	}
	return strings.Split(p, "/"), false
}

// isSourceFile reports whether name is a non-empty file name carrying the
// source extension.
func isSourceFile(name, ext string) bool {
	return len(name) > len(ext) && strings.HasSuffix(name, ext)
}
