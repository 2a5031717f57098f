package desk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	paths := []string{
		"foo/",
		"foo/views/",
		"foo/views/byDate/",
		"foo/views/byDate/map.js",
		"foo/views/byDate/reduce.js",
		"foo/views/byDate/helper.js", // not a recognized role
		"foo/views/empty/",
		"foo/lists/asHTML.js",
		"foo/lists/asCSV.js",
		"foo/filters/",
		"foo/filters/recent.js",
		"foo/validate_doc_update/validate.js",
		"foo/fulltext/",
		"foo/fulltext/standard/",
		"foo/fulltext/standard/index.js",
		"foo/fulltext/standard/analyzer.js",
		"foo/lists/readme.txt", // wrong extension
		"bar/",
		"bar/shows/item.js",
		"shared.js",           // root-level file, not a document
		"foo/views/loose.js",  // file directly under a group, not in a subgroup
		"foo/notes/draft.js",  // unknown category
	}

	c := classify(paths, ".js")

	t.Run("document names are the top-level directories", func(t *testing.T) {
		assert.Equal(t, []string{"bar", "foo"}, c.DocumentNames())
		assert.True(t, c.HasDocument("foo"))
		assert.False(t, c.HasDocument("shared"))
		assert.False(t, c.HasDocument("shared.js"))
	})

	t.Run("simple categories collect their member files", func(t *testing.T) {
		assert.Equal(t, []string{"foo/lists/asCSV.js", "foo/lists/asHTML.js"}, c.category(CategoryLists, "foo"))
		assert.Equal(t, []string{"foo/filters/recent.js"}, c.category(CategoryFilters, "foo"))
		assert.Equal(t, []string{"bar/shows/item.js"}, c.category(CategoryShows, "bar"))
		assert.Empty(t, c.category(CategoryShows, "foo"))
	})

	t.Run("validator files are recorded without cardinality enforcement", func(t *testing.T) {
		assert.Equal(t, []string{"foo/validate_doc_update/validate.js"}, c.category(CategoryValidate, "foo"))
	})

	t.Run("groups map subgroups to recognized role files only", func(t *testing.T) {
		views := c.group(GroupViews, "foo")
		require.NotNil(t, views)
		assert.Equal(t, []string{"foo/views/byDate/map.js", "foo/views/byDate/reduce.js"}, views["byDate"])

		// Observed subgroup directory with no role files still exists.
		files, ok := views["empty"]
		assert.True(t, ok)
		assert.Empty(t, files)

		fulltext := c.group(GroupFulltext, "foo")
		require.NotNil(t, fulltext)
		assert.Equal(t, []string{"foo/fulltext/standard/analyzer.js", "foo/fulltext/standard/index.js"}, fulltext["standard"])
	})

	t.Run("documents without a category have no entry", func(t *testing.T) {
		assert.Nil(t, c.group(GroupViews, "bar"))
		assert.Empty(t, c.category(CategoryLists, "bar"))
	})
}

func TestClassify_MultipleValidators(t *testing.T) {
	c := classify([]string{
		"foo/",
		"foo/validate_doc_update/one.js",
		"foo/validate_doc_update/two.js",
	}, ".js")

	// Classification records every match; the builder enforces the
	// at-most-one invariant when the document is assembled.
	assert.Len(t, c.category(CategoryValidate, "foo"), 2)
}

func TestClassify_Empty(t *testing.T) {
	c := classify(nil, ".js")
	assert.Empty(t, c.DocumentNames())
	assert.Empty(t, c.Advisories())
}

func TestSplitResource(t *testing.T) {
	segs, isDir := splitResource("foo/")
	assert.True(t, isDir)
	assert.Equal(t, []string{"foo"}, segs)

	segs, isDir = splitResource("foo/views/byDate/map.js")
	assert.False(t, isDir)
	assert.Len(t, segs, 4)
}
