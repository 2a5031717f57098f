package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/couchdesk/internal/testutil"
)

func TestSync_CreatesDocumentsOnFirstRun(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"example/views/by_name/map.js": "function(doc) { emit(doc.name, 1); }",
		"example/shows/item.js":        "function(doc, req) { return doc; }",
		"sidecar/filters/mine.js":      "function(doc, req) { return true; }",
	})

	result := h.Run()
	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.Stub.Puts())

	doc := result.Stub.Document("_design/example")
	require.NotNil(t, doc)
	assert.Equal(t, "javascript", doc["language"])
	views, ok := doc["views"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, views, "by_name")

	require.NotNil(t, result.Stub.Document("_design/sidecar"))
}

func TestSync_SecondRunIsIdempotent(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"example/shows/item.js": "function(doc, req) { return doc; }",
	})

	require.NoError(t, h.Run().Err)
	result := h.Run()
	require.NoError(t, result.Err)

	// The document was written once; the second pass only reads.
	assert.Equal(t, 1, result.Stub.Puts())
}

func TestSync_ChangedFileProducesOneUpdate(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"example/shows/item.js": "function(doc, req) { return doc; }",
	})
	require.NoError(t, h.Run().Err)

	h.WriteFiles(map[string]string{
		"example/shows/item.js": "function(doc, req) { return doc.name; }",
	})
	result := h.Run()
	require.NoError(t, result.Err)

	assert.Equal(t, 2, result.Stub.Puts())
	doc := result.Stub.Document("_design/example")
	require.NotNil(t, doc)
	shows, ok := doc["shows"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "function(doc, req) { return doc.name; }", shows["item"])
}

func TestSync_DryRunWritesNothing(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"example/shows/item.js": "function(doc, req) { return doc; }",
	})

	result := h.Run("-dry-run")
	require.NoError(t, result.Err)

	assert.Zero(t, result.Stub.Puts())
	assert.Contains(t, result.LogOutput, "Would create")
}

func TestSync_SingleDocumentFlag(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"alpha/shows/item.js": "a",
		"beta/shows/item.js":  "b",
	})

	result := h.Run("-doc", "alpha")
	require.NoError(t, result.Err)

	assert.Equal(t, 1, result.Stub.Puts())
	assert.NotNil(t, result.Stub.Document("_design/alpha"))
	assert.Nil(t, result.Stub.Document("_design/beta"))
}

func TestSync_UnknownDocumentFlagFails(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"alpha/shows/item.js": "a",
	})

	result := h.Run("-doc", "missing")
	require.Error(t, result.Err)
	assert.Zero(t, result.Stub.Puts())
}

func TestSync_MacroExpansionReachesTheDatabase(t *testing.T) {
	h := testutil.NewHarness(t, map[string]string{
		"example/views/lib/utils.js":   "var toName = function(doc) { return doc.name; };",
		"example/views/by_name/map.js": "// !code views/lib/utils.js\nfunction(doc) { emit(toName(doc), 1); }",
	})

	result := h.Run()
	require.NoError(t, result.Err)

	doc := result.Stub.Document("_design/example")
	require.NotNil(t, doc)
	views := doc["views"].(map[string]any)
	byName := views["by_name"].(map[string]any)
	mapFn, _ := byName["map"].(string)
	assert.Contains(t, mapFn, "var toName")
	assert.Contains(t, mapFn, "// ==> views/lib/utils.js")
	assert.NotContains(t, mapFn, "!code")
}
