package couch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesignDocument_Name(t *testing.T) {
	doc := &DesignDocument{ID: "_design/example"}
	assert.Equal(t, "example", doc.Name())
}

func TestDesignDocument_Equal(t *testing.T) {
	base := func() *DesignDocument {
		return &DesignDocument{
			ID:       "_design/example",
			Language: "javascript",
			Views: map[string]map[string]string{
				"byDate": {"map": "function(doc){}"},
			},
			Shows: map[string]string{"item": "function(doc, req){}"},
		}
	}

	t.Run("revision is excluded from comparison", func(t *testing.T) {
		a := base()
		b := base()
		b.Rev = "3-deadbeef"
		assert.True(t, a.Equal(b))
		assert.Empty(t, a.Diff(b))
	})

	t.Run("nil and empty categories compare equal", func(t *testing.T) {
		a := base()
		b := base()
		b.Filters = map[string]string{}
		assert.True(t, a.Equal(b))
	})

	t.Run("body change is detected", func(t *testing.T) {
		a := base()
		b := base()
		b.Views["byDate"]["map"] = "function(doc){ emit(doc.date); }"
		assert.False(t, a.Equal(b))
		assert.NotEmpty(t, a.Diff(b))
	})

	t.Run("identifier change is detected", func(t *testing.T) {
		a := base()
		b := base()
		b.ID = "_design/other"
		assert.False(t, a.Equal(b))
	})
}

func TestDesignDocument_SerializedFieldNames(t *testing.T) {
	doc := &DesignDocument{
		ID:       "_design/example",
		Language: "javascript",
		Views: map[string]map[string]string{
			"byDate": {"map": "function(doc){}", "reduce": "_count"},
		},
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Contains(t, fields, "_id")
	assert.Contains(t, fields, "language")
	assert.Contains(t, fields, "views")

	// Unpopulated categories and the empty revision must be omitted, not
	// serialized as empty values.
	assert.NotContains(t, fields, "_rev")
	assert.NotContains(t, fields, "filters")
	assert.NotContains(t, fields, "lists")
	assert.NotContains(t, fields, "shows")
	assert.NotContains(t, fields, "validate_doc_update")
	assert.NotContains(t, fields, "fulltext")
}
