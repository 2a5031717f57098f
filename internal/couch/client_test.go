package couch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.URL = srv.URL
	if cfg.Database == "" {
		cfg.Database = "testdb"
	}
	client := NewClient(cfg)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Get(t *testing.T) {
	t.Run("decodes an existing document", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/testdb/_design/example", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"_id": "_design/example",
				"_rev": "1-abc",
				"language": "javascript",
				"shows": {"item": "function(doc, req){}"}
			}`))
		})

		doc, err := client.Get(context.Background(), "_design/example")
		require.NoError(t, err)
		assert.Equal(t, "_design/example", doc.ID)
		assert.Equal(t, "1-abc", doc.Rev)
		assert.Equal(t, "javascript", doc.Language)
		assert.Equal(t, map[string]string{"item": "function(doc, req){}"}, doc.Shows)
	})

	t.Run("missing document yields ErrNotFound", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not_found","reason":"missing"}`))
		})

		_, err := client.Get(context.Background(), "_design/missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server failure propagates with status", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Get(context.Background(), "_design/example")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.ErrorContains(t, err, "500")
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.Get(context.Background(), "")
		require.Error(t, err)
	})
}

func TestClient_GetRev(t *testing.T) {
	t.Run("passes the revision as a query parameter", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2-def", r.URL.Query().Get("rev"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"_id": "_design/example", "_rev": "2-def"}`))
		})

		doc, err := client.GetRev(context.Background(), "_design/example", "2-def")
		require.NoError(t, err)
		assert.Equal(t, "2-def", doc.Rev)
	})

	t.Run("empty rev is rejected", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.GetRev(context.Background(), "_design/example", "")
		require.Error(t, err)
	})
}

func TestClient_Put(t *testing.T) {
	t.Run("stores the document and decodes the response", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/testdb/_design/example", r.URL.Path)

			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body, "_id")
			assert.Contains(t, body, "language")
			assert.NotContains(t, body, "_rev")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"ok":true,"id":"_design/example","rev":"1-abc"}`))
		})

		res, err := client.Put(context.Background(), &DesignDocument{
			ID:       "_design/example",
			Language: "javascript",
		})
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "_design/example", res.ID)
		assert.Equal(t, "1-abc", res.Rev)
	})

	t.Run("conflict propagates with status", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"conflict"}`))
		})

		_, err := client.Put(context.Background(), &DesignDocument{ID: "_design/example"})
		require.Error(t, err)
		assert.ErrorContains(t, err, "409")
	})

	t.Run("nil document is rejected", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.Put(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestClient_BasicAuth(t *testing.T) {
	client := newTestClient(t, Config{Username: "sync", Password: "s3cret"}, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sync", user)
		assert.Equal(t, "s3cret", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id": "_design/example"}`))
	})

	_, err := client.Get(context.Background(), "_design/example")
	require.NoError(t, err)
}

func TestEscapeDocID(t *testing.T) {
	assert.Equal(t, "_design/example", escapeDocID("_design/example"))
	assert.Equal(t, "_design/with%20space", escapeDocID("_design/with space"))
	assert.Equal(t, "plain", escapeDocID("plain"))
}
