package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// CouchStub is a minimal in-memory CouchDB speaking just enough of the HTTP
// API for synchronization tests: GET and PUT of a single document by id,
// with integer revision bumping and conflict detection.
type CouchStub struct {
	Server *httptest.Server

	mu   sync.Mutex
	db   string
	docs map[string]map[string]any
	revs map[string]int
	gets int
	puts int
}

// NewCouchStub starts a stub server for the given database name. The server
// is shut down automatically when the test finishes.
func NewCouchStub(t *testing.T, database string) *CouchStub {
	t.Helper()
	stub := &CouchStub{
		db:   database,
		docs: make(map[string]map[string]any),
		revs: make(map[string]int),
	}
	stub.Server = httptest.NewServer(http.HandlerFunc(stub.handle))
	t.Cleanup(stub.Server.Close)
	return stub
}

// URL returns the stub's base URL.
func (s *CouchStub) URL() string {
	return s.Server.URL
}

// Gets returns the number of document fetches served.
func (s *CouchStub) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// Puts returns the number of document writes served.
func (s *CouchStub) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Document returns the stored body of a document, or nil if absent. The id
// is the unescaped form, e.g. "_design/example".
func (s *CouchStub) Document(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	copied := make(map[string]any, len(doc))
	for k, v := range doc {
		copied[k] = v
	}
	return copied
}

func (s *CouchStub) handle(w http.ResponseWriter, r *http.Request) {
	prefix := "/" + s.db + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	// r.URL.Path is already percent-decoded, so an escaped design slash
	// and a literal one both arrive the same way.
	id := strings.TrimPrefix(r.URL.Path, prefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.gets++
		doc, ok := s.docs[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found", "reason": "missing"})
			return
		}
		writeJSON(w, http.StatusOK, doc)

	case http.MethodPut:
		var doc map[string]any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad_request"})
			return
		}
		current := s.revs[id]
		sent, _ := doc["_rev"].(string)
		if current > 0 && sent != fmt.Sprintf("%d-rev", current) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "conflict", "reason": "Document update conflict."})
			return
		}
		s.puts++
		s.revs[id] = current + 1
		rev := fmt.Sprintf("%d-rev", s.revs[id])
		doc["_rev"] = rev
		s.docs[id] = doc
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": rev})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
