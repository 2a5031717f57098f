package couch

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// DesignPrefix is the id prefix CouchDB requires for design documents.
const DesignPrefix = "_design/"

// DesignDocument is one assembled design document. Categories that were not
// populated on the desk are nil and omitted from the JSON body.
type DesignDocument struct {
	ID                string                       `json:"_id"`
	Rev               string                       `json:"_rev,omitempty"`
	Language          string                       `json:"language,omitempty"`
	Views             map[string]map[string]string `json:"views,omitempty"`
	Filters           map[string]string            `json:"filters,omitempty"`
	Lists             map[string]string            `json:"lists,omitempty"`
	Shows             map[string]string            `json:"shows,omitempty"`
	ValidateDocUpdate string                       `json:"validate_doc_update,omitempty"`
	Fulltext          map[string]map[string]string `json:"fulltext,omitempty"`
}

// Name returns the document name without the _design/ prefix.
func (d *DesignDocument) Name() string {
	return strings.TrimPrefix(d.ID, DesignPrefix)
}

// equalOpts ignores the revision token, which differs by construction
// between a desk-built copy and the stored one, and treats nil and empty
// category maps as the same thing so that decoding artifacts never count as
// a difference.
var equalOpts = cmp.Options{
	cmpopts.IgnoreFields(DesignDocument{}, "Rev"),
	cmpopts.EquateEmpty(),
}

// Equal reports full structural equality with other: identifier, language,
// every category and every function body. The revision is excluded.
// The values are compared dereferenced so cmp walks the struct fields
// instead of dispatching back to this method.
func (d *DesignDocument) Equal(other *DesignDocument) bool {
	return cmp.Equal(*d, *other, equalOpts)
}

// Diff renders a human-readable structural diff against other, with the
// revision excluded. It returns "" when the documents are equal.
func (d *DesignDocument) Diff(other *DesignDocument) string {
	return cmp.Diff(*other, *d, equalOpts)
}

// Response is the store's acknowledgement of a create or update.
type Response struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}
