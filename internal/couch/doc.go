// Package couch holds the design-document model and a thin CouchDB HTTP
// client. The desk packages assemble DesignDocument values; this package
// owns their wire shape and the store round trips (fetch, create, update).
//
// Not-found is modeled as the ErrNotFound sentinel rather than a failure:
// the synchronizer treats it as the signal to create a document.
package couch
