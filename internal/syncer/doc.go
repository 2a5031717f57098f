// Package syncer reconciles desk-built design documents with their stored
// copies. A document is created when the store has none, updated when the
// stored copy differs structurally, and left alone when both are equal;
// synchronization is idempotent.
package syncer
