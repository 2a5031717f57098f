package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/couchdesk/internal/couch"
	"github.com/vk/couchdesk/internal/ctxlog"
	"github.com/vk/couchdesk/internal/desk"
)

// Store is the slice of the store client the synchronizer needs.
type Store interface {
	// Get fetches a document by id, or couch.ErrNotFound.
	Get(ctx context.Context, id string) (*couch.DesignDocument, error)
	// Put creates or updates a document under its id.
	Put(ctx context.Context, doc *couch.DesignDocument) (*couch.Response, error)
}

// Summary counts the outcomes of a batch synchronization.
type Summary struct {
	Created   int
	Updated   int
	Unchanged int
}

type action int

const (
	actionNone action = iota
	actionCreated
	actionUpdated
)

// Synchronizer pushes desk documents into a store.
type Synchronizer struct {
	// DryRun reports what a synchronization would do, including a
	// structural diff for updates, without mutating the store.
	DryRun bool

	desk  *desk.Desk
	store Store
}

// New creates a Synchronizer over the given desk and store.
func New(d *desk.Desk, store Store) *Synchronizer {
	return &Synchronizer{desk: d, store: store}
}

// SynchronizeWithDb reconciles one document with the store. It returns the
// store's response for a create or update, or nil when no action was taken
// because the stored copy is already up to date.
func (s *Synchronizer) SynchronizeWithDb(ctx context.Context, doc *couch.DesignDocument) (*couch.Response, error) {
	_, res, err := s.synchronize(ctx, doc)
	return res, err
}

// SynchronizeAllWithDb reconciles every document on the desk, sequentially
// and in name order. The first failure (desk build, fetch or store)
// surfaces immediately and halts the batch.
func (s *Synchronizer) SynchronizeAllWithDb(ctx context.Context) (Summary, error) {
	var summary Summary
	docs, err := s.desk.GetAllFromDesk(ctx)
	if err != nil {
		return summary, err
	}
	for _, doc := range docs {
		act, _, err := s.synchronize(ctx, doc)
		if err != nil {
			return summary, fmt.Errorf("failed to synchronize %s: %w", doc.ID, err)
		}
		switch act {
		case actionCreated:
			summary.Created++
		case actionUpdated:
			summary.Updated++
		default:
			summary.Unchanged++
		}
	}
	return summary, nil
}

func (s *Synchronizer) synchronize(ctx context.Context, doc *couch.DesignDocument) (action, *couch.Response, error) {
	if doc == nil {
		return actionNone, nil, fmt.Errorf("document may not be nil")
	}
	ctx = ctxlog.With(ctx, "id", doc.ID)
	logger := ctxlog.FromContext(ctx)

	remote, err := s.store.Get(ctx, doc.ID)
	if err != nil {
		if !errors.Is(err, couch.ErrNotFound) {
			return actionNone, nil, err
		}
		if s.DryRun {
			logger.Info("Would create document (dry run).")
			return actionCreated, nil, nil
		}
		res, err := s.store.Put(ctx, doc)
		if err != nil {
			return actionNone, nil, err
		}
		logger.Info("Document created.", "rev", res.Rev)
		return actionCreated, res, nil
	}

	if doc.Equal(remote) {
		logger.Debug("Document is up to date, no action taken.")
		return actionNone, nil, nil
	}

	if s.DryRun {
		logger.Info("Would update document (dry run).", "diff", doc.Diff(remote))
		return actionUpdated, nil, nil
	}

	// The stored copy wins the revision race: stamp its revision onto the
	// desk copy so the store accepts the update.
	doc.Rev = remote.Rev
	res, err := s.store.Put(ctx, doc)
	if err != nil {
		return actionNone, nil, err
	}
	logger.Info("Document updated.", "rev", res.Rev)
	return actionUpdated, res, nil
}
