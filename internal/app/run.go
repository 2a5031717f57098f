package app

import (
	"context"
	"fmt"

	"github.com/vk/couchdesk/internal/ctxlog"
	"github.com/vk/couchdesk/internal/desk"
	"github.com/vk/couchdesk/internal/syncer"
	"github.com/vk/couchdesk/internal/watcher"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.store.Close()

	if a.appConfig.Watch {
		return a.runWatch(ctx)
	}
	return a.runOnce(ctx)
}

// newDesk builds a fresh desk over the configured search paths so every
// synchronization cycle sees the current state of the sources.
func (a *App) newDesk() *desk.Desk {
	return desk.New(desk.Config{
		Paths:     a.cfg.Desk.Paths,
		Root:      a.cfg.Desk.Root,
		Language:  a.cfg.Desk.Language,
		Extension: a.cfg.Desk.Extension,
	})
}

// runOnce performs a single synchronization pass.
func (a *App) runOnce(ctx context.Context) error {
	d := a.newDesk()
	s := syncer.New(d, a.store)
	s.DryRun = a.appConfig.DryRun

	if a.appConfig.Doc != "" {
		doc, err := d.GetFromDesk(ctx, a.appConfig.Doc)
		if err != nil {
			return err
		}
		if _, err := s.SynchronizeWithDb(ctx, doc); err != nil {
			return err
		}
		a.logger.Info("Synchronization finished.", "doc", doc.ID, "dry_run", a.appConfig.DryRun)
		return nil
	}

	summary, err := s.SynchronizeAllWithDb(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}
	a.logger.Info("Synchronization finished.",
		"created", summary.Created,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"dry_run", a.appConfig.DryRun,
	)
	return nil
}

// runWatch performs an initial pass and then resynchronizes whenever files
// under the search paths change, until the context is cancelled.
func (a *App) runWatch(ctx context.Context) error {
	// Keep watching even if a pass fails; a later edit may fix the desk.
	if err := a.runOnce(ctx); err != nil {
		a.logger.Error("Synchronization pass failed.", "error", err)
	}

	w, err := watcher.New(ctx, a.cfg.Desk.Paths)
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	w.Start()
	defer w.Stop()
	a.logger.Info("Watching for changes.", "paths", a.cfg.Desk.Paths)

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Watch mode stopping.", "reason", ctx.Err())
			return nil
		case batch, ok := <-w.Changes:
			if !ok {
				return nil
			}
			a.logger.Info("Change detected, resynchronizing.", "paths", batch)
			if err := a.runOnce(ctx); err != nil {
				a.logger.Error("Synchronization pass failed.", "error", err)
			}
		}
	}
}
