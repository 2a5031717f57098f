package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/couchdesk/internal/config"
	"github.com/vk/couchdesk/internal/couch"
	"github.com/vk/couchdesk/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	cfg       *config.Config
	store     *couch.Client
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and database
// client.
func NewApp(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfg, err := config.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded.", "path", appConfig.ConfigPath)

	store := couch.NewClient(couch.Config{
		URL:      cfg.CouchDB.URL,
		Database: cfg.CouchDB.Database,
		Username: cfg.CouchDB.Username,
		Password: cfg.CouchDB.Password,
		Timeout:  cfg.CouchDB.Timeout,
	})
	logger.Debug("Database client configured.", "url", cfg.CouchDB.URL, "database", cfg.CouchDB.Database)

	return &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		cfg:       cfg,
		store:     store,
	}
}

// DeskConfig returns the loaded desk configuration. This is primarily for
// testing.
func (a *App) DeskConfig() config.Desk {
	return a.cfg.Desk
}
