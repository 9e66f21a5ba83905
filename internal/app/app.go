// Package app assembles the shipyard services from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"shipyard/internal/blob"
	"shipyard/internal/calc"
	"shipyard/internal/catalog"
	"shipyard/internal/config"
	"shipyard/internal/document"
	"shipyard/internal/history"
	"shipyard/internal/library"
	"shipyard/internal/observability"
	"shipyard/internal/workspace"
	"shipyard/pkg/domain"
)

// App holds the wired services for one process.
type App struct {
	Config   config.Config
	Logger   *logrus.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Recorder
	Files    *blob.Files
	Catalog  *catalog.Catalog
	Engine   *document.Engine
	Library  library.Store
}

// New builds the services described by cfg. Logs go to logOut.
func New(ctx context.Context, cfg config.Config, logOut io.Writer) (*App, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, logOut)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	files := blob.NewFiles(store, blob.WithContentType("application/json"))

	var src catalog.Source
	if cfg.CatalogPrefix != "" {
		src = files
	}
	cat := catalog.Open(ctx, src, cfg.CatalogPrefix, logger)

	engine := document.New(cat, calc.New(calc.WithLogger(logger)),
		document.WithLogger(logger),
		document.WithMetrics(metrics),
	)

	lib, err := library.Open(ctx, cfg.Library)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"blob":    store.Driver(),
		"library": lib.Driver(),
		"catalog": cfg.CatalogPrefix,
	}).Debug("services ready")

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics,
		Files:    files,
		Catalog:  cat,
		Engine:   engine,
		Library:  library.Instrument(lib, logger, metrics),
	}, nil
}

// NewWorkspace starts an editing session that saves through the blob store.
// A non-empty autoSaveName enables auto-save at the configured interval.
func (a *App) NewWorkspace(autoSaveName string) *workspace.Workspace {
	h := history.New[domain.Design](
		history.WithMaxDepth(a.Config.HistoryDepth),
		history.WithDebounce(a.Config.HistoryDebounce),
	)
	return workspace.New(a.Engine, a.Files,
		workspace.WithHistory(h),
		workspace.WithLogger(a.Logger),
		workspace.WithMetrics(a.Metrics),
		workspace.WithAutoSave(autoSaveName, a.Config.AutoSaveInterval),
	)
}

// Load decodes the design stored under name, from the library when
// fromLibrary is set and from the blob store otherwise.
func (a *App) Load(ctx context.Context, name string, fromLibrary bool) (document.LoadResult, error) {
	data, err := a.read(ctx, name, fromLibrary)
	if err != nil {
		return document.LoadResult{}, err
	}
	return a.Engine.Decode(ctx, data)
}

func (a *App) read(ctx context.Context, name string, fromLibrary bool) ([]byte, error) {
	if fromLibrary {
		_, data, err := a.Library.Get(ctx, name)
		return data, err
	}
	return a.Files.ReadFile(ctx, name)
}

// Close releases the library handle.
func (a *App) Close() error {
	return a.Library.Close()
}
