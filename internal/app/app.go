package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/procbridge/internal/config"
	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/localexecutor"
	"github.com/vk/procbridge/internal/memstore"
	"github.com/vk/procbridge/internal/metrics"
	"github.com/vk/procbridge/internal/registry"
	"github.com/vk/procbridge/internal/snapshot"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *config.Config
	handlers   *handlers.Handlers
	registry   *registry.Registry
	store      *memstore.Store
	metrics    *metrics.Metrics
	executor   *localexecutor.Executor
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. With no modules given, the core modules are used.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *config.Config, modules ...handlers.Module) (*App, error) {
	logger := newLogger(cfg.Log, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	h := handlers.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(h)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "handlers", len(h.Names()))

	reg, err := BuildRegistry(ctx, h, cfg.Modules.Path)
	if err != nil {
		return nil, err
	}

	store, err := snapshot.Open(ctx, cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	logger.Debug("Graph loaded.", "vertices", store.VertexCount(), "edges", store.EdgeCount())

	m := metrics.New()
	m.Procedures.Set(float64(len(reg.Procedures())))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		handlers: h,
		registry: reg,
		store:    store,
		metrics:  m,
		executor: localexecutor.New(store, reg, m),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Store returns the graph the application serves.
func (a *App) Store() *memstore.Store {
	return a.store
}

// Metrics returns the application's collectors.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close flushes the metrics textfile when one is configured.
func (a *App) Close() error {
	if a.config.Metrics.File == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.config.Metrics.File); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.logger.Debug("Metrics written.", "path", a.config.Metrics.File)
	return nil
}
