// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/renshaw/smartlinks/internal/api"
	"github.com/renshaw/smartlinks/internal/catalog"
	"github.com/renshaw/smartlinks/internal/linkservice"
	"github.com/renshaw/smartlinks/internal/mcpserver"
	"github.com/renshaw/smartlinks/internal/media"
	"github.com/renshaw/smartlinks/internal/refindex"
	"github.com/renshaw/smartlinks/internal/registry"
	"github.com/renshaw/smartlinks/internal/render"
	"github.com/renshaw/smartlinks/internal/resolver"
	"github.com/renshaw/smartlinks/internal/sse"
)

// core bundles the wired resolution components shared by the serve, reindex,
// and mcp entry points.
type core struct {
	manager *catalog.Manager
	index   *refindex.Index
	service *linkservice.Service
	store   refindex.Store
}

func (c *core) close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			slog.Warn("close index store", slog.String("error", err.Error()))
		}
	}
}

// buildCore runs the one-shot setup phase: register every catalog source,
// open the index (warm-started from persistence when configured), and wire
// resolver, media backend, and renderer. cb may be nil.
func buildCore(cfg *Config, logger *slog.Logger, cb linkservice.EventFunc) (*core, error) {
	fs, err := catalog.NewFS(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	manager := catalog.NewManager(fs, logger)

	reg := registry.New()
	if err := manager.Bootstrap(reg); err != nil {
		return nil, fmt.Errorf("bootstrap catalog: %w", err)
	}

	var store refindex.Store
	if cfg.Index.Path != "" {
		s, err := refindex.OpenStore(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("init index store: %w", err)
		}
		store = s
	}

	ix := refindex.New(reg, store, logger)
	if err := ix.WarmStart(); err != nil {
		logger.Warn("index warm start failed", slog.String("error", err.Error()))
	}

	res, err := resolver.New(reg, ix, cfg.Render.DefaultPrefix)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	ren, err := render.New(reg, media.NewURLBackend(), logger)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	return &core{
		manager: manager,
		index:   ix,
		service: linkservice.NewService(reg, ix, res, ren, cb),
		store:   store,
	}, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func applyOptions(opts []Option) (*Config, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app.config, nil
}

// Run starts the HTTP server, catalog watcher, and SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker receives every index mutation.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := buildCore(cfg, logger, func(kind, prefix, name string) {
		broker.PublishIndexEvent(kind, prefix, name)
	})
	if err != nil {
		return err
	}
	defer c.close()

	// Initial rebuild. A failure is not fatal: the warm-started snapshot (or
	// an empty index) keeps serving and every miss degrades to plain text.
	if err := c.service.Rebuild(ctx); err != nil {
		logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(c.service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Catalog watcher converts file edits into upsert/remove signals.
	if cfg.Catalog.Watch {
		g.Go(func() error {
			if err := catalog.Watch(gCtx, c.manager, c.service, logger); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Reindex performs one synchronous full rebuild, the operator trigger meant
// for use after bulk data loads.
func Reindex(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	c, err := buildCore(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.service.Rebuild(ctx); err != nil {
		return err
	}
	logger.Info("index rebuilt", slog.Int("entries", c.service.IndexLen()))
	return nil
}

// RunMCP serves the MCP tool surface on stdio.
func RunMCP(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}
	// Stdout carries the MCP protocol; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	c, err := buildCore(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.service.Rebuild(ctx); err != nil {
		logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(c.service).ServeStdio()
}
