// Package main provides the docstage HTTP server: renders the page/nav API
// over a live-reloading Markdown source tree.
package main

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

	"github.com/spf13/pflag"

	"github.com/euforicio/docstage/internal/buildinfo"
	"github.com/euforicio/docstage/internal/cache"
	"github.com/euforicio/docstage/internal/config"
	"github.com/euforicio/docstage/internal/httpapi"
	"github.com/euforicio/docstage/internal/livereload"
	"github.com/euforicio/docstage/internal/pagerenderer"
	"github.com/euforicio/docstage/internal/site"
	"github.com/euforicio/docstage/internal/storage"
)

// sectionTypes are the metadata page_type values that classify a page as a
// navigable section rather than an ordinary leaf page.
var sectionTypes = []string{"domain", "system", "service"}

// cacheVersion gates the on-disk page/site cache: bump it whenever the
// render pipeline's output shape changes incompatibly.
const cacheVersion = "1"

func main() {
	preFlags := pflag.NewFlagSet("docstage-server-pre", pflag.ContinueOnError)
	preFlags.ParseErrorsWhitelist.UnknownFlags = true
	configPath := preFlags.StringP("config", "c", "", "path to a docstage.toml configuration file")
	_ = preFlags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("docstage-server", pflag.ExitOnError)
	flags.StringVarP(configPath, "config", "c", *configPath, "path to a docstage.toml configuration file")
	config.RegisterFlags(flags, &cfg)
	versionFlag := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("parse flags", slog.Any("err", err))
		os.Exit(1)
	}
	if *versionFlag {
		fmt.Println(buildinfo.Summary())
		return
	}
	if err := config.Finalize(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	logger = logger.With("app", "docstage-server")
	slog.SetDefault(logger)
	logger.Info("starting docstage-server", slog.String("version", buildinfo.Summary()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewFSStorage(cfg.Docs.SourceDir, logger, storage.Options{MetaFilename: cfg.Metadata.Name})
	if err != nil {
		logger.Error("init storage failed", slog.Any("err", err))
		os.Exit(1)
	}

	var pageCache cache.Cache = cache.NullCache{}
	if cfg.Docs.CacheEnabled {
		pageCache = cache.NewFileCache(cfg.Docs.CacheDir, cacheVersion, logger)
	}

	renderer := pagerenderer.New(store, pageCache, pagerenderer.Options{
		KrokiURL:          cfg.Diagrams.KrokiURL,
		DiagramIncludeDir: cfg.Diagrams.IncludeDirs,
		DiagramConfigFile: cfg.Diagrams.ConfigFile,
		DiagramDPI:        cfg.Diagrams.DPI,
	}, logger)

	hub := livereload.NewHub(logger)
	api := httpapi.New(renderer, hub, buildinfo.Summary(), logger)

	st, reg, err := loadSite(ctx, store, pageCache, logger)
	if err != nil {
		logger.Error("initial site load failed", slog.Any("err", err))
		os.Exit(1)
	}
	api.SetSite(st)
	renderer.SetRegistry(reg)

	if cfg.LiveReload.Enabled {
		watchEvents, stopWatch, err := store.Watch(ctx)
		if err != nil {
			logger.Warn("live reload disabled: watcher init failed", slog.Any("err", err))
		} else {
			defer stopWatch()
			go runReloadCoordinator(ctx, watchEvents, hub, store, pageCache, renderer, api, logger)
		}
	}

	handler := httpapi.Chain(api.Routes(),
		httpapi.RecoveryMiddleware,
		httpapi.GzipMiddleware,
		httpapi.LoggingMiddleware(logger, cfg.Verbose),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("err", err))
			os.Exit(1)
		}
		logger.Info("shutdown complete")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// loadSite builds a fresh site.State and site.Registry, preferring a valid
// on-disk cache over a full storage rescan.
func loadSite(ctx context.Context, store storage.Storage, c cache.Cache, logger *slog.Logger) (*site.State, *site.Registry, error) {
	bucket := c.Bucket("site")
	if st, ok := site.Load(bucket); ok {
		return st, site.NewRegistry(st, logger), nil
	}

	st, err := site.Build(ctx, store, site.NewSectionTypes(sectionTypes))
	if err != nil {
		return nil, nil, err
	}
	st.Save(bucket)
	return st, site.NewRegistry(st, logger), nil
}

// runReloadCoordinator is the single writer of site state: it consumes
// debounced storage events, rebuilds the site graph and typed-page registry
// on every change, swaps them into the shared renderer/API atomically, and
// forwards each event to every live-reload subscriber.
func runReloadCoordinator(ctx context.Context, events <-chan livereload.Event, hub *livereload.Hub, store storage.Storage, c cache.Cache, renderer *pagerenderer.Renderer, api *httpapi.Handler, logger *slog.Logger) {
	bucket := c.Bucket("site")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			st, err := site.Build(ctx, store, site.NewSectionTypes(sectionTypes))
			if err != nil {
				logger.Error("site rebuild failed", slog.Any("err", err))
			} else {
				st.Save(bucket)
				api.SetSite(st)
				renderer.SetRegistry(site.NewRegistry(st, logger))
			}
			hub.Broadcast(ev)
		}
	}
}
