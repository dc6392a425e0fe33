// Package main provides the docstage static site export CLI: it renders
// every page of a documentation source to a self-contained directory of
// HTML files, ready to serve from any static host.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/euforicio/docstage/internal/buildinfo"
	"github.com/euforicio/docstage/internal/cache"
	"github.com/euforicio/docstage/internal/config"
	"github.com/euforicio/docstage/internal/pagerenderer"
	"github.com/euforicio/docstage/internal/site"
	"github.com/euforicio/docstage/internal/staticsite"
	"github.com/euforicio/docstage/internal/storage"
)

var sectionTypes = []string{"domain", "system", "service"}

const cacheVersion = "1"

func main() {
	preFlags := pflag.NewFlagSet("docstage-export-pre", pflag.ContinueOnError)
	preFlags.ParseErrorsWhitelist.UnknownFlags = true
	configPath := preFlags.StringP("config", "c", "", "path to a docstage.toml configuration file")
	_ = preFlags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("docstage-export", pflag.ExitOnError)
	flags.StringVarP(configPath, "config", "c", *configPath, "path to a docstage.toml configuration file")
	outputDir := flags.StringP("out", "o", "./dist", "output directory for the generated static site")
	siteTitle := flags.String("title", "Documentation", "site title used on the generated landing page")
	assetPrefix := flags.String("asset-prefix", "assets", "relative directory name for copied assets within the export")
	baseURL := flags.String("base-url", "", "optional absolute base URL for canonical link tags")
	clean := flags.Bool("clean", true, "wipe the output directory before exporting")
	config.RegisterFlags(flags, &cfg)
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("parse flags", slog.Any("err", err))
		os.Exit(1)
	}

	if err := config.Finalize(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger = logger.With("app", "docstage-export")
	slog.SetDefault(logger)
	logger.Info("starting docstage-export", slog.String("version", buildinfo.Summary()))

	ctx := context.Background()

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

	st, err := site.Build(ctx, store, site.NewSectionTypes(sectionTypes))
	if err != nil {
		logger.Error("site build failed", slog.Any("err", err))
		os.Exit(1)
	}
	renderer.SetRegistry(site.NewRegistry(st, logger))

	exp, err := staticsite.New(renderer, logger)
	if err != nil {
		logger.Error("init exporter failed", slog.Any("err", err))
		os.Exit(1)
	}

	if err := exp.Export(ctx, st, staticsite.Options{
		OutputDir:   *outputDir,
		SiteTitle:   *siteTitle,
		AssetPrefix: *assetPrefix,
		BaseURL:     *baseURL,
		CleanOutput: *clean,
	}); err != nil {
		logger.Error("export failed", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("export succeeded", slog.String("output", *outputDir))
}
