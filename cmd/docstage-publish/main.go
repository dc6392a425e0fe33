// Package main provides the docstage Confluence publish CLI: it renders
// each page to Confluence storage-format XHTML and, for pages published
// before, transfers reviewer inline-comment markers from the previously
// published XHTML onto the freshly rendered output before it would be
// pushed. Authenticating and actually pushing the result to a Confluence
// space is an external concern this command doesn't implement; it reads and
// writes the "previously published" / "about to be published" XHTML as
// files under --state-dir, standing in for that API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/euforicio/docstage/internal/buildinfo"
	"github.com/euforicio/docstage/internal/config"
	"github.com/euforicio/docstage/internal/confluence"
	"github.com/euforicio/docstage/internal/render"
	"github.com/euforicio/docstage/internal/site"
	"github.com/euforicio/docstage/internal/storage"
)

var sectionTypes = []string{"domain", "system", "service"}

func main() {
	preFlags := pflag.NewFlagSet("docstage-publish-pre", pflag.ContinueOnError)
	preFlags.ParseErrorsWhitelist.UnknownFlags = true
	configPath := preFlags.StringP("config", "c", "", "path to a docstage.toml configuration file")
	_ = preFlags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("docstage-publish", pflag.ExitOnError)
	flags.StringVarP(configPath, "config", "c", *configPath, "path to a docstage.toml configuration file")
	stateDir := flags.String("state-dir", "./.confluence", "directory holding previously- and newly-rendered XHTML per page")
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
	logger = logger.With("app", "docstage-publish")
	slog.SetDefault(logger)
	logger.Info("starting docstage-publish", slog.String("version", buildinfo.Summary()))

	ctx := context.Background()

	store, err := storage.NewFSStorage(cfg.Docs.SourceDir, logger, storage.Options{MetaFilename: cfg.Metadata.Name})
	if err != nil {
		logger.Error("init storage failed", slog.Any("err", err))
		os.Exit(1)
	}

	st, err := site.Build(ctx, store, site.NewSectionTypes(sectionTypes))
	if err != nil {
		logger.Error("site build failed", slog.Any("err", err))
		os.Exit(1)
	}

	publisher := confluence.NewFilePublisher(*stateDir)

	var totalUnmatched int
	for _, pg := range st.Pages {
		if !pg.HasContent {
			continue
		}
		source, err := store.Read(ctx, pg.Path)
		if err != nil {
			logger.Error("read page failed", slog.String("path", pg.Path), slog.Any("err", err))
			continue
		}

		pipeline := render.New(render.Config{Backend: render.Confluence, ExtractTitle: true})
		result, err := pipeline.Render(source)
		if err != nil {
			logger.Error("render page failed", slog.String("path", pg.Path), slog.Any("err", err))
			continue
		}
		for _, w := range result.Warnings {
			logger.Warn("render warning", slog.String("path", pg.Path), slog.String("warning", w))
		}

		newHTML := result.HTML
		if prior, ok, err := publisher.Previous(ctx, pg.Path); err != nil {
			logger.Error("read previous publish failed", slog.String("path", pg.Path), slog.Any("err", err))
		} else if ok {
			preserved := confluence.PreserveComments(prior, newHTML, logger)
			newHTML = preserved.HTML
			for _, u := range preserved.UnmatchedComments {
				totalUnmatched++
				logger.Warn("comment marker could not be relocated",
					slog.String("path", pg.Path), slog.String("ref", u.RefID), slog.String("text", u.Text))
			}
		}

		if err := publisher.Publish(ctx, pg.Path, newHTML); err != nil {
			logger.Error("publish page failed", slog.String("path", pg.Path), slog.Any("err", err))
			continue
		}
		logger.Info("rendered page for publish", slog.String("path", pg.Path), slog.String("title", result.Title))
	}

	logger.Info("publish render pass complete", slog.Int("unmatched_comments", totalUnmatched))
}
