package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/coalwatch/spa"
	"github.com/coalwatch/spa/config"
	"github.com/coalwatch/spa/router"
	"github.com/coalwatch/spa/view"
	"github.com/coalwatch/spa/web"

	"golang.org/x/time/rate"
)

// bootstrap creates the application instance, attaches the router and mounts
// it on the configured anchor.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*spa.App, error) {
	rt, err := newRouter(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Routes.Variant != router.DefaultVariant {
		logger.Warn("Using a non-canonical route table",
			"variant", cfg.Routes.Variant,
			"canonical", router.DefaultVariant)
	}

	var static fs.FS
	if cfg.Server.StaticDir != "" {
		static = os.DirFS(cfg.Server.StaticDir)
	}

	app, err := spa.New(spa.Config{
		Title:          cfg.App.Title,
		Root:           "App",
		Components:     &view.FSImporter{FS: web.FS, Dir: web.ComponentsDir},
		Shell:          web.FS,
		Stylesheets:    []string{web.Stylesheet},
		Static:         static,
		NotFound:       "NotFound",
		Error:          "Error",
		Live:           cfg.Live.Enabled,
		LiveRate:       rate.Limit(cfg.Live.Rate),
		LiveBurst:      cfg.Live.Burst,
		CacheSize:      cfg.Cache.Size,
		SitemapBaseURL: cfg.Sitemap.BaseURL,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	if err := app.Use(rt); err != nil {
		return nil, fmt.Errorf("attach router: %w", err)
	}
	if err := app.Mount(cfg.App.Anchor); err != nil {
		return nil, fmt.Errorf("mount application: %w", err)
	}
	return app, nil
}

func newRouter(cfg *config.Config) (*router.Router, error) {
	table, err := router.Variant(cfg.Routes.Variant)
	if err != nil {
		return nil, err
	}
	mode, err := router.ParseMode(cfg.Routes.Mode)
	if err != nil {
		return nil, err
	}
	return router.New(table, mode)
}

func componentFile(name string) string {
	return path.Join(web.ComponentsDir, view.ComponentFile(name))
}
